package models

import "time"

// Contract is a procurement notice, as fetched from Contracts Finder or
// imported from a spreadsheet. Embedding is resolved from the vector store
// by the caller before scoring; a nil Embedding just degrades the
// capability score to zero.
type Contract struct {
	NoticeID      string
	Title         string
	Description   string
	BuyerName     string
	Value         float64
	Region        string
	CPVCodes      []string
	PublishedDate time.Time
	ClosingDate   time.Time
	VectorID      string
	Embedding     []float32
}

// MatchResult holds the component scores for one contract against one
// company profile. A nil *MatchResult from the scorer means the contract
// was excluded by a hard filter, which is distinct from scoring 0.0.
type MatchResult struct {
	CapabilityScore float64
	PastWinScore    float64
	PreferenceScore float64
	TotalScore      float64
	MatchReasons    []string
	PassesFilters   bool
}

// MatchedContract is a ranked search result
type MatchedContract struct {
	Contract Contract
	Result   MatchResult
}
