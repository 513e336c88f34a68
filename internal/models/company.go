package models

import "time"

// Capability is one declared company capability. VectorID references the
// stored embedding; Embedding is filled in by the caller before scoring.
type Capability struct {
	Text            string
	Category        string
	YearsExperience int
	VectorID        string
	Embedding       []float32
}

// PastWin is a previously awarded contract
type PastWin struct {
	ContractTitle string
	BuyerName     string
	ContractValue float64
	AwardDate     time.Time
}

// SearchPreference carries the firm's filtering preferences. Value bounds
// and excluded categories are hard filters; regions and keywords only
// adjust the score.
type SearchPreference struct {
	MinContractValue   float64
	MaxContractValue   float64
	PreferredRegions   []string
	ExcludedCategories []string
	Keywords           []string
}

// CompanyProfile is the scorer's view of a firm: capabilities, past wins
// and preferences, assembled from the relational store.
type CompanyProfile struct {
	FirmID       string
	CompanyName  string
	Capabilities []Capability
	PastWins     []PastWin
	Preferences  *SearchPreference
}
