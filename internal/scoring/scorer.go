package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

// Scorer ranks contract opportunities against a company profile using
// capability similarity, past-win affinity and search preferences. All
// inputs are immutable snapshots; scoring a contract has no side effects,
// so batches may be scored concurrently.
type Scorer struct {
	cfg config.ScoringConfig
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	if cfg.TopCapabilities <= 0 {
		cfg.TopCapabilities = 3
	}
	if cfg.CapabilityWeight == 0 && cfg.PastWinWeight == 0 && cfg.PreferenceWeight == 0 {
		cfg.CapabilityWeight = 0.4
		cfg.PastWinWeight = 0.3
		cfg.PreferenceWeight = 0.3
	}
	return &Scorer{cfg: cfg}
}

// ScoreContract computes the weighted relevance score for a contract.
// A nil result means the contract failed a hard filter and is excluded
// outright; that is a terminal outcome, not an error, and is distinct
// from a low score.
func (s *Scorer) ScoreContract(contract models.Contract, profile models.CompanyProfile) *models.MatchResult {
	result := &models.MatchResult{PassesFilters: true}

	capabilityScore := s.capabilityScore(contract, profile.Capabilities)
	result.CapabilityScore = capabilityScore
	switch {
	case capabilityScore > 0.6:
		result.MatchReasons = append(result.MatchReasons, fmt.Sprintf("Strong capability match (%.0f%%)", capabilityScore*100))
	case capabilityScore > 0.4:
		result.MatchReasons = append(result.MatchReasons, fmt.Sprintf("Good capability match (%.0f%%)", capabilityScore*100))
	case capabilityScore > 0.25:
		result.MatchReasons = append(result.MatchReasons, fmt.Sprintf("Moderate capability match (%.0f%%)", capabilityScore*100))
	}

	pastWinScore, winReasons := pastWinScore(contract, profile.PastWins)
	result.PastWinScore = pastWinScore
	result.MatchReasons = append(result.MatchReasons, winReasons...)

	preferenceScore, passesFilters, prefReasons := preferenceScore(contract, profile.Preferences)
	result.PreferenceScore = preferenceScore
	result.MatchReasons = append(result.MatchReasons, prefReasons...)

	if !passesFilters {
		log.Debug().Str("notice_id", contract.NoticeID).Msg("Contract failed preference filters")
		return nil
	}

	result.TotalScore = capabilityScore*s.cfg.CapabilityWeight +
		pastWinScore*s.cfg.PastWinWeight +
		preferenceScore*s.cfg.PreferenceWeight

	return result
}

// capabilityScore averages the top-K cosine similarities between the
// contract embedding and the capability embeddings. Averaging rather than
// taking the maximum rewards firms with several relevant capabilities.
// Missing embeddings on either side degrade to 0.0.
func (s *Scorer) capabilityScore(contract models.Contract, capabilities []models.Capability) float64 {
	if len(contract.Embedding) == 0 || len(capabilities) == 0 {
		return 0.0
	}

	var similarities []float64
	for _, capability := range capabilities {
		if len(capability.Embedding) == 0 {
			continue
		}
		similarities = append(similarities, CosineSimilarity(contract.Embedding, capability.Embedding))
	}
	if len(similarities) == 0 {
		return 0.0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(similarities)))
	top := similarities
	if len(top) > s.cfg.TopCapabilities {
		top = top[:s.cfg.TopCapabilities]
	}

	sum := 0.0
	for _, similarity := range top {
		sum += similarity
	}
	score := sum / float64(len(top))
	if score < 0 {
		score = 0.0
	}
	return score
}

// pastWinScore accumulates buyer and value affinity across all past wins,
// capped at 1.0. An exact buyer match is worth more than a partial one;
// the partial match catches organisational renames and abbreviations.
func pastWinScore(contract models.Contract, pastWins []models.PastWin) (float64, []string) {
	if len(pastWins) == 0 {
		return 0.0, nil
	}

	score := 0.0
	var reasons []string

	for _, win := range pastWins {
		if contract.BuyerName != "" && win.BuyerName != "" {
			buyer := strings.ToLower(contract.BuyerName)
			winBuyer := strings.ToLower(win.BuyerName)

			switch {
			case buyer == winBuyer:
				score += 0.6
				reasons = append(reasons, fmt.Sprintf("Previously won contract with %s", win.BuyerName))
			case strings.Contains(buyer, winBuyer) || strings.Contains(winBuyer, buyer):
				score += 0.4
				reasons = append(reasons, fmt.Sprintf("Previously worked with similar buyer (%s)", win.BuyerName))
			}
		}

		if contract.Value > 0 && win.ContractValue > 0 {
			ratio := contract.Value / win.ContractValue
			if ratio > 1 {
				ratio = 1 / ratio
			}
			if ratio > 0.5 {
				score += 0.3
				if ratio > 0.8 {
					reasons = append(reasons, fmt.Sprintf("Similar contract value to past win (£%.0f)", win.ContractValue))
				}
			}
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}

// preferenceScore applies the firm's search preferences. Value bounds and
// excluded categories are hard filters: any failure excludes the contract
// regardless of the other components. Region and keywords only adjust the
// score. No preferences configured means everything passes at 1.0.
func preferenceScore(contract models.Contract, preferences *models.SearchPreference) (float64, bool, []string) {
	if preferences == nil {
		return 1.0, true, nil
	}

	passesFilters := true
	score := 1.0
	var reasons []string

	if contract.Value > 0 {
		if preferences.MinContractValue > 0 && contract.Value < preferences.MinContractValue {
			passesFilters = false
			log.Debug().Float64("value", contract.Value).Float64("min", preferences.MinContractValue).Msg("Contract value below minimum")
		}
		if preferences.MaxContractValue > 0 && contract.Value > preferences.MaxContractValue {
			passesFilters = false
			log.Debug().Float64("value", contract.Value).Float64("max", preferences.MaxContractValue).Msg("Contract value above maximum")
		}
		if passesFilters && (preferences.MinContractValue > 0 || preferences.MaxContractValue > 0) {
			reasons = append(reasons, fmt.Sprintf("Contract value (£%.0f) matches preferences", contract.Value))
		}
	}

	if len(preferences.ExcludedCategories) > 0 {
		contractText := strings.ToLower(contract.Title + " " + contract.Description)
		for _, category := range preferences.ExcludedCategories {
			if strings.Contains(contractText, strings.ToLower(category)) {
				passesFilters = false
				log.Debug().Str("category", category).Msg("Contract contains excluded category")
				break
			}
		}
	}

	// Region penalty is multiplicative while the boost is additive. The
	// asymmetry strongly suppresses non-preferred regions and is kept
	// as-is: changing it would silently reorder ranked results.
	if len(preferences.PreferredRegions) > 0 && contract.Region != "" {
		if containsString(preferences.PreferredRegions, contract.Region) {
			score += 0.2
			reasons = append(reasons, fmt.Sprintf("Located in preferred region (%s)", contract.Region))
		} else {
			score *= 0.6
		}
	}

	if len(preferences.Keywords) > 0 {
		contractText := strings.ToLower(contract.Title + " " + contract.Description)
		var matched []string
		for _, keyword := range preferences.Keywords {
			if strings.Contains(contractText, strings.ToLower(keyword)) {
				matched = append(matched, keyword)
			}
		}
		if len(matched) > 0 {
			score += float64(len(matched)) * 0.15
			display := matched
			if len(display) > 3 {
				display = display[:3]
			}
			reasons = append(reasons, fmt.Sprintf("Matches keywords: %s", strings.Join(display, ", ")))
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, passesFilters, reasons
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
