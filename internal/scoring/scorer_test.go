package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

func defaultScorer() *Scorer {
	return NewScorer(config.ScoringConfig{})
}

// vectorWithCosine builds a 2D unit vector whose cosine similarity against
// (1, 0) is exactly c.
func vectorWithCosine(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

var contractAxis = []float32{1, 0}

func capabilityWithCosine(text string, c float64) models.Capability {
	return models.Capability{Text: text, Embedding: vectorWithCosine(c)}
}

func TestCapabilityScore_AveragesAllWhenFewerThanTopK(t *testing.T) {
	contract := models.Contract{Embedding: contractAxis}
	profile := models.CompanyProfile{
		Capabilities: []models.Capability{
			capabilityWithCosine("cloud migration", 0.8),
			capabilityWithCosine("payroll software", 0.1),
		},
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.InDelta(t, 0.45, result.CapabilityScore, 1e-6)
}

func TestCapabilityScore_TopThreeOfMany(t *testing.T) {
	contract := models.Contract{Embedding: contractAxis}
	profile := models.CompanyProfile{
		Capabilities: []models.Capability{
			capabilityWithCosine("a", 0.2),
			capabilityWithCosine("b", 1.0),
			capabilityWithCosine("c", 0.6),
			capabilityWithCosine("d", 0.8),
			capabilityWithCosine("e", 0.4),
		},
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.InDelta(t, (1.0+0.8+0.6)/3, result.CapabilityScore, 1e-6)
}

func TestCapabilityScore_TopKConfigurable(t *testing.T) {
	scorer := NewScorer(config.ScoringConfig{TopCapabilities: 1})
	contract := models.Contract{Embedding: contractAxis}
	profile := models.CompanyProfile{
		Capabilities: []models.Capability{
			capabilityWithCosine("a", 0.9),
			capabilityWithCosine("b", 0.1),
		},
	}

	result := scorer.ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.InDelta(t, 0.9, result.CapabilityScore, 1e-6)
}

func TestCapabilityScore_MissingEmbeddings(t *testing.T) {
	scorer := defaultScorer()

	// Contract without an embedding
	result := scorer.ScoreContract(models.Contract{}, models.CompanyProfile{
		Capabilities: []models.Capability{capabilityWithCosine("a", 0.9)},
	})
	require.NotNil(t, result)
	assert.Zero(t, result.CapabilityScore)

	// Capabilities without embeddings
	result = scorer.ScoreContract(models.Contract{Embedding: contractAxis}, models.CompanyProfile{
		Capabilities: []models.Capability{{Text: "no vector yet"}},
	})
	require.NotNil(t, result)
	assert.Zero(t, result.CapabilityScore)
}

func TestCapabilityScore_ReasonBands(t *testing.T) {
	tests := []struct {
		cosine float64
		want   string
	}{
		{0.8, "Strong capability match"},
		{0.5, "Good capability match"},
		{0.3, "Moderate capability match"},
		{0.1, ""},
	}
	for _, tt := range tests {
		contract := models.Contract{Embedding: contractAxis}
		profile := models.CompanyProfile{
			Capabilities: []models.Capability{capabilityWithCosine("x", tt.cosine)},
		}
		result := defaultScorer().ScoreContract(contract, profile)
		require.NotNil(t, result)

		joined := strings.Join(result.MatchReasons, "; ")
		if tt.want == "" {
			assert.NotContains(t, joined, "capability match")
		} else {
			assert.Contains(t, joined, tt.want)
		}
	}
}

func TestPastWinScore_ExactBuyerMatch(t *testing.T) {
	contract := models.Contract{BuyerName: "Manchester City Council"}
	profile := models.CompanyProfile{
		PastWins: []models.PastWin{{BuyerName: "Manchester City Council"}},
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.InDelta(t, 0.6, result.PastWinScore, 1e-9)
	assert.Contains(t, strings.Join(result.MatchReasons, "; "), "Previously won contract with Manchester City Council")
}

func TestPastWinScore_PartialBuyerMatch(t *testing.T) {
	contract := models.Contract{BuyerName: "Manchester City Council Procurement Team"}
	profile := models.CompanyProfile{
		PastWins: []models.PastWin{{BuyerName: "manchester city council"}},
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.InDelta(t, 0.4, result.PastWinScore, 1e-9)
}

func TestPastWinScore_ValueAffinity(t *testing.T) {
	tests := []struct {
		name          string
		contractValue float64
		winValue      float64
		want          float64
		similarReason bool
	}{
		{"within 2x", 100000, 60000, 0.3, false},
		{"nearly equal", 100000, 95000, 0.3, true},
		{"outside 2x", 100000, 20000, 0.0, false},
		{"missing win value", 100000, 0, 0.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := models.Contract{Value: tt.contractValue}
			profile := models.CompanyProfile{
				PastWins: []models.PastWin{{BuyerName: "Someone Else", ContractValue: tt.winValue}},
			}
			result := defaultScorer().ScoreContract(contract, profile)
			require.NotNil(t, result)
			assert.InDelta(t, tt.want, result.PastWinScore, 1e-9)
			hasReason := strings.Contains(strings.Join(result.MatchReasons, "; "), "Similar contract value")
			assert.Equal(t, tt.similarReason, hasReason)
		})
	}
}

func TestPastWinScore_AccumulatesAndCaps(t *testing.T) {
	contract := models.Contract{BuyerName: "Leeds City Council", Value: 100000}
	profile := models.CompanyProfile{
		PastWins: []models.PastWin{
			{BuyerName: "Leeds City Council", ContractValue: 90000},
			{BuyerName: "Leeds City Council", ContractValue: 110000},
		},
	}

	// 2 exact matches (1.2) plus 2 value matches (0.6) cap at 1.0
	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.InDelta(t, 1.0, result.PastWinScore, 1e-9)
}

func TestPreferenceScore_HardValueFilter(t *testing.T) {
	profile := models.CompanyProfile{
		Capabilities: []models.Capability{capabilityWithCosine("perfect fit", 1.0)},
		Preferences: &models.SearchPreference{
			MinContractValue: 50000,
			MaxContractValue: 500000,
		},
	}

	// Below minimum: excluded outright regardless of capability match
	excluded := defaultScorer().ScoreContract(models.Contract{Value: 10000, Embedding: contractAxis}, profile)
	assert.Nil(t, excluded)

	// Above maximum
	excluded = defaultScorer().ScoreContract(models.Contract{Value: 900000, Embedding: contractAxis}, profile)
	assert.Nil(t, excluded)

	// In range
	result := defaultScorer().ScoreContract(models.Contract{Value: 100000, Embedding: contractAxis}, profile)
	require.NotNil(t, result)
	assert.Contains(t, strings.Join(result.MatchReasons, "; "), "matches preferences")
}

func TestPreferenceScore_ExcludedCategory(t *testing.T) {
	profile := models.CompanyProfile{
		Preferences: &models.SearchPreference{
			ExcludedCategories: []string{"catering"},
		},
	}

	excluded := defaultScorer().ScoreContract(models.Contract{
		Title:       "School Catering Services",
		Description: "Provision of daily meals",
	}, profile)
	assert.Nil(t, excluded)

	result := defaultScorer().ScoreContract(models.Contract{
		Title:       "Highway Maintenance",
		Description: "Road resurfacing works",
	}, profile)
	assert.NotNil(t, result)
}

func TestPreferenceScore_RegionAsymmetry(t *testing.T) {
	preferences := &models.SearchPreference{PreferredRegions: []string{"London", "South East"}}

	matched := defaultScorer().ScoreContract(models.Contract{Region: "London"}, models.CompanyProfile{Preferences: preferences})
	require.NotNil(t, matched)
	// Additive boost capped back to 1.0
	assert.InDelta(t, 1.0, matched.PreferenceScore, 1e-9)
	assert.Contains(t, strings.Join(matched.MatchReasons, "; "), "preferred region")

	other := defaultScorer().ScoreContract(models.Contract{Region: "Scotland"}, models.CompanyProfile{Preferences: preferences})
	require.NotNil(t, other)
	assert.InDelta(t, 0.6, other.PreferenceScore, 1e-9)

	// Unknown region skips the soft filter entirely
	unknown := defaultScorer().ScoreContract(models.Contract{}, models.CompanyProfile{Preferences: preferences})
	require.NotNil(t, unknown)
	assert.InDelta(t, 1.0, unknown.PreferenceScore, 1e-9)
}

func TestPreferenceScore_KeywordBoost(t *testing.T) {
	profile := models.CompanyProfile{
		Preferences: &models.SearchPreference{
			PreferredRegions: []string{"London"},
			Keywords:         []string{"cloud", "migration", "devops"},
		},
	}
	contract := models.Contract{
		Title:       "Cloud Migration Partner",
		Description: "Support migration of legacy workloads",
		Region:      "Wales",
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	// 1.0 * 0.6 (region penalty) + 2 * 0.15 keyword boost
	assert.InDelta(t, 0.9, result.PreferenceScore, 1e-9)
	assert.Contains(t, strings.Join(result.MatchReasons, "; "), "Matches keywords: cloud, migration")
}

func TestPreferenceScore_NoPreferences(t *testing.T) {
	result := defaultScorer().ScoreContract(models.Contract{Title: "Anything"}, models.CompanyProfile{})
	require.NotNil(t, result)
	assert.True(t, result.PassesFilters)
	assert.InDelta(t, 1.0, result.PreferenceScore, 1e-9)
}

func TestTotalScore_WeightedAndBounded(t *testing.T) {
	contract := models.Contract{
		BuyerName: "Kent County Council",
		Value:     200000,
		Region:    "South East",
		Title:     "Cloud platform support",
		Embedding: contractAxis,
	}
	profile := models.CompanyProfile{
		Capabilities: []models.Capability{capabilityWithCosine("cloud support", 1.0)},
		PastWins: []models.PastWin{
			{BuyerName: "Kent County Council", ContractValue: 190000},
			{BuyerName: "Kent County Council", ContractValue: 210000},
		},
		Preferences: &models.SearchPreference{
			PreferredRegions: []string{"South East"},
			Keywords:         []string{"cloud", "platform", "support"},
		},
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)

	// Every component saturates at 1.0 before weighting
	assert.InDelta(t, 1.0, result.CapabilityScore, 1e-9)
	assert.InDelta(t, 1.0, result.PastWinScore, 1e-9)
	assert.InDelta(t, 1.0, result.PreferenceScore, 1e-9)
	assert.InDelta(t, 1.0, result.TotalScore, 1e-9)
	assert.True(t, result.TotalScore >= 0 && result.TotalScore <= 1)
}

func TestTotalScore_NegativeSimilarityClamped(t *testing.T) {
	contract := models.Contract{Embedding: contractAxis}
	profile := models.CompanyProfile{
		Capabilities: []models.Capability{{Text: "opposite", Embedding: []float32{-1, 0}}},
	}

	result := defaultScorer().ScoreContract(contract, profile)
	require.NotNil(t, result)
	assert.Zero(t, result.CapabilityScore)
	assert.True(t, result.TotalScore >= 0)
}

func TestScoreContract_EmptyProfile(t *testing.T) {
	result := defaultScorer().ScoreContract(models.Contract{Title: "Anything"}, models.CompanyProfile{})
	require.NotNil(t, result)
	assert.Zero(t, result.CapabilityScore)
	assert.Zero(t, result.PastWinScore)
	assert.InDelta(t, 0.3, result.TotalScore, 1e-9)
}
