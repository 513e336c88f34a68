package match

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"contract-discovery/internal/chromemdb"
	"contract-discovery/internal/models"
	"contract-discovery/internal/scoring"
)

// VectorLookup resolves a stored embedding by collection and point ID.
// Satisfied by chromemdb.VectorDBManager.
type VectorLookup interface {
	Vector(ctx context.Context, collectionName, id string) ([]float32, error)
}

// Matcher runs the match pipeline: resolve stored embeddings for the
// profile and the candidate contracts, score every contract against the
// profile, drop hard-filtered ones and rank the rest.
type Matcher struct {
	scorer  *scoring.Scorer
	vectors VectorLookup
}

func NewMatcher(scorer *scoring.Scorer, vectors VectorLookup) *Matcher {
	return &Matcher{scorer: scorer, vectors: vectors}
}

// MatchContracts scores the candidates against the profile and returns
// them ranked by total score, highest first. Contracts excluded by a
// hard filter are omitted. Scoring is side-effect free, so the batch is
// scored concurrently with one worker per CPU.
func (m *Matcher) MatchContracts(ctx context.Context, profile models.CompanyProfile, contracts []models.Contract) ([]models.MatchedContract, error) {
	resolved, err := m.resolveProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	results := make([]*models.MatchResult, len(contracts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := runtime.NumCPU()
	if workers > len(contracts) {
		workers = len(contracts)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				contract := m.resolveContract(ctx, contracts[i])
				results[i] = m.scorer.ScoreContract(contract, resolved)
			}
		}()
	}
	for i := range contracts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var matched []models.MatchedContract
	for i, result := range results {
		if result == nil {
			continue
		}
		matched = append(matched, models.MatchedContract{
			Contract: contracts[i],
			Result:   *result,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Result.TotalScore > matched[j].Result.TotalScore
	})

	log.Info().
		Int("candidates", len(contracts)).
		Int("matched", len(matched)).
		Str("firm_id", profile.FirmID).
		Msg("Matched contracts")
	return matched, nil
}

// resolveProfile fills in capability embeddings from the vector store.
// A capability whose vector cannot be resolved is kept without an
// embedding and simply contributes nothing to the capability score.
func (m *Matcher) resolveProfile(ctx context.Context, profile models.CompanyProfile) (models.CompanyProfile, error) {
	for i := range profile.Capabilities {
		capability := &profile.Capabilities[i]
		if len(capability.Embedding) > 0 || capability.VectorID == "" {
			continue
		}
		vector, err := m.vectors.Vector(ctx, chromemdb.CollectionCapabilities, capability.VectorID)
		if err != nil {
			log.Warn().Err(err).Str("vector_id", capability.VectorID).Msg("Failed to resolve capability vector")
			continue
		}
		capability.Embedding = vector
	}
	return profile, nil
}

func (m *Matcher) resolveContract(ctx context.Context, contract models.Contract) models.Contract {
	if len(contract.Embedding) > 0 || contract.VectorID == "" {
		return contract
	}
	vector, err := m.vectors.Vector(ctx, chromemdb.CollectionContracts, contract.VectorID)
	if err != nil {
		log.Warn().Err(err).Str("notice_id", contract.NoticeID).Str("vector_id", contract.VectorID).Msg("Failed to resolve contract vector")
		return contract
	}
	contract.Embedding = vector
	return contract
}
