package reconcile

import (
	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// Candidate is one previously extracted document.
type Candidate struct {
	ID    string
	Items []entity.ExtractedItem
}

// BestMatchResult names the winning candidate. Result is nil when the
// winner's existence rate is below the configured threshold.
type BestMatchResult struct {
	CandidateID   string
	ExistenceRate float64
	Result        *entity.ComparisonResult
}

// BestMatch ranks candidates by existence rate only and runs the full
// comparison against the single best one. Ties go to the earliest candidate.
// It returns nil when there are no candidates.
func (e *Engine) BestMatch(doc []entity.ExtractedItem, candidates []Candidate) *BestMatchResult {
	if len(candidates) == 0 {
		return nil
	}
	idx := buildIndex(doc)
	best, bestRate := -1, -1.0
	for i, c := range candidates {
		rate := existenceRate(idx, buildIndex(c.Items))
		if rate > bestRate {
			best, bestRate = i, rate
		}
	}

	out := &BestMatchResult{CandidateID: candidates[best].ID, ExistenceRate: bestRate}
	if bestRate < e.cfg.BestMatchThreshold {
		e.logger.Info("reconcile.best_match.below_threshold",
			"candidate", out.CandidateID, "existence_rate", bestRate, "threshold", e.cfg.BestMatchThreshold)
		return out
	}
	out.Result = e.Compare(doc, candidates[best].Items)
	return out
}
