// Package rank merges, deduplicates, and orders recipe candidates from the
// database and web stages. Pure and deterministic: the only ordering guarantee
// callers observe comes from here.
package rank

import (
	"sort"

	"github.com/CulinaraAI/culinara-engine/engine/domain"
	"github.com/CulinaraAI/culinara-engine/pkg/fn"
)

// Merge combines database and web candidates into a final ranked list.
//
// Dedup key is the normalized title; when the same recipe appears in both
// sources the database copy wins, since it carries a true similarity score
// rather than a heuristic one. After dedup the list is sorted descending by
// score; ties break database-before-web, then by original discovery order.
// The result is truncated to limit and 1-based ranks are attached.
func Merge(dbCandidates, webCandidates []domain.Candidate, limit int) []domain.Candidate {
	combined := make([]domain.Candidate, 0, len(dbCandidates)+len(webCandidates))
	combined = append(combined, dbCandidates...)
	combined = append(combined, webCandidates...)

	// First occurrence wins; db candidates come first, so cross-source
	// duplicates resolve in the database's favor.
	merged := fn.UniqueBy(combined, func(c domain.Candidate) string {
		return c.NormalizedTitle()
	})

	// Stable sort preserves the db-then-web, discovery-order layout for ties.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}
