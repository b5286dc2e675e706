// Package fusion merges per-path candidate lists into one deduplicated,
// ranked result list. Fuse is pure: same inputs, same output, regardless of
// list order.
package fusion

import (
	"sort"

	"github.com/agenthands/saffron/internal/core/model"
)

// DefaultSourceBonus is the score added per extra agreeing source; the
// [search] source_bonus config value overrides it.
const DefaultSourceBonus = 0.15

// Fuse groups candidates by recipe id, unions their source tags, and scores
// each group as the best path-local score plus bonus per additional
// distinct source, capped at 1.0. Ties break by rating, then vote count,
// then id, so output order is fully deterministic. Truncates to limit when
// limit > 0.
func Fuse(lists [][]model.RecipeCandidate, limit int, bonus float64) []model.FusedResult {
	type group struct {
		recipe    model.Recipe
		bestScore float64
		sources   map[string]bool
		fullRow   bool
	}

	groups := make(map[int64]*group)
	for _, list := range lists {
		for _, c := range list {
			g, ok := groups[c.ID]
			if !ok {
				g = &group{recipe: c.Recipe, sources: make(map[string]bool)}
				groups[c.ID] = g
			}
			// Prefer the full relational row for display attributes; graph
			// candidates carry only the node properties.
			if !g.fullRow && c.Source != model.SourceGraph {
				g.recipe = c.Recipe
				g.fullRow = true
			}
			g.sources[c.Source] = true
			if c.Score > g.bestScore {
				g.bestScore = c.Score
			}
		}
	}

	results := make([]model.FusedResult, 0, len(groups))
	for _, g := range groups {
		score := g.bestScore + bonus*float64(len(g.sources)-1)
		if score > 1 {
			score = 1
		}

		sources := make([]string, 0, len(g.sources))
		for _, s := range []string{model.SourceGraph, model.SourceRelational, model.SourceVector} {
			if g.sources[s] {
				sources = append(sources, s)
			}
		}

		results = append(results, model.FusedResult{
			Recipe:     g.recipe,
			Sources:    sources,
			FinalScore: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		return a.ID < b.ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
