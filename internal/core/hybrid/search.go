// Package hybrid runs the combined relational+vector retrieval path: one
// store query joining the structured predicate with an optional
// nearest-neighbor ordering over recipe embeddings.
package hybrid

import (
	"context"
	"fmt"
	"log"

	"github.com/agenthands/saffron/internal/core/common"
	"github.com/agenthands/saffron/internal/core/model"
	"github.com/agenthands/saffron/internal/llm"
	"github.com/agenthands/saffron/internal/store"
)

// RecipeStore is the slice of the store this path needs.
type RecipeStore interface {
	SearchFiltered(ctx context.Context, intent *model.ParsedIntent, limit int) ([]store.RecipeRow, error)
	SearchByEmbedding(ctx context.Context, intent *model.ParsedIntent, embedding []float32, limit int) ([]store.RecipeRow, error)
}

type Searcher struct {
	Store    RecipeStore
	Embedder llm.EmbedderClient
}

func NewSearcher(s RecipeStore, embedder llm.EmbedderClient) *Searcher {
	return &Searcher{Store: s, Embedder: embedder}
}

// Search executes the path. With a vector flag, the semantic residual (or
// the raw query text when extraction produced none) is embedded and results
// are similarity-ordered; each row yields a vector candidate and, when the
// structured predicate contributed, a relational candidate too. Embedding
// failure falls back to the relational-only filter instead of failing the
// path.
func (s *Searcher) Search(ctx context.Context, intent *model.ParsedIntent, rawQuery string, limit int) ([]model.RecipeCandidate, error) {
	if intent.UseVector {
		text := intent.SemanticQuery
		if text == "" {
			text = rawQuery
		}

		embedding, err := s.embed(ctx, text)
		if err != nil {
			log.Printf("embedding unavailable, degrading to relational-only search: %v", err)
		} else {
			rows, err := s.Store.SearchByEmbedding(ctx, intent, embedding, limit)
			if err != nil {
				return nil, fmt.Errorf("vector search failed: %w", err)
			}
			return s.vectorCandidates(rows, intent), nil
		}
	}

	if !intent.UseRelational && !intent.UseVector {
		return nil, nil
	}

	rows, err := s.Store.SearchFiltered(ctx, intent, limit)
	if err != nil {
		return nil, fmt.Errorf("relational search failed: %w", err)
	}

	candidates := make([]model.RecipeCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, model.RecipeCandidate{
			Recipe: row.Recipe,
			Source: model.SourceRelational,
			Score:  1.0,
		})
	}
	return candidates, nil
}

func (s *Searcher) embed(ctx context.Context, text string) ([]float32, error) {
	if s.Embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	return s.Embedder.Embed(ctx, text)
}

// vectorCandidates converts similarity-ordered rows. Cosine distance lies
// in [0,2]; similarity is 1-distance clamped to [0,1], so orthogonal and
// worse both read as zero relevance. Rows also produce a relational
// candidate when structured filters shaped the predicate, which lets fusion
// credit rows that satisfied both criteria.
func (s *Searcher) vectorCandidates(rows []store.RecipeRow, intent *model.ParsedIntent) []model.RecipeCandidate {
	filtered := intent.HasStructuredFilter()

	var candidates []model.RecipeCandidate
	for _, row := range rows {
		similarity := 0.5
		if row.Distance.Valid {
			similarity = common.Clamp01(1 - row.Distance.Float64)
		}
		candidates = append(candidates, model.RecipeCandidate{
			Recipe: row.Recipe,
			Source: model.SourceVector,
			Score:  similarity,
		})
		if filtered {
			candidates = append(candidates, model.RecipeCandidate{
				Recipe: row.Recipe,
				Source: model.SourceRelational,
				Score:  1.0,
			})
		}
	}
	return candidates
}
