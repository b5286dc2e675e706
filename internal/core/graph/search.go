// Package graph builds and runs the ingredient-graph retrieval path.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/saffron/internal/core/model"
	"github.com/agenthands/saffron/internal/driver"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Searcher struct {
	Driver driver.GraphDriver
}

func NewSearcher(d driver.GraphDriver) *Searcher {
	return &Searcher{Driver: d}
}

// Search traverses from each included ingredient back to recipes and scores
// every hit by requested-ingredient overlap: matched/requested, in (0,1].
// Recipes matching none of the requested ingredients never appear. An empty
// include set is a no-op, not an error.
func (s *Searcher) Search(ctx context.Context, intent *model.ParsedIntent, limit int) ([]model.RecipeCandidate, error) {
	if len(intent.IngredientsInclude) == 0 {
		return nil, nil
	}

	query, params := buildSearchQuery(intent, limit)

	result, err := s.Driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("graph search failed: %w", err)
	}

	requested := float64(len(intent.IngredientsInclude))
	var candidates []model.RecipeCandidate
	for _, record := range result.Records {
		c := model.RecipeCandidate{Source: model.SourceGraph}
		c.ID = asInt64(value(record, "id"))
		c.Title = asString(value(record, "title"))
		c.Rating = asFloat64(value(record, "rating"))
		c.PrepTimeMins = int(asInt64(value(record, "prep_time_mins")))
		c.CookTimeMins = int(asInt64(value(record, "cook_time_mins")))
		matched := float64(asInt64(value(record, "matched")))
		c.Score = matched / requested
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// buildSearchQuery assembles the traversal Cypher from the intent. The
// ingredient match is case-insensitive containment; cuisine/diet/course and
// time bounds constrain the recipe when set.
func buildSearchQuery(intent *model.ParsedIntent, limit int) (string, map[string]interface{}) {
	params := map[string]interface{}{
		"ingredients": lowered(intent.IngredientsInclude),
		"limit":       limit,
	}

	var conditions []string
	if intent.Cuisine != "" {
		conditions = append(conditions, "EXISTS { MATCH (r)-[:HAS_CUISINE]->(:Cuisine {name: $cuisine}) }")
		params["cuisine"] = intent.Cuisine
	}
	if intent.Diet != "" {
		conditions = append(conditions, "EXISTS { MATCH (r)-[:HAS_DIET]->(:Diet {name: $diet}) }")
		params["diet"] = intent.Diet
	}
	if intent.Course != "" {
		conditions = append(conditions, "EXISTS { MATCH (r)-[:HAS_COURSE]->(:Course {name: $course}) }")
		params["course"] = intent.Course
	}
	if intent.MaxPrepTimeMins > 0 {
		conditions = append(conditions, "r.prep_time_mins <= $max_prep_time")
		params["max_prep_time"] = intent.MaxPrepTimeMins
	}
	if intent.MaxCookTimeMins > 0 {
		conditions = append(conditions, "r.cook_time_mins <= $max_cook_time")
		params["max_cook_time"] = intent.MaxCookTimeMins
	}

	var sb strings.Builder
	sb.WriteString(`
		UNWIND $ingredients AS ing
		MATCH (r:Recipe)-[:CONTAINS]->(i:Ingredient)
		WHERE toLower(i.name) CONTAINS ing`)
	for _, cond := range conditions {
		sb.WriteString("\n\t\t  AND ")
		sb.WriteString(cond)
	}
	sb.WriteString(`
		WITH r, count(DISTINCT ing) AS matched
		RETURN r.id AS id, r.title AS title, r.rating AS rating,
		       r.prep_time_mins AS prep_time_mins, r.cook_time_mins AS cook_time_mins,
		       matched
		ORDER BY matched DESC, r.rating DESC
		LIMIT $limit`)

	return sb.String(), params
}

// SimilarByIngredients finds recipes sharing ingredients with the given
// one, most-shared first.
func (s *Searcher) SimilarByIngredients(ctx context.Context, recipeID int64, limit int) ([]model.RecipeCandidate, error) {
	result, err := s.Driver.ExecuteQuery(ctx, driver.SimilarByIngredientsQuery, map[string]interface{}{
		"recipe_id": recipeID,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("similar recipes query failed: %w", err)
	}

	var candidates []model.RecipeCandidate
	maxShared := 1.0
	if len(result.Records) > 0 {
		if shared := asInt64(value(result.Records[0], "shared_ingredients")); shared > 0 {
			maxShared = float64(shared)
		}
	}
	for _, record := range result.Records {
		c := model.RecipeCandidate{Source: model.SourceGraph}
		c.ID = asInt64(value(record, "id"))
		c.Title = asString(value(record, "title"))
		c.Rating = asFloat64(value(record, "rating"))
		c.PrepTimeMins = int(asInt64(value(record, "prep_time_mins")))
		c.CookTimeMins = int(asInt64(value(record, "cook_time_mins")))
		c.Score = float64(asInt64(value(record, "shared_ingredients"))) / maxShared
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func value(record *neo4j.Record, key string) interface{} {
	v, _ := record.Get(key)
	return v
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
