package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/saffron/internal/core/model"
)

func TestBuildPredicateEmpty(t *testing.T) {
	where, args := buildPredicate(&model.ParsedIntent{})

	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)
}

func TestBuildPredicateAllFilters(t *testing.T) {
	intent := &model.ParsedIntent{
		Cuisine:         "Indian",
		Diet:            "Vegetarian",
		Course:          "Dinner",
		MaxPrepTimeMins: 30,
		MaxCookTimeMins: 45,
	}

	where, args := buildPredicate(intent)

	assert.Equal(t,
		"cuisine = $1 AND diet = $2 AND course = $3 AND prep_time_mins <= $4 AND cook_time_mins <= $5",
		where)
	assert.Equal(t, []interface{}{"Indian", "Vegetarian", "Dinner", 30, 45}, args)
}

func TestBuildPredicateExcludesIngredients(t *testing.T) {
	intent := &model.ParsedIntent{
		Diet:               "Vegan",
		IngredientsExclude: []string{"Peanuts", "Shrimp"},
	}

	where, args := buildPredicate(intent)

	require.Len(t, args, 3)
	assert.Contains(t, where, "diet = $1")
	assert.Contains(t, where, "NOT EXISTS (SELECT 1 FROM unnest(ingredients) AS ing WHERE ing ILIKE $2)")
	assert.Contains(t, where, "ing ILIKE $3")
	// Excludes match as case-insensitive substrings of array entries.
	assert.Equal(t, "%Peanuts%", args[1])
	assert.Equal(t, "%Shrimp%", args[2])
}

func TestBuildPredicateSkipsZeroTimes(t *testing.T) {
	where, args := buildPredicate(&model.ParsedIntent{Cuisine: "Thai"})

	assert.Equal(t, "cuisine = $1", where)
	assert.Equal(t, []interface{}{"Thai"}, args)
	assert.NotContains(t, where, "prep_time_mins")
	assert.NotContains(t, where, "cook_time_mins")
}
