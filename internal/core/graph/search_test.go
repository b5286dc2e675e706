package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/saffron/internal/core/model"
)

type fakeDriver struct {
	QueryExecuted string
	QueryParams   map[string]interface{}
	Result        neo4j.EagerResult
	Err           error
	Calls         int
}

func (f *fakeDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	f.Calls++
	f.QueryExecuted = query
	f.QueryParams = params
	if f.Err != nil {
		return neo4j.EagerResult{}, f.Err
	}
	return f.Result, nil
}

func (f *fakeDriver) BuildIndices(ctx context.Context) error { return nil }
func (f *fakeDriver) Close(ctx context.Context) error        { return nil }

func record(keys []string, values []interface{}) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

var searchKeys = []string{"id", "title", "rating", "prep_time_mins", "cook_time_mins", "matched"}

func TestSearchScoresByIngredientOverlap(t *testing.T) {
	driver := &fakeDriver{
		Result: neo4j.EagerResult{
			Keys: searchKeys,
			Records: []*neo4j.Record{
				record(searchKeys, []interface{}{int64(1), "Chicken Fried Rice", 4.5, int64(10), int64(20), int64(2)}),
				record(searchKeys, []interface{}{int64(2), "Plain Rice", 4.0, int64(5), int64(15), int64(1)}),
			},
		},
	}
	searcher := NewSearcher(driver)

	intent := &model.ParsedIntent{
		IngredientsInclude: []string{"Chicken", "Rice"},
		UseGraph:           true,
	}
	candidates, err := searcher.Search(context.Background(), intent, 20)

	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, int64(1), candidates[0].ID)
	assert.Equal(t, model.SourceGraph, candidates[0].Source)
	assert.Equal(t, 1.0, candidates[0].Score)
	assert.Equal(t, "Chicken Fried Rice", candidates[0].Title)

	assert.Equal(t, 0.5, candidates[1].Score)
}

func TestSearchEmptyIncludeIsNoOp(t *testing.T) {
	driver := &fakeDriver{}
	searcher := NewSearcher(driver)

	candidates, err := searcher.Search(context.Background(), &model.ParsedIntent{UseGraph: true}, 20)

	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, driver.Calls)
}

func TestSearchQueryCarriesConstraints(t *testing.T) {
	driver := &fakeDriver{Result: neo4j.EagerResult{}}
	searcher := NewSearcher(driver)

	intent := &model.ParsedIntent{
		Cuisine:            "Indian",
		Diet:               "Vegetarian",
		MaxPrepTimeMins:    30,
		IngredientsInclude: []string{"Tofu"},
	}
	_, err := searcher.Search(context.Background(), intent, 20)
	require.NoError(t, err)

	assert.Contains(t, driver.QueryExecuted, "HAS_CUISINE")
	assert.Contains(t, driver.QueryExecuted, "HAS_DIET")
	assert.NotContains(t, driver.QueryExecuted, "HAS_COURSE")
	assert.Contains(t, driver.QueryExecuted, "prep_time_mins <= $max_prep_time")

	assert.Equal(t, "Indian", driver.QueryParams["cuisine"])
	assert.Equal(t, "Vegetarian", driver.QueryParams["diet"])
	assert.Equal(t, 30, driver.QueryParams["max_prep_time"])
	assert.Equal(t, []string{"tofu"}, driver.QueryParams["ingredients"])
	assert.Equal(t, 20, driver.QueryParams["limit"])
}

func TestSearchDriverError(t *testing.T) {
	driver := &fakeDriver{Err: errors.New("connection refused")}
	searcher := NewSearcher(driver)

	intent := &model.ParsedIntent{IngredientsInclude: []string{"Rice"}}
	_, err := searcher.Search(context.Background(), intent, 20)

	assert.Error(t, err)
}

func TestSimilarByIngredients(t *testing.T) {
	keys := []string{"id", "title", "rating", "prep_time_mins", "cook_time_mins", "shared_ingredients"}
	driver := &fakeDriver{
		Result: neo4j.EagerResult{
			Keys: keys,
			Records: []*neo4j.Record{
				record(keys, []interface{}{int64(7), "Veg Biryani", 4.2, int64(20), int64(40), int64(4)}),
				record(keys, []interface{}{int64(9), "Pulao", 4.0, int64(15), int64(30), int64(2)}),
			},
		},
	}
	searcher := NewSearcher(driver)

	candidates, err := searcher.SimilarByIngredients(context.Background(), 3, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, 1.0, candidates[0].Score)
	assert.Equal(t, 0.5, candidates[1].Score)
	assert.Equal(t, int64(3), driver.QueryParams["recipe_id"])
}
