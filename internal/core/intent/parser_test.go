package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/agenthands/saffron/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocabulary() model.Vocabulary {
	return model.Vocabulary{
		Cuisines:    []string{"Indian", "Italian", "Mexican"},
		Courses:     []string{"Breakfast", "Dinner", "Dessert"},
		Diets:       []string{"Vegetarian", "Vegan", "Non-Vegetarian"},
		Ingredients: []string{"Chicken", "Rice", "Tofu", "Garlic"},
	}
}

func TestParseStructuredQuery(t *testing.T) {
	mock := &MockLLMClient{Response: `{
		"cuisine": "Indian",
		"diet": "vegetarian",
		"max_prep_time_mins": 30,
		"semantic_query": "quick"
	}`}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "Indian vegetarian quick", testVocabulary())

	assert.Equal(t, "Indian", parsed.Cuisine)
	assert.Equal(t, "Vegetarian", parsed.Diet)
	assert.Equal(t, 30, parsed.MaxPrepTimeMins)
	assert.True(t, parsed.UseRelational)
	assert.True(t, parsed.UseVector)
	assert.False(t, parsed.UseGraph)
}

func TestParseIngredientQuery(t *testing.T) {
	mock := &MockLLMClient{Response: `{
		"ingredients_include": ["chicken", "rice"]
	}`}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "recipes with chicken and rice", testVocabulary())

	assert.Equal(t, []string{"Chicken", "Rice"}, parsed.IngredientsInclude)
	assert.True(t, parsed.UseGraph)
	assert.False(t, parsed.UseRelational)
}

func TestParseRoutingAlwaysSet(t *testing.T) {
	// Model extracted nothing usable: the query must still route somewhere.
	mock := &MockLLMClient{Response: `{}`}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "something tasty", testVocabulary())

	assert.True(t, parsed.UseVector)
	assert.False(t, parsed.UseGraph)
	assert.False(t, parsed.UseRelational)
}

func TestParseDropsOutOfVocabularyAndReroutes(t *testing.T) {
	// Out-of-vocabulary cuisine must be dropped, which also drops the
	// relational path; the leftover residual keeps vector alive.
	mock := &MockLLMClient{Response: `{
		"cuisine": "Atlantean",
		"semantic_query": "hearty stew"
	}`}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "hearty Atlantean stew", testVocabulary())

	assert.Equal(t, "", parsed.Cuisine)
	assert.False(t, parsed.UseRelational)
	assert.True(t, parsed.UseVector)
}

func TestParseDegradesOnLLMError(t *testing.T) {
	mock := &MockLLMClient{Err: errors.New("provider unavailable")}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "spicy noodles", testVocabulary())

	assert.Equal(t, "spicy noodles", parsed.SemanticQuery)
	assert.True(t, parsed.UseVector)
	assert.False(t, parsed.UseGraph)
	assert.False(t, parsed.UseRelational)
}

func TestParseDegradesOnGarbageResponse(t *testing.T) {
	mock := &MockLLMClient{Response: "I am sorry, I cannot help with that."}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "spicy noodles", testVocabulary())

	assert.Equal(t, "spicy noodles", parsed.SemanticQuery)
	assert.True(t, parsed.UseVector)
}

func TestParsePromptCarriesVocabulary(t *testing.T) {
	mock := &MockLLMClient{Response: `{}`}
	parser := NewParser(mock, "")

	parser.Parse(context.Background(), "anything", testVocabulary())

	assert.Contains(t, mock.Prompt, "Cuisines: Indian, Italian, Mexican")
	assert.Contains(t, mock.Prompt, "anything")
}

func TestParseStreamForwardsDeltas(t *testing.T) {
	mock := &MockStreamingLLMClient{
		MockLLMClient: MockLLMClient{Response: `{"semantic_query": "comfort food"}`},
		ChunkSize:     5,
	}
	parser := NewParser(mock, "")

	var streamed string
	parsed := parser.ParseStream(context.Background(), "comfort food", testVocabulary(), func(delta string) {
		streamed += delta
	})

	require.NotNil(t, parsed)
	assert.Equal(t, "comfort food", parsed.SemanticQuery)
	assert.Equal(t, mock.Response, streamed)
}

func TestParseHandlesMarkdownWrappedJSON(t *testing.T) {
	mock := &MockLLMClient{Response: "```json\n{\"cuisine\": \"Italian\"}\n```"}
	parser := NewParser(mock, "")

	parsed := parser.Parse(context.Background(), "pasta", testVocabulary())

	assert.Equal(t, "Italian", parsed.Cuisine)
	assert.True(t, parsed.UseRelational)
}
