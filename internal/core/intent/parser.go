package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/agenthands/saffron/internal/core/common"
	"github.com/agenthands/saffron/internal/core/model"
	"github.com/agenthands/saffron/internal/core/vocab"
	"github.com/agenthands/saffron/internal/llm"
)

// DefaultPrompt is used when no [prompts] intent override is configured.
// Substitutions: %s vocabulary constraint block, %s user query.
const DefaultPrompt = `You are a query parser for a recipe search system. Extract structured filters and semantic meaning from the user's query.

Extract:
- cuisine: specific cuisine type - exact match against the controlled values
- diet: dietary restriction - exact match against the controlled values
- course: meal type - exact match against the controlled values
- max_prep_time_mins: maximum prep time in minutes (interpret "quick" as 30, "fast" as 20)
- max_cook_time_mins: maximum cook time in minutes
- ingredients_include: ingredients that must be present, resolved to controlled ingredient names
- ingredients_exclude: ingredients to avoid, resolved to controlled ingredient names
- semantic_query: the fuzzy conceptual part ("comfort food", "healthy", "easy"), empty if none

%s

Respond with a single valid JSON object and nothing else.

Parse this recipe search query: %s`

// rawIntent is the model's JSON before vocabulary grounding.
type rawIntent struct {
	Cuisine            string   `json:"cuisine"`
	Diet               string   `json:"diet"`
	Course             string   `json:"course"`
	MaxPrepTimeMins    int      `json:"max_prep_time_mins"`
	MaxCookTimeMins    int      `json:"max_cook_time_mins"`
	IngredientsInclude []string `json:"ingredients_include"`
	IngredientsExclude []string `json:"ingredients_exclude"`
	SemanticQuery      string   `json:"semantic_query"`
}

type Parser struct {
	LLM              llm.LLMClient
	Prompt           string
	IngredientPrompt int // max ingredient names shown to the model
}

func NewParser(llmClient llm.LLMClient, prompt string) *Parser {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Parser{
		LLM:              llmClient,
		Prompt:           prompt,
		IngredientPrompt: 40,
	}
}

// Parse turns raw query text into a ParsedIntent grounded on the
// vocabulary. Extraction failures never fail the query: the result degrades
// to a vector-only search over the raw text.
func (p *Parser) Parse(ctx context.Context, query string, v model.Vocabulary) *model.ParsedIntent {
	return p.ParseStream(ctx, query, v, nil)
}

// ParseStream is Parse with the model's raw output forwarded incrementally
// through onDelta when the provider supports streaming.
func (p *Parser) ParseStream(ctx context.Context, query string, v model.Vocabulary, onDelta func(string)) *model.ParsedIntent {
	prompt := fmt.Sprintf(p.Prompt, vocab.FormatForPrompt(v, p.IngredientPrompt), query)

	var response string
	var err error
	if streamer, ok := p.LLM.(llm.StreamingLLMClient); ok && onDelta != nil {
		response, err = streamer.GenerateStream(ctx, prompt, onDelta)
	} else {
		response, err = p.LLM.Generate(ctx, prompt)
	}
	if err != nil {
		log.Printf("intent extraction failed, falling back to vector-only search: %v", err)
		return model.VectorOnly(query)
	}

	raw, err := common.ParseJSON[rawIntent](response)
	if err != nil {
		log.Printf("intent response unparseable, falling back to vector-only search: %v", err)
		return model.VectorOnly(query)
	}

	parsed := &model.ParsedIntent{
		Cuisine:            strings.TrimSpace(raw.Cuisine),
		Diet:               strings.TrimSpace(raw.Diet),
		Course:             strings.TrimSpace(raw.Course),
		IngredientsInclude: raw.IngredientsInclude,
		IngredientsExclude: raw.IngredientsExclude,
		SemanticQuery:      strings.TrimSpace(raw.SemanticQuery),
	}
	if raw.MaxPrepTimeMins > 0 {
		parsed.MaxPrepTimeMins = raw.MaxPrepTimeMins
	}
	if raw.MaxCookTimeMins > 0 {
		parsed.MaxCookTimeMins = raw.MaxCookTimeMins
	}

	// Ground on the vocabulary first, then derive routing: a dropped
	// out-of-vocabulary field must also drop its path.
	vocab.Apply(parsed, v)
	parsed.DeriveRouting()

	return parsed
}
