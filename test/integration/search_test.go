//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/saffron/internal/config"
	"github.com/agenthands/saffron/internal/core"
	"github.com/agenthands/saffron/internal/core/graph"
	"github.com/agenthands/saffron/internal/core/hybrid"
	"github.com/agenthands/saffron/internal/core/intent"
	"github.com/agenthands/saffron/internal/driver"
	"github.com/agenthands/saffron/internal/llm"
	"github.com/agenthands/saffron/internal/store"
)

// setupEngine wires the full pipeline against live Neo4j, Postgres, and an
// LLM provider. Requires a seeded recipe dataset in both stores.
func setupEngine(t *testing.T) (*core.Engine, func()) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	cfg, err := config.Load("../../config/config.toml")
	if err != nil {
		t.Logf("Config not found, using default: %v", err)
		cfg = config.Default()
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.Neo4j.URI = uri
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.Neo4j.Password = pass
	}
	if pass := os.Getenv("POSTGRES_PASSWORD"); pass != "" {
		cfg.Postgres.Password = pass
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
	}

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
	require.NoError(t, err)

	st, err := store.Open(cfg.Postgres.DSN(), cfg.Search.MaxVocabIngredients)
	require.NoError(t, err)

	ctx := context.Background()
	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	engine := core.NewEngine(
		graph.NewSearcher(d),
		hybrid.NewSearcher(st, embedder),
		intent.NewParser(llmClient, cfg.Prompts.Intent),
		st,
		st,
		cfg.Search,
	)
	require.NoError(t, engine.LoadVocabulary(ctx))

	cleanup := func() {
		_ = d.Close(context.Background())
		_ = st.Close()
	}
	return engine, cleanup
}

func TestSearchEndToEnd(t *testing.T) {
	engine, cleanup := setupEngine(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := engine.Search(ctx, "quick Indian vegetarian dinner with rice", 10)
	require.NoError(t, err)
	require.NotNil(t, resp)

	t.Logf("routing: %v", resp.Routing)
	t.Logf("breakdown: %v", resp.SourceBreakdown)
	require.NotEmpty(t, resp.Results, "seeded dataset should match this query")

	for _, r := range resp.Results {
		require.NotZero(t, r.ID)
		require.NotEmpty(t, r.Sources)
		require.GreaterOrEqual(t, r.FinalScore, 0.0)
		require.LessOrEqual(t, r.FinalScore, 1.0)
	}
}

func TestSearchStreamEndToEnd(t *testing.T) {
	engine, cleanup := setupEngine(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var stages []core.Stage
	var final *core.Event
	for ev := range engine.SearchStream(ctx, "chicken curry", 5) {
		if ev.Delta != "" {
			continue
		}
		stages = append(stages, ev.Stage)
		if ev.Stage == core.StageComplete {
			final = &ev
		}
	}

	require.NotEmpty(t, stages)
	require.Equal(t, core.StageReasoning, stages[0])
	require.Equal(t, core.StageComplete, stages[len(stages)-1])
	require.NotNil(t, final)
	require.NotNil(t, final.Response)
}

func TestVocabularyRefresh(t *testing.T) {
	engine, cleanup := setupEngine(t)
	defer cleanup()

	v, err := engine.RefreshVocabulary(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, v.Ingredients)
	require.Equal(t, v.Cuisines, engine.Vocabulary().Cuisines)
}
