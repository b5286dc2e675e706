// Package core orchestrates one search query through intent extraction,
// routed retrieval, and fusion, reporting progress in stages.
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/saffron/internal/config"
	"github.com/agenthands/saffron/internal/core/fusion"
	"github.com/agenthands/saffron/internal/core/model"
	"github.com/agenthands/saffron/internal/core/vocab"
)

// broadenedQualifier is appended to the original query for the one-shot
// retry after an empty first attempt.
const broadenedQualifier = "popular highly rated dishes"

type GraphSearcher interface {
	Search(ctx context.Context, intent *model.ParsedIntent, limit int) ([]model.RecipeCandidate, error)
}

type HybridSearcher interface {
	Search(ctx context.Context, intent *model.ParsedIntent, rawQuery string, limit int) ([]model.RecipeCandidate, error)
}

type IntentParser interface {
	ParseStream(ctx context.Context, query string, v model.Vocabulary, onDelta func(string)) *model.ParsedIntent
}

// RecipeLoader backfills full display rows for graph-path candidates.
type RecipeLoader interface {
	RecipesByIDs(ctx context.Context, ids []int64) (map[int64]model.Recipe, error)
}

type Engine struct {
	Graph  GraphSearcher
	Hybrid HybridSearcher
	Parser IntentParser
	Loader RecipeLoader

	cfg         config.SearchConfig
	vocabSource vocab.Source

	mu         sync.RWMutex
	vocabulary model.Vocabulary
}

func NewEngine(graph GraphSearcher, hybrid HybridSearcher, parser IntentParser, loader RecipeLoader, src vocab.Source, cfg config.SearchConfig) *Engine {
	return &Engine{
		Graph:       graph,
		Hybrid:      hybrid,
		Parser:      parser,
		Loader:      loader,
		cfg:         cfg,
		vocabSource: src,
	}
}

// LoadVocabulary fills the snapshot from the file cache or the store.
// Called once at startup.
func (e *Engine) LoadVocabulary(ctx context.Context) error {
	v, err := vocab.Ensure(ctx, e.vocabSource, e.cfg.VocabCachePath)
	if err != nil {
		return err
	}
	e.SetVocabulary(v)
	return nil
}

// RefreshVocabulary re-reads the store, swaps the snapshot, and rewrites
// the cache.
func (e *Engine) RefreshVocabulary(ctx context.Context) (model.Vocabulary, error) {
	v, err := e.vocabSource.Vocabulary(ctx)
	if err != nil {
		return model.Vocabulary{}, fmt.Errorf("failed to refresh vocabulary: %w", err)
	}
	if err := vocab.Save(e.cfg.VocabCachePath, v); err != nil {
		log.Printf("Warning: could not cache refreshed vocabulary: %v", err)
	}
	e.SetVocabulary(v)
	return v, nil
}

func (e *Engine) SetVocabulary(v model.Vocabulary) {
	e.mu.Lock()
	e.vocabulary = v
	e.mu.Unlock()
}

func (e *Engine) Vocabulary() model.Vocabulary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vocabulary
}

// Search runs the full pipeline and blocks until the fused list is ready.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*model.SearchResponse, error) {
	return e.run(ctx, query, limit, func(Event) {})
}

// SearchStream runs the pipeline in the background and reports progress on
// the returned channel, closed when the query terminates. Events stop when
// ctx is cancelled (client disconnect); in-flight retrievals finish or are
// abandoned on their own timeouts.
func (e *Engine) SearchStream(ctx context.Context, query string, limit int) <-chan Event {
	events := make(chan Event, 64)
	go func() {
		defer close(events)
		emit := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		_, _ = e.run(ctx, query, limit, emit)
	}()
	return events
}

func (e *Engine) run(ctx context.Context, query string, limit int, emit func(Event)) (*model.SearchResponse, error) {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	queryID := uuid.NewString()

	resp, err := e.attempt(ctx, queryID, 1, query, limit, emit)
	if err != nil {
		emit(Event{Stage: StageError, QueryID: queryID, Attempt: 1, Error: err.Error()})
		return nil, err
	}

	// An empty first attempt gets exactly one broadened re-run; a second
	// empty result is final.
	if len(resp.Results) == 0 {
		broadened := strings.TrimSpace(query) + " " + broadenedQualifier
		retry, retryErr := e.attempt(ctx, queryID, 2, broadened, limit, emit)
		if retryErr != nil {
			log.Printf("broadened retry failed, keeping empty first result: %v", retryErr)
		} else {
			retry.Query = query
			retry.Retried = true
			resp = retry
		}
	}

	emit(Event{Stage: StageComplete, QueryID: queryID, Response: resp})
	return resp, nil
}

func (e *Engine) attempt(ctx context.Context, queryID string, attempt int, query string, limit int, emit func(Event)) (*model.SearchResponse, error) {
	vocabulary := e.Vocabulary()

	emit(Event{Stage: StageReasoning, QueryID: queryID, Attempt: attempt})

	llmCtx, cancelLLM := context.WithTimeout(ctx, time.Duration(e.cfg.LLMTimeoutSecs)*time.Second)
	parsed := e.Parser.ParseStream(llmCtx, query, vocabulary, func(delta string) {
		emit(Event{Stage: StageReasoning, QueryID: queryID, Attempt: attempt, Delta: delta})
	})
	cancelLLM()

	emit(Event{Stage: StageParsing, QueryID: queryID, Attempt: attempt})

	routing := routingExplanation(parsed)
	emit(Event{Stage: StageQuerying, QueryID: queryID, Attempt: attempt, Intent: parsed, Routing: routing})

	type pathResult struct {
		name       string
		candidates []model.RecipeCandidate
		err        error
	}

	paths := 0
	results := make(chan pathResult, 2)

	if parsed.UseGraph {
		paths++
		go func() {
			pathCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.GraphTimeoutSecs)*time.Second)
			defer cancel()
			candidates, err := e.Graph.Search(pathCtx, parsed, limit)
			results <- pathResult{name: "graph", candidates: candidates, err: err}
		}()
	}
	if parsed.UseRelational || parsed.UseVector {
		paths++
		go func() {
			pathCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.StoreTimeoutSecs)*time.Second)
			defer cancel()
			candidates, err := e.Hybrid.Search(pathCtx, parsed, query, limit)
			results <- pathResult{name: "relational+vector", candidates: candidates, err: err}
		}()
	}

	var lists [][]model.RecipeCandidate
	var graphCandidates []model.RecipeCandidate
	hardFailures := 0
	var firstErr error
	for i := 0; i < paths; i++ {
		r := <-results
		if r.err != nil {
			// A path timeout degrades to zero candidates; other failures
			// count toward total failure.
			if errors.Is(r.err, context.DeadlineExceeded) {
				log.Printf("%s path timed out: %v", r.name, r.err)
				routing = append(routing, fmt.Sprintf("%s path timed out and contributed no results", r.name))
			} else {
				log.Printf("%s path failed: %v", r.name, r.err)
				routing = append(routing, fmt.Sprintf("%s path was unavailable", r.name))
				hardFailures++
				if firstErr == nil {
					firstErr = r.err
				}
			}
			continue
		}
		if r.name == "graph" {
			graphCandidates = r.candidates
		}
		lists = append(lists, r.candidates)
	}

	if paths > 0 && hardFailures == paths {
		return nil, fmt.Errorf("all retrieval paths failed: %w", firstErr)
	}

	e.enrichGraphCandidates(ctx, graphCandidates)

	fused := fusion.Fuse(lists, limit, e.cfg.SourceBonus)
	return &model.SearchResponse{
		Query:           query,
		Intent:          *parsed,
		Results:         fused,
		SourceBreakdown: model.Breakdown(fused),
		Routing:         routing,
	}, nil
}

// enrichGraphCandidates backfills full display rows for candidates that
// only carry graph node properties. Failure here degrades the display, not
// the result set.
func (e *Engine) enrichGraphCandidates(ctx context.Context, candidates []model.RecipeCandidate) {
	if len(candidates) == 0 || e.Loader == nil {
		return
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	loadCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.StoreTimeoutSecs)*time.Second)
	defer cancel()
	rows, err := e.Loader.RecipesByIDs(loadCtx, ids)
	if err != nil {
		log.Printf("could not backfill graph results: %v", err)
		return
	}

	for i := range candidates {
		if full, ok := rows[candidates[i].ID]; ok {
			candidates[i].Recipe = full
		}
	}
}

// routingExplanation renders the human-readable account of which paths run
// and why.
func routingExplanation(intent *model.ParsedIntent) []string {
	var explanations []string

	if intent.UseGraph {
		explanations = append(explanations, fmt.Sprintf(
			"graph: searching for recipes with %s", strings.Join(intent.IngredientsInclude, ", ")))
	}

	var filters []string
	if intent.Cuisine != "" {
		filters = append(filters, "cuisine="+intent.Cuisine)
	}
	if intent.Diet != "" {
		filters = append(filters, "diet="+intent.Diet)
	}
	if intent.Course != "" {
		filters = append(filters, "course="+intent.Course)
	}
	if intent.MaxPrepTimeMins > 0 {
		filters = append(filters, fmt.Sprintf("prep<=%dmin", intent.MaxPrepTimeMins))
	}
	if intent.MaxCookTimeMins > 0 {
		filters = append(filters, fmt.Sprintf("cook<=%dmin", intent.MaxCookTimeMins))
	}

	switch {
	case intent.UseRelational && intent.UseVector:
		filterStr := ""
		if len(filters) > 0 {
			filterStr = fmt.Sprintf(" (%s)", strings.Join(filters, ", "))
		}
		explanations = append(explanations, fmt.Sprintf(
			"relational+vector: hybrid search combining filters%s with semantic similarity", filterStr))
	case intent.UseVector:
		target := intent.SemanticQuery
		if target == "" {
			target = "the raw query"
		} else {
			target = "'" + target + "'"
		}
		explanations = append(explanations, "vector: semantic search for "+target)
	case intent.UseRelational:
		filterStr := "structured filters"
		if len(filters) > 0 {
			filterStr = strings.Join(filters, ", ")
		}
		explanations = append(explanations, "relational: filtering by "+filterStr)
	}

	if len(explanations) == 0 {
		explanations = append(explanations, "default: semantic search over the raw query")
	}
	return explanations
}
