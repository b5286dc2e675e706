package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/saffron/internal/config"
	"github.com/agenthands/saffron/internal/core"
	"github.com/agenthands/saffron/internal/core/graph"
	"github.com/agenthands/saffron/internal/core/hybrid"
	"github.com/agenthands/saffron/internal/core/intent"
	"github.com/agenthands/saffron/internal/driver"
	"github.com/agenthands/saffron/internal/llm"
	"github.com/agenthands/saffron/internal/store"
)

type Server struct {
	Engine *core.Engine
	Graph  *graph.Searcher
	Store  *store.Store
	Config *config.Config
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}
	applyEnvOverrides(cfg)

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	if err := d.BuildIndices(context.Background()); err != nil {
		log.Printf("Warning: could not build graph indices: %v", err)
	}

	st, err := store.Open(cfg.Postgres.DSN(), cfg.Search.MaxVocabIngredients)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	llmClient, embedderClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	graphSearcher := graph.NewSearcher(d)
	engine := core.NewEngine(
		graphSearcher,
		hybrid.NewSearcher(st, embedderClient),
		intent.NewParser(llmClient, cfg.Prompts.Intent),
		st,
		st,
		cfg.Search,
	)
	if err := engine.LoadVocabulary(context.Background()); err != nil {
		log.Fatalf("Failed to load controlled vocabulary: %v", err)
	}

	return &Server{
		Engine: engine,
		Graph:  graphSearcher,
		Store:  st,
		Config: cfg,
	}
}

func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		cfg.Neo4j.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.POST("/search", s.Search)
	r.GET("/search/stream", s.SearchStream)
	r.GET("/recipes/:id", s.GetRecipe)
	r.GET("/recipes/:id/similar", s.SimilarRecipes)
	r.GET("/vocabulary", s.GetVocabulary)
	r.POST("/vocabulary/refresh", s.RefreshVocabulary)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Recipe search API is running"})
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	resp, err := s.Engine.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		log.Printf("Search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchStream serves the staged protocol over SSE: reasoning deltas, one
// querying event with intent and routing, then complete with results.
func (s *Server) SearchStream(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	events := s.Engine.SearchStream(c.Request.Context(), query, limit)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(string(ev.Stage), ev)
		return true
	})
}

func (s *Server) GetRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe id"})
		return
	}

	recipe, err := s.Store.RecipeByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		log.Printf("Recipe lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recipe"})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (s *Server) SimilarRecipes(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	similar, err := s.Graph.SimilarByIngredients(c.Request.Context(), id, limit)
	if err != nil {
		log.Printf("Similar recipes lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find similar recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": similar})
}

func (s *Server) GetVocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.Vocabulary())
}

func (s *Server) RefreshVocabulary(c *gin.Context) {
	v, err := s.Engine.RefreshVocabulary(c.Request.Context())
	if err != nil {
		log.Printf("Vocabulary refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh vocabulary"})
		return
	}
	c.JSON(http.StatusOK, v)
}
