package server

import (
	"context"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/airwatch/internal/cache"
	"github.com/agenthands/airwatch/internal/config"
	"github.com/agenthands/airwatch/internal/engine"
	"github.com/agenthands/airwatch/internal/llm"
	"github.com/agenthands/airwatch/internal/render"
	"github.com/agenthands/airwatch/internal/route"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/session"
	"github.com/agenthands/airwatch/internal/store"
	"github.com/agenthands/airwatch/internal/temporal"
)

type Server struct {
	cfg      *config.Config
	store    *store.Store
	llm      llm.LLMClient
	router   *route.Router
	engine   *engine.Engine
	sessions *session.Registry
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: Could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}

	// Override config with env vars if present (simple override logic)
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}

	// Default to Ollama if provider is empty
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	st, err := store.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 store: %v", err)
	}

	return NewWithComponents(cfg, st, llmClient)
}

// NewWithComponents wires the pipeline from explicit collaborators.
func NewWithComponents(cfg *config.Config, st *store.Store, llmClient llm.LLMClient) *Server {
	memo := cache.NewLRU(cfg.Cache.IntentCapacity,
		time.Duration(cfg.Cache.IntentTTLMinutes)*time.Minute)
	classifier := llm.NewIntentClassifier(llmClient, memo)

	return &Server{
		cfg:      cfg,
		store:    st,
		llm:      llmClient,
		router:   route.NewRouter(classifier, st, cfg.Retrieval.RelevanceThreshold),
		engine:   engine.New(st),
		sessions: session.NewRegistry(),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/chat", s.Chat)
	r.GET("/healthz", s.Healthz)

	return r
}

type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	sess := s.sessions.Acquire(req.SessionID)
	start := time.Now()

	answer, routeName, mode, docs := s.processQuery(ctx, sess, req.Query)

	turnID := sess.AddTurn(req.Query, answer, routeName)
	if s.cfg.ChatLog {
		if err := s.store.SaveTurn(ctx, sess.ID, turnID, req.Query, answer, routeName, docs); err != nil {
			log.Printf("Failed to save turn log: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":          answer,
		"route":           routeName,
		"session_id":      sess.ID,
		"turn_id":         turnID,
		"processing_time": math.Round(time.Since(start).Seconds()*100) / 100,
		"mode":            mode,
	})
}

// processQuery runs one turn: detail replay, routing, then either the
// general chat path or the sensor pipeline. Returns the answer, the
// route taken, the answering mode, and the documents behind the answer.
func (s *Server) processQuery(ctx context.Context, sess *session.Session, query string) (string, string, string, []*sensor.Document) {
	if result := s.engine.Detail(ctx, sess, query); result != nil {
		return render.Render(result), string(route.RouteSensor), "context_reuse", nil
	}

	decided := s.router.Decide(ctx, query)
	if decided == route.RouteGeneral {
		answer, err := s.llm.Generate(ctx, llm.BuildGeneralPrompt(query, sess.Turns))
		if err != nil {
			log.Printf("General generation failed: %v", err)
			answer = "죄송합니다. 답변을 생성하지 못했습니다. 잠시 후 다시 시도해 주세요."
		}
		return answer, string(decided), "general_llm", nil
	}

	sess.ResetLast()

	// A moment already answered this session comes back from the turn
	// logs without touching the data bucket.
	if s.cfg.ChatLog {
		if answer, docs, ok := s.answerFromLogs(ctx, sess, query); ok {
			return answer, string(decided), "cached_log", docs
		}
	}

	docs, contextText, err := s.store.Retrieve(ctx, query)
	if err != nil {
		log.Printf("Retrieval failed: %v", err)
	}

	if result := s.engine.Answer(ctx, sess, query, docs); result != nil {
		return render.Render(result), string(decided), "exact_match", docs
	}

	// No relevant evidence: the general prompt answers, not RAG.
	if len(docs) == 0 || docs[0].Score < s.cfg.Retrieval.RelevanceThreshold {
		answer, err := s.llm.Generate(ctx, llm.BuildGeneralPrompt(query, sess.Turns))
		if err != nil {
			log.Printf("General generation failed: %v", err)
			answer = "죄송합니다. 답변을 생성하지 못했습니다. 잠시 후 다시 시도해 주세요."
		}
		return answer, string(decided), "general_llm", nil
	}

	answer, err := s.llm.Generate(ctx, llm.BuildRAGPrompt(query, contextText, sess.Turns))
	if err != nil {
		log.Printf("RAG generation failed: %v", err)
		answer = "죄송합니다. 답변을 생성하지 못했습니다. 잠시 후 다시 시도해 주세요."
	}
	return answer, string(decided), "rag", docs
}

func (s *Server) answerFromLogs(ctx context.Context, sess *session.Session, query string) (string, []*sensor.Document, bool) {
	gran := temporal.RequestedGranularity(query)
	if gran == temporal.GranularityNone {
		return "", nil, false
	}
	target, ok := temporal.FirstMoment(query, temporal.Now())
	if !ok {
		return "", nil, false
	}
	doc, err := s.store.FindLoggedSensorData(ctx, sess.ID, target, gran)
	if err != nil || doc == nil {
		return "", nil, false
	}
	docs := []*sensor.Document{doc}
	result := s.engine.Answer(ctx, sess, query, docs)
	if result == nil || result.Kind == engine.ResultNoData || result.Kind == engine.ResultNoContext {
		return "", nil, false
	}
	return render.Render(result), docs, true
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
