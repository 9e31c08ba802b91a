// Package api provides the HTTP REST API server for JyotishAI.
//
// It exposes endpoints for chart computation, divisional charts, shadbala,
// nadi analysis, panchang and muhurta windows, AI topic reports, streaming
// chat, and WebSocket updates.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/saptarishi/jyotishai/internal/agent"
	"github.com/saptarishi/jyotishai/internal/astroctx"
	"github.com/saptarishi/jyotishai/internal/config"
	"github.com/saptarishi/jyotishai/internal/ephemeris"
	"github.com/saptarishi/jyotishai/internal/infra"
	"github.com/saptarishi/jyotishai/internal/ledger"
	"github.com/saptarishi/jyotishai/internal/llm"
	"github.com/saptarishi/jyotishai/internal/panchang"
	"github.com/saptarishi/jyotishai/internal/store"
	"github.com/saptarishi/jyotishai/internal/transit"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	eng     ephemeris.Engine
	ctxb    *astroctx.Builder
	alm     *panchang.Service
	scanner *transit.Scanner
	orch    *agent.Orchestrator
	store   *store.Store
	ledger  *ledger.Ledger
	wsHub   *WSHub
	cache   *infra.Cache
	log     *logrus.Entry
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	eng, err := ephemeris.NewEngine(ephemeris.Config{
		Ayanamsa: ayanamsaMode(cfg.Astro.AyanamsaMode),
		Node:     nodeMode(cfg.Astro.NodeMode),
	})
	if err != nil {
		return nil, fmt.Errorf("ephemeris setup failed: %w", err)
	}

	st, err := store.Open(cfg.Store.Path,
		store.WithEncryptionKey(cfg.Store.EncryptionKey),
		store.WithLogger(logrus.WithField("component", "store")))
	if err != nil {
		return nil, fmt.Errorf("store setup failed: %w", err)
	}
	if !st.Encrypted() {
		logrus.Warn("no encryption key configured; birth data stored in plaintext")
	}

	led, err := ledger.New(st.DB(), ledger.WithLogger(logrus.WithField("component", "ledger")))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("ledger setup failed: %w", err)
	}

	router, err := llm.NewRouterFromConfig(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	}

	ctxb := astroctx.NewBuilder(eng)
	orch := agent.NewOrchestrator(router, ctxb, led, st,
		agent.WithCostFunc(cfg.Credits.Cost),
		agent.WithStreamTimeout(time.Duration(cfg.LLM.TimeoutSec)*time.Second),
		agent.WithLogger(logrus.WithField("component", "agent")))

	srv := &Server{
		cfg:     cfg,
		eng:     eng,
		ctxb:    ctxb,
		alm:     panchang.New(eng),
		scanner: transit.NewScanner(eng),
		orch:    orch,
		store:   st,
		ledger:  led,
		wsHub:   NewWSHub(),
		cache:   infra.NewCache(10 * time.Minute),
		log:     logrus.WithField("component", "api"),
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// newServerWith wires a server around injected dependencies, for tests.
func newServerWith(cfg *config.Config, eng ephemeris.Engine, st *store.Store, led *ledger.Ledger, orch *agent.Orchestrator) *Server {
	srv := &Server{
		cfg:     cfg,
		eng:     eng,
		ctxb:    astroctx.NewBuilder(eng),
		alm:     panchang.New(eng),
		scanner: transit.NewScanner(eng),
		orch:    orch,
		store:   st,
		ledger:  led,
		wsHub:   NewWSHub(),
		cache:   infra.NewCache(time.Minute),
		log:     logrus.WithField("component", "api"),
	}
	srv.router = srv.buildRouter()
	return srv
}

func ayanamsaMode(name string) string {
	switch name {
	case "", "Lahiri":
		return "lahiri"
	case "Raman":
		return "raman"
	case "KP", "Krishnamurti":
		return "krishnamurti"
	default:
		return name
	}
}

func nodeMode(name string) ephemeris.NodeMode {
	if name == "True" {
		return ephemeris.TrueNode
	}
	return ephemeris.MeanNode
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Close releases the server's persistent resources.
func (s *Server) Close() error {
	return s.store.Close()
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // SSE report streams run long
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()
	stopTicks := s.startPanchangTicker()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP server error")
		}
	}()

	<-done
	s.log.Info("shutting down server")
	stopTicks()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	return s.Close()
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/health", s.handleHealth)

		// Chart computation
		r.Post("/calculate-chart-only", s.handleChartOnly)
		r.Post("/calculate-chart", s.handleChart)
		r.Post("/calculate-all-charts", s.handleAllCharts)
		r.Post("/calculate-divisional-chart", s.handleDivisionalChart)
		r.Post("/classical-shadbala", s.handleShadbala)

		// Saved charts
		r.Post("/birth-charts", s.handleSaveBirthChart)
		r.Get("/birth-charts", s.handleListBirthCharts)
		r.Get("/birth-charts/{hash}", s.handleGetBirthChart)
		r.Delete("/birth-charts/{hash}", s.handleDeleteBirthChart)

		// Nadi
		r.Post("/nadi-analysis", s.handleNadiAnalysis)
		r.Post("/nadi-timeline", s.handleNadiTimeline)
		r.Post("/nadi-timeline/bulk", s.handleNadiTimelineBulk)

		// Panchang & muhurta
		r.Get("/panchang", s.handlePanchang)
		r.Get("/vivah-muhurat", s.muhuratHandler("vivah"))
		r.Get("/property-muhurat", s.muhuratHandler("property"))
		r.Get("/vehicle-muhurat", s.muhuratHandler("vehicle"))
		r.Get("/griha-pravesh-muhurat", s.muhuratHandler("griha_pravesh"))

		// AI reports (SSE) and chat
		r.Post("/marriage/analyze", s.topicHandler("marriage"))
		r.Post("/career/ai-insights", s.topicHandler("career"))
		r.Post("/wealth/ai-insights-enhanced", s.topicHandler("wealth"))
		r.Post("/health/ai-insights", s.topicHandler("health"))
		r.Post("/progeny/ai-insights", s.topicHandler("progeny"))
		r.Post("/chat/ask", s.handleChatAsk)

		// Credits
		r.Get("/credits/balance", s.handleCreditBalance)
		r.Post("/credits/grant", s.handleCreditGrant)
		r.Get("/credits/history", s.handleCreditHistory)

		// House reference data
		r.Get("/house-specifications", s.handleHouseSpecs)
		r.Get("/house-combinations", s.handleListCombinations)
		r.Post("/house-combinations", s.handleCreateCombination)
		r.Get("/house-combinations/{id}", s.handleGetCombination)
		r.Put("/house-combinations/{id}", s.handleUpdateCombination)
		r.Delete("/house-combinations/{id}", s.handleDeleteCombination)
		r.Post("/house-combinations/generate", s.handleGenerateCombinations)

		// Market forecast
		r.Get("/market/forecast", s.handleMarketForecast)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ── Auth ──

type contextKey string

const userIDKey contextKey = "user_id"

// authMiddleware enforces the shared-secret bearer token when one is
// configured; the caller identifies itself with X-User-ID. With no secret
// configured auth is open (development mode).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			userID = "anonymous"
		}

		if secret := s.cfg.API.AuthSecret; secret != "" {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			token, ok := bearerToken(auth)
			if !ok {
				writeError(w, http.StatusUnauthorized, "malformed Authorization header")
				return
			}
			if token != secret {
				writeError(w, http.StatusForbidden, "invalid token")
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

func userID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return "anonymous"
}

// ── Envelope & helpers ──

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// decodeBirth parses and validates the birth payload shared by most
// computation endpoints. A validation failure has already been written.
func decodeBirth(w http.ResponseWriter, r *http.Request, req interface{ birth() models.BirthData }) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	if err := req.birth().Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// jsonDecode parses a request body without the shared birth validation.
func jsonDecode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// queryFloat parses a float query parameter.
func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	return strconv.ParseFloat(v, 64)
}

// queryInt parses an int query parameter with a default.
func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// ── Health ──

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "ok",
			"version":   "dev",
			"ayanamsa":  s.cfg.Astro.AyanamsaMode,
			"node_mode": s.cfg.Astro.NodeMode,
			"encrypted": s.store.Encrypted(),
			"time_utc":  time.Now().UTC().Format(time.RFC3339),
		},
	})
}
