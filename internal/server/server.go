// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"policypulse/internal/config"
	"policypulse/internal/domain/policy"
	"policypulse/internal/domain/post"
	"policypulse/internal/domain/sentiment"
	"policypulse/internal/server/handlers"
	"policypulse/internal/service/ingest"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	natsConn *nats.Conn,
	policyManager policy.Manager,
	posts post.Store,
	sentiments sentiment.Store,
	classifier sentiment.Classifier,
	ingestor *ingest.Ingestor,
	insights handlers.InsightService,
	generator ingest.Generator,
	searcher handlers.SocialSearcher,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	policyHandler := handlers.NewPolicyHandler(policyManager, insights, ingestor)
	postHandler := handlers.NewPostHandler(ingestor, posts)
	sentimentHandler := handlers.NewSentimentHandler(classifier, sentiments, posts)
	generateHandler := handlers.NewGenerateHandler(generator)
	socialHandler := handlers.NewSocialHandler(searcher)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Policies API
			r.Route("/policies", func(r chi.Router) {
				r.Get("/", policyHandler.ListPolicies)
				r.Post("/", policyHandler.CreatePolicy)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", policyHandler.GetPolicy)
					r.Put("/", policyHandler.UpdatePolicy)
					r.Delete("/", policyHandler.DeletePolicy)
					r.Get("/stats", policyHandler.GetPolicyStats)
					r.Get("/trend", policyHandler.GetPolicyTrend)
					r.Post("/collect", policyHandler.CollectPosts)
				})
			})

			// Posts API
			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.ListPosts)
				r.Post("/", postHandler.IngestPosts)
			})

			// Ad-hoc sentiment analysis
			r.Post("/sentiment", sentimentHandler.AnalyzeText)

			// Synthetic content generation
			r.Post("/generate", generateHandler.GeneratePosts)

			// Live social search
			r.Get("/social/search", socialHandler.SearchPosts)
		})
	})

	// WebSocket endpoint for real-time ingest feeds
	router.Get("/ws/policies/{id}", handlers.PolicyFeedHandler(natsConn, cfg.Ingest.EventsTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
