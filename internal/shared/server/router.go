package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"valoris-backend/internal/analysis"
	"valoris-backend/internal/conversation"
	"valoris-backend/internal/files"
	"valoris-backend/internal/ingest"
	"valoris-backend/internal/session"
	"valoris-backend/internal/shared/config"
	"valoris-backend/internal/shared/metrics"
	"valoris-backend/internal/shared/server/middleware"
	"valoris-backend/internal/shared/server/respond"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies. Remote clients are optional: without them the service
	// runs entirely on local fallback synthesis (demo mode).
	var stageClient analysis.StageClient
	if cfg.AnalysisNormalizeURL != "" || cfg.AnalysisOptimizeURL != "" || cfg.AnalysisAPIKey != "" {
		client, err := analysis.NewHTTPClient(cfg.AnalysisNormalizeURL, cfg.AnalysisOptimizeURL, cfg.AnalysisAPIKey, cfg.AnalysisTimeout)
		if err != nil {
			// Partial configuration is a deployment mistake, not demo mode.
			log.Fatalf("analysis client: %v", err)
		}
		stageClient = client
	}
	pipeline := analysis.NewPipeline(stageClient, cfg.NumberLocale)

	var chatClient conversation.ChatClient
	if cfg.ChatURL != "" {
		client, err := conversation.NewHTTPChatClient(cfg.ChatURL, cfg.AnalysisTimeout)
		if err != nil {
			log.Fatalf("chat client: %v", err)
		}
		chatClient = client
	}

	store := conversation.NewStore()
	registry := files.NewRegistry()
	reader := ingest.Reader{Locale: cfg.NumberLocale}

	filesHandler := files.NewHandler(registry, reader, pipeline, store)
	chatHandler := conversation.NewHandler(conversation.NewService(store, chatClient))
	sessionHandler := session.NewHandler(cfg.DemoEmail, cfg.DemoPassword, store, registry)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	filesHandler.RegisterRoutes(api)
	chatHandler.RegisterRoutes(api)
	sessionHandler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
