package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"valoris-backend/internal/shared/config"
	"valoris-backend/internal/shared/server"
	"valoris-backend/internal/shared/server/middleware"
	"valoris-backend/internal/webhook"
)

// The relay is a deliberately tiny separate process: it only holds the most
// recent webhook delivery so the frontend can poll for it.
func main() {
	cfg := config.Load()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	webhook.NewHandler(webhook.NewSlot()).RegisterRoutes(r)

	addr := server.Addr(cfg.RelayPort)
	log.Printf("Starting webhook relay on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("relay error: %v", err)
	}
}
