package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"valoris-backend/internal/conversation"
	"valoris-backend/internal/files"
	"valoris-backend/internal/shared/server/respond"
	"valoris-backend/internal/shared/telemetry"
)

// Handler implements the demo login. There is no real authentication: one
// configured credential unlocks the demo, and the returned token is opaque
// and never checked again.
type Handler struct {
	DemoEmail    string
	DemoPassword string
	Store        *conversation.Store
	Registry     *files.Registry
}

func NewHandler(demoEmail, demoPassword string, store *conversation.Store, registry *files.Registry) *Handler {
	return &Handler{
		DemoEmail:    demoEmail,
		DemoPassword: demoPassword,
		Store:        store,
		Registry:     registry,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session/login", h.login)
	rg.POST("/session/logout", h.logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if !strings.EqualFold(strings.TrimSpace(req.Email), h.DemoEmail) || req.Password != h.DemoPassword {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}

	telemetry.Info("session.login", map[string]any{"email": h.DemoEmail})
	respond.OK(c, gin.H{
		"token": uuid.NewString(),
		"user": gin.H{
			"email": h.DemoEmail,
			"name":  "Demo User",
		},
	})
}

// logout resets the demo: the conversation store and the file registry are
// both cleared so the next login starts from a blank slate.
func (h *Handler) logout(c *gin.Context) {
	h.Store.Clear()
	h.Registry.Clear()
	telemetry.Info("session.logout", nil)
	respond.OK(c, gin.H{"success": true})
}
