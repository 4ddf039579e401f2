package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"valoris-backend/internal/shared/server/respond"
	"valoris-backend/internal/shared/telemetry"
)

// maxPayloadBytes caps webhook bodies. The relay only ever needs to hold one
// small JSON document.
const maxPayloadBytes = 1 << 20

type Handler struct {
	Slot    *Slot
	started time.Time
}

func NewHandler(slot *Slot) *Handler {
	return &Handler{Slot: slot, started: time.Now()}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/webhook", h.receive)
	r.GET("/api/webhook-data", h.data)
	r.POST("/api/test-webhook", h.seed)
	r.GET("/api/status", h.status)
}

func (h *Handler) receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read body", nil)
		return
	}
	if !json.Valid(body) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "body must be valid JSON", nil)
		return
	}

	receivedAt := h.Slot.Set(body)
	telemetry.Info("webhook.received", map[string]any{"bytes": len(body)})
	respond.OK(c, gin.H{"success": true, "receivedAt": receivedAt})
}

func (h *Handler) data(c *gin.Context) {
	payload, updatedAt, ok := h.Slot.Get()
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "no webhook data received yet", nil)
		return
	}
	respond.OK(c, gin.H{"data": payload, "updatedAt": updatedAt})
}

func (h *Handler) seed(c *gin.Context) {
	payload := SamplePayload()
	receivedAt := h.Slot.Set(payload)
	telemetry.Info("webhook.seeded", nil)
	respond.OK(c, gin.H{"success": true, "data": payload, "receivedAt": receivedAt})
}

func (h *Handler) status(c *gin.Context) {
	_, updatedAt, ok := h.Slot.Get()
	resp := gin.H{
		"ok":      true,
		"uptime":  time.Since(h.started).String(),
		"hasData": ok,
	}
	if ok {
		resp["lastUpdate"] = updatedAt
	}
	respond.OK(c, resp)
}
