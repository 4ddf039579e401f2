package conversation

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"valoris-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
	rg.GET("/chat/context", h.chatContext)
}

type chatTurnRequest struct {
	FileID  string `json:"fileId"`
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", []map[string]string{
			{"field": "message", "issue": "required"},
		})
		return
	}
	c.Set("fileId", req.FileID)

	reply, relayed, err := h.Svc.Respond(c.Request.Context(), req.FileID, req.Message)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "chat failed", nil)
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"message": reply,
		"relayed": relayed,
	})
}

func (h *Handler) chatContext(c *gin.Context) {
	fileID := c.Query("fileId")
	if fileID != "" {
		c.Set("fileId", fileID)
	}
	respond.OK(c, h.Svc.Store.GetChatContext(fileID))
}
