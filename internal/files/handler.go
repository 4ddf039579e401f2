package files

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"valoris-backend/internal/analysis"
	"valoris-backend/internal/conversation"
	"valoris-backend/internal/ingest"
	"valoris-backend/internal/shared/metrics"
	"valoris-backend/internal/shared/server/respond"
	"valoris-backend/internal/shared/telemetry"
)

// maxUploadBytes caps multipart uploads. Spend exports in the demo are small;
// anything larger is almost certainly a mistake.
const maxUploadBytes = 20 << 20

type Handler struct {
	Registry *Registry
	Reader   ingest.Reader
	Pipeline *analysis.Pipeline
	Store    *conversation.Store
}

func NewHandler(registry *Registry, reader ingest.Reader, pipeline *analysis.Pipeline, store *conversation.Store) *Handler {
	return &Handler{Registry: registry, Reader: reader, Pipeline: pipeline, Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files", h.upload)
	rg.GET("/files", h.list)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart field \"file\" is required", nil)
		return
	}

	fileID := conversation.NewFileID(fh.Filename)
	c.Set("fileId", fileID)
	entry := File{
		ID:         fileID,
		Name:       fh.Filename,
		Size:       fh.Size,
		UploadedAt: time.Now(),
	}

	// Non-tabular uploads (PDFs, images) are registered but never analyzed.
	if !ingest.TabularFile(fh.Filename) {
		entry.Status = StatusReady
		h.Registry.Add(entry)
		telemetry.Info("files.registered", map[string]any{
			"file_id": fileID,
			"name":    fh.Filename,
			"status":  StatusReady,
		})
		respond.JSON(c, http.StatusCreated, gin.H{"file": entry})
		return
	}

	metrics.IncIngestStarted()

	src, err := fh.Open()
	if err != nil {
		h.failUpload(c, entry, http.StatusBadRequest, "parsing_error", "could not read upload", err)
		return
	}
	defer src.Close()

	rows, err := h.Reader.Read(src, fh.Filename)
	if err != nil {
		h.failUpload(c, entry, http.StatusUnprocessableEntity, "parsing_error", "file could not be decoded", err)
		return
	}

	result, source, err := h.Pipeline.Analyze(c.Request.Context(), rows)
	if err != nil {
		status, code := analysisFailure(err)
		h.failUpload(c, entry, status, code, "analysis failed", err)
		return
	}

	metrics.IncIngestCompleted()
	h.Store.StoreAnalysis(fileID, fh.Filename, result, source)

	entry.Status = StatusAnalyzed
	entry.Source = source
	h.Registry.Add(entry)
	c.Set("analysisSource", source)

	telemetry.Info("files.analyzed", map[string]any{
		"file_id": fileID,
		"name":    fh.Filename,
		"rows":    len(rows),
		"vendors": len(result.Analysis),
		"source":  source,
	})
	respond.JSON(c, http.StatusCreated, gin.H{
		"file":     entry,
		"analysis": result.Analysis,
		"summary":  result.Summary,
		"source":   source,
	})
}

// failUpload registers the file with an error badge and sends the error
// response. One bad file never takes the service down.
func (h *Handler) failUpload(c *gin.Context, entry File, status int, code, message string, err error) {
	metrics.IncIngestFailed()
	entry.Status = StatusError
	entry.Error = err.Error()
	h.Registry.Add(entry)
	respond.Error(c, status, code, message, gin.H{
		"fileId": entry.ID,
		"reason": err.Error(),
	})
}

func analysisFailure(err error) (int, string) {
	var cfgErr *analysis.ConfigError
	if errors.As(err, &cfgErr) {
		return http.StatusInternalServerError, "config_error"
	}
	if errors.Is(err, analysis.ErrEmptyInput) {
		return http.StatusUnprocessableEntity, "validation_error"
	}
	return http.StatusBadGateway, "api_error"
}

func (h *Handler) list(c *gin.Context) {
	respond.OK(c, gin.H{"files": h.Registry.List()})
}
