package triage

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/documents"
	"triage-backend/internal/shared/server/respond"
	"triage-backend/internal/shared/telemetry"
	"triage-backend/internal/shared/util"
)

const defaultMaxUpload = 10 << 20 // 10MB

// NoStreamHeader selects the persisted JSON path of POST /summarize.
const NoStreamHeader = "X-No-Stream"

// Handler wires HTTP handlers to the pipeline.
type Handler struct {
	Pipeline       *Pipeline
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(p *Pipeline, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUpload
	}
	return &Handler{Pipeline: p, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches triage routes. Uploads go on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	protected.POST("/upload", h.upload)
	public.POST("/summarize", h.summarize)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file name is invalid", nil)
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
			mimeType = byExt
		}
	}

	res, err := h.Pipeline.Upload(c.Request.Context(), fileName, mimeType, data, c.PostForm("language"))
	if err != nil {
		writeError(c, err, "failed to process upload")
		return
	}
	c.Set("documentId", res.ID)
	respond.OK(c, res)
}

type summarizeRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

func (h *Handler) summarize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		return
	}

	if strings.TrimSpace(c.GetHeader(NoStreamHeader)) == "1" {
		res, err := h.Pipeline.Paste(c.Request.Context(), req.Content, req.Language)
		if err != nil {
			writeError(c, err, "failed to summarize text")
			return
		}
		c.Set("documentId", res.ID)
		respond.OK(c, res)
		return
	}

	if _, err := documents.ParseLanguage(req.Language); err != nil {
		writeError(c, err, "failed to summarize text")
		return
	}

	h.stream(c, req)
}

func (h *Handler) stream(c *gin.Context, req summarizeRequest) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	err := h.Pipeline.Stream(c.Request.Context(), req.Content, req.Language, func(chunk string) error {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		w.Flush()
		return nil
	})
	if err != nil {
		telemetry.Warn("triage.stream_aborted", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err,
		})
	}
}

func writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, documents.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", documents.ValidationMessage(err), nil)
	default:
		telemetry.Error("triage.internal_error", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
