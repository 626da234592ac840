package documents

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/shared/server/respond"
	"triage-backend/internal/shared/telemetry"
)

const maxJSONBody = 5 << 20 // 5MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes. Mutations go on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/documents", h.list)
	public.GET("/documents/:id", h.get)
	protected.POST("/documents", h.create)
	protected.PATCH("/documents/:id", h.update)
	protected.DELETE("/documents/:id", h.delete)
	protected.PATCH("/documents/:id/review", h.review)
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBody)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(c, err, "failed to create document")
		return
	}

	doc, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "failed to create document")
		return
	}
	c.Set("documentId", doc.ID)

	respond.OK(c, gin.H{"id": doc.ID})
}

func (h *Handler) list(c *gin.Context) {
	var filter ListFilter
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		filter.Department = &dept
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := ParseReviewStatus(raw)
		if err != nil {
			writeError(c, err, "failed to list documents")
			return
		}
		filter.Status = &status
	}

	docs, err := h.Svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "failed to list documents")
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ToResponse(doc, false))
	}
	respond.OK(c, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, ToResponse(doc, true))
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBody)

	body, err := c.GetRawData()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	patch, err := parsePatch(body)
	if err != nil {
		writeError(c, err, "failed to update document")
		return
	}

	doc, err := h.Svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err, "failed to update document")
		return
	}
	respond.OK(c, ToResponse(doc, true))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "failed to delete document")
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

type reviewRequest struct {
	Status string `json:"status"`
}

func (h *Handler) review(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	tr, err := h.Svc.SetReviewStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err, "failed to update review status")
		return
	}
	c.Set("statusTransition", string(tr.From)+"->"+string(tr.To))
	telemetry.Info("document.review", map[string]any{
		"document_id": tr.ID,
		"from":        tr.From,
		"to":          tr.To,
	})

	respond.OK(c, gin.H{"id": tr.ID, "reviewStatus": tr.To})
}

// writeError maps service errors onto the public error taxonomy. Internal causes are
// logged and replaced by msg.
func writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", ValidationMessage(err), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	default:
		telemetry.Error("documents.internal_error", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
