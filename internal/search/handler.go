package search

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/documents"
	"triage-backend/internal/shared/server/respond"
	"triage-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the read-only query routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
	rg.POST("/similar", h.similar)
	rg.GET("/stats", h.stats)
	rg.GET("/departments", h.departments)
}

type searchSummary struct {
	Summary    string             `json:"summary"`
	Department string             `json:"department"`
	Priority   documents.Priority `json:"priority"`
	Category   string             `json:"category"`
	Tags       []string           `json:"tags"`
}

type searchResult struct {
	ID        string         `json:"id"`
	FileName  string         `json:"filename"`
	CreatedAt time.Time      `json:"createdAt"`
	Summary   *searchSummary `json:"summary"`
}

func (h *Handler) search(c *gin.Context) {
	docs, err := h.Svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err, "failed to search documents")
		return
	}
	out := make([]searchResult, 0, len(docs))
	for _, doc := range docs {
		item := searchResult{ID: doc.ID, FileName: doc.FileName, CreatedAt: doc.CreatedAt}
		if s := doc.Summary; s != nil {
			tags := s.Tags
			if tags == nil {
				tags = []string{}
			}
			item.Summary = &searchSummary{
				Summary:    s.Text,
				Department: s.Department,
				Priority:   s.Priority,
				Category:   s.Category,
				Tags:       tags,
			}
		}
		out = append(out, item)
	}
	respond.OK(c, gin.H{"results": out})
}

type similarRequest struct {
	Content string `json:"content"`
}

func (h *Handler) similar(c *gin.Context) {
	var req similarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	matches, err := h.Svc.Similar(c.Request.Context(), req.Content)
	if err != nil {
		writeError(c, err, "failed to rank similar documents")
		return
	}
	respond.OK(c, gin.H{"similar": matches})
}

type actionItemDocument struct {
	Title    *string `json:"title"`
	FileName string  `json:"filename"`
}

type actionItemEntry struct {
	DocumentID  string             `json:"documentId"`
	ActionItems []string           `json:"actionItems"`
	Document    actionItemDocument `json:"document"`
}

type statsResponse struct {
	DocumentsToday int               `json:"documentsToday"`
	PendingReview  int               `json:"pendingReview"`
	TotalSummaries int               `json:"totalSummaries"`
	SummariesToday int               `json:"summariesToday"`
	ActiveUsers    int               `json:"activeUsers"`
	ActionItems    []actionItemEntry `json:"actionItems"`
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to load stats")
		return
	}
	resp := statsResponse{
		DocumentsToday: stats.DocumentsToday,
		PendingReview:  stats.PendingReview,
		TotalSummaries: stats.TotalSummaries,
		SummariesToday: stats.DocumentsToday,
		ActionItems:    make([]actionItemEntry, 0, len(stats.ActionItems)),
	}
	for _, entry := range stats.ActionItems {
		doc := actionItemDocument{FileName: entry.FileName}
		if entry.Title != "" {
			title := entry.Title
			doc.Title = &title
		}
		resp.ActionItems = append(resp.ActionItems, actionItemEntry{
			DocumentID:  entry.DocumentID,
			ActionItems: entry.ActionItems,
			Document:    doc,
		})
	}
	respond.OK(c, resp)
}

type departmentResponse struct {
	Name         string `json:"name"`
	Documents    int    `json:"documents"`
	HighPriority int    `json:"highPriority"`
}

func (h *Handler) departments(c *gin.Context) {
	counts, err := h.Svc.DepartmentOverview(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to load departments")
		return
	}
	out := make([]departmentResponse, 0, len(counts))
	for _, count := range counts {
		out = append(out, departmentResponse{
			Name:         count.Department,
			Documents:    count.Documents,
			HighPriority: count.HighPriority,
		})
	}
	respond.OK(c, gin.H{"departments": out})
}

func writeError(c *gin.Context, err error, msg string) {
	if errors.Is(err, documents.ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, "validation_error", documents.ValidationMessage(err), nil)
		return
	}
	telemetry.Error("search.internal_error", map[string]any{
		"request_id": c.GetString("requestId"),
		"error":      err,
	})
	respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
}
