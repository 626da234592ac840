package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"triage-backend/internal/documents"
	"triage-backend/internal/llm"
	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/telemetry"
)

const (
	// MaxResults bounds full-text search.
	MaxResults = 25
	// MaxSimilar bounds similarity ranking.
	MaxSimilar = 10
)

// Store is the read side of the document store used here.
type Store interface {
	Search(ctx context.Context, query string, limit int) ([]documents.Document, error)
	ListContents(ctx context.Context) ([]documents.ContentRef, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountByStatus(ctx context.Context, status documents.ReviewStatus) (int, error)
	CountSummaries(ctx context.Context) (int, error)
	ListActionItems(ctx context.Context) ([]documents.ActionItemsEntry, error)
	CountByDepartment(ctx context.Context, department string) (documents.DepartmentCount, error)
}

// Scorer ranks a candidate against a corpus.
type Scorer interface {
	ScoreSimilarity(ctx context.Context, candidate string, corpus []string) ([]float64, error)
}

// Service answers search, similarity and dashboard queries.
type Service struct {
	Store       Store
	Scorer      Scorer
	Departments []string
	// Now and Location are overridable in tests.
	Now      func() time.Time
	Location *time.Location
}

// NewService constructs a Service.
func NewService(store Store, scorer Scorer, departments []string) *Service {
	return &Service{Store: store, Scorer: scorer, Departments: departments}
}

// Match is a similarity result.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Stats is the dashboard aggregate.
type Stats struct {
	DocumentsToday int
	PendingReview  int
	TotalSummaries int
	ActionItems    []documents.ActionItemsEntry
}

// Search runs a full-text query. A blank query returns no results without touching the store.
func (s *Service) Search(ctx context.Context, query string) ([]documents.Document, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []documents.Document{}, nil
	}
	docs, err := s.Store.Search(ctx, q, MaxResults)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return docs, nil
}

// Similar ranks every stored document against content with one batched scoring call.
// A scoring failure degrades to zero scores in store order.
func (s *Service) Similar(ctx context.Context, content string) ([]Match, error) {
	if strings.TrimSpace(content) == "" {
		return nil, documents.Invalid("content is required")
	}
	refs, err := s.Store.ListContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	if len(refs) == 0 {
		return []Match{}, nil
	}

	corpus := make([]string, len(refs))
	for i, ref := range refs {
		corpus[i] = ref.Content
	}
	var scores []float64
	if s.Scorer != nil {
		scores, err = s.Scorer.ScoreSimilarity(ctx, content, corpus)
	} else {
		err = llm.ErrNotImplemented
	}
	if err != nil {
		metrics.IncUpstreamDegraded("similarity")
		telemetry.Warn("search.similarity_degraded", map[string]any{
			"corpus_size": len(corpus),
			"error":       err,
		})
		scores = nil
	}

	return Rank(refs, scores, MaxSimilar), nil
}

// Rank pairs refs with scores (missing or non-finite scores count as 0), sorts descending
// keeping store order for ties, and keeps the first limit entries.
func Rank(refs []documents.ContentRef, scores []float64, limit int) []Match {
	out := make([]Match, len(refs))
	for i, ref := range refs {
		score := 0.0
		if i < len(scores) && !math.IsNaN(scores[i]) && !math.IsInf(scores[i], 0) {
			score = scores[i]
		}
		out[i] = Match{ID: ref.ID, Score: score}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats gathers the dashboard aggregates concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	since := s.startOfDay()
	var out Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Store.CountCreatedSince(gctx, since)
		if err != nil {
			return fmt.Errorf("count documents today: %w", err)
		}
		out.DocumentsToday = n
		return nil
	})
	g.Go(func() error {
		n, err := s.Store.CountByStatus(gctx, documents.StatusPending)
		if err != nil {
			return fmt.Errorf("count pending: %w", err)
		}
		out.PendingReview = n
		return nil
	})
	g.Go(func() error {
		n, err := s.Store.CountSummaries(gctx)
		if err != nil {
			return fmt.Errorf("count summaries: %w", err)
		}
		out.TotalSummaries = n
		return nil
	})
	g.Go(func() error {
		items, err := s.Store.ListActionItems(gctx)
		if err != nil {
			return fmt.Errorf("list action items: %w", err)
		}
		out.ActionItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// DepartmentOverview counts documents per configured department, in catalog order.
func (s *Service) DepartmentOverview(ctx context.Context) ([]documents.DepartmentCount, error) {
	out := make([]documents.DepartmentCount, len(s.Departments))
	g, gctx := errgroup.WithContext(ctx)
	for i, dept := range s.Departments {
		g.Go(func() error {
			count, err := s.Store.CountByDepartment(gctx, dept)
			if err != nil {
				return fmt.Errorf("count department %s: %w", dept, err)
			}
			out[i] = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) startOfDay() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}
