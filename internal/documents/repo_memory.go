package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string // insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs: make(map[string]Document),
	}
}

// Create stores a document and its summary.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return invalid("document id already exists")
	}
	if doc.Summary != nil {
		for _, existing := range r.docs {
			if existing.Summary != nil && existing.Summary.ID == doc.Summary.ID {
				return invalid("summary id already exists")
			}
		}
	}
	stored := doc.clone()
	if stored.Summary != nil {
		stored.Summary.DocumentID = doc.ID
	}
	r.docs[doc.ID] = stored
	r.order = append(r.order, doc.ID)
	return nil
}

// GetByID returns a document with its summary.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc.clone(), nil
}

// List returns matching documents newest-first, without content.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Document{}
	for _, doc := range r.newestFirst() {
		if filter.Status != nil && doc.ReviewStatus != *filter.Status {
			continue
		}
		if filter.Department != nil && (doc.Summary == nil || doc.Summary.Department != *filter.Department) {
			continue
		}
		item := doc.clone()
		item.Content = ""
		out = append(out, item)
	}
	return out, nil
}

// Search finds documents whose text fields contain query or whose tags equal it.
func (r *MemoryRepo) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Document{}
	for _, doc := range r.newestFirst() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !matches(doc, needle) {
			continue
		}
		item := doc.clone()
		item.Content = ""
		out = append(out, item)
	}
	return out, nil
}

func matches(doc Document, needle string) bool {
	if strings.Contains(strings.ToLower(doc.FileName), needle) ||
		strings.Contains(strings.ToLower(doc.Content), needle) {
		return true
	}
	s := doc.Summary
	if s == nil {
		return false
	}
	if strings.Contains(strings.ToLower(s.Text), needle) ||
		strings.Contains(strings.ToLower(s.Category), needle) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.ToLower(tag) == needle {
			return true
		}
	}
	return false
}

// ListContents returns every document's content in insertion order.
func (r *MemoryRepo) ListContents(ctx context.Context) ([]ContentRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ContentRef, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, ContentRef{ID: id, Content: r.docs[id].Content})
	}
	return out, nil
}

// Update applies a partial patch.
func (r *MemoryRepo) Update(ctx context.Context, id string, patch Patch, now time.Time) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if doc.Summary != nil && !patch.Summary.Empty() {
		next := patch.Summary.Apply(*doc.Summary)
		doc.Summary = &next
	}
	doc.UpdatedAt = now
	r.docs[id] = doc
	return doc.clone(), nil
}

// SetReviewStatus updates the review status.
func (r *MemoryRepo) SetReviewStatus(ctx context.Context, id string, status ReviewStatus, now time.Time) (ReviewStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return "", ErrNotFound
	}
	prev := doc.ReviewStatus
	doc.ReviewStatus = status
	doc.UpdatedAt = now
	r.docs[id] = doc
	return prev, nil
}

// Delete removes a document together with its summary.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// CountCreatedSince counts documents created at or after since.
func (r *MemoryRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, func(d Document) bool { return !d.CreatedAt.Before(since) })
}

// CountByStatus counts documents in the given review status.
func (r *MemoryRepo) CountByStatus(ctx context.Context, status ReviewStatus) (int, error) {
	return r.count(ctx, func(d Document) bool { return d.ReviewStatus == status })
}

// CountSummaries counts stored summaries.
func (r *MemoryRepo) CountSummaries(ctx context.Context) (int, error) {
	return r.count(ctx, func(d Document) bool { return d.Summary != nil })
}

// CountByDepartment counts summaries routed to department, and how many are high or urgent.
func (r *MemoryRepo) CountByDepartment(ctx context.Context, department string) (DepartmentCount, error) {
	if err := ctx.Err(); err != nil {
		return DepartmentCount{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := DepartmentCount{Department: department}
	for _, doc := range r.docs {
		if doc.Summary == nil || doc.Summary.Department != department {
			continue
		}
		out.Documents++
		if doc.Summary.Priority == PriorityHigh || doc.Summary.Priority == PriorityUrgent {
			out.HighPriority++
		}
	}
	return out, nil
}

// ListActionItems returns summaries with at least one action item, newest document first.
func (r *MemoryRepo) ListActionItems(ctx context.Context) ([]ActionItemsEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []ActionItemsEntry{}
	for _, doc := range r.newestFirst() {
		if doc.Summary == nil || len(doc.Summary.ActionItems) == 0 {
			continue
		}
		out = append(out, ActionItemsEntry{
			DocumentID:  doc.ID,
			ActionItems: cloneStrings(doc.Summary.ActionItems),
			Title:       doc.Title,
			FileName:    doc.FileName,
		})
	}
	return out, nil
}

func (r *MemoryRepo) count(ctx context.Context, keep func(Document) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, doc := range r.docs {
		if keep(doc) {
			n++
		}
	}
	return n, nil
}

// newestFirst must be called with the lock held.
func (r *MemoryRepo) newestFirst() []Document {
	docs := make([]Document, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		docs = append(docs, r.docs[r.order[i]])
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}

var _ Repo = (*MemoryRepo)(nil)
