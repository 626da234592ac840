package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents and their summaries.
type Repo interface {
	// Create stores the Document and its optional Summary atomically.
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	// List returns documents without content, newest first.
	List(ctx context.Context, filter ListFilter) ([]Document, error)
	// Search matches query against filename, content, summary text, category and exact tags.
	Search(ctx context.Context, query string, limit int) ([]Document, error)
	ListContents(ctx context.Context) ([]ContentRef, error)
	// Update applies a partial patch. Summary fields are ignored when no Summary exists.
	Update(ctx context.Context, id string, patch Patch, now time.Time) (Document, error)
	// SetReviewStatus changes only review status and updated time, returning the prior status.
	SetReviewStatus(ctx context.Context, id string, status ReviewStatus, now time.Time) (ReviewStatus, error)
	// Delete removes the Document and its Summary atomically.
	Delete(ctx context.Context, id string) error

	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountByStatus(ctx context.Context, status ReviewStatus) (int, error)
	CountSummaries(ctx context.Context) (int, error)
	ListActionItems(ctx context.Context) ([]ActionItemsEntry, error)
	CountByDepartment(ctx context.Context, department string) (DepartmentCount, error)
}
