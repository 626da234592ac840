package documents

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// CreateInput is a new Document with an optional Summary.
type CreateInput struct {
	Title     string
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   string
	Language  string
	Summary   *SummaryInput
}

// SummaryInput is the caller-supplied part of a Summary.
type SummaryInput struct {
	Text         string
	Department   string
	Priority     string
	Category     string
	Tags         []string
	ActionItems  []string
	Deadline     *string
	Stakeholders []string
}

// Service contains business logic for documents.
type Service struct {
	Repo Repo
	// Now is overridable in tests.
	Now func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create validates and stores a Document, and its Summary when present, atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (Document, error) {
	fileName := strings.TrimSpace(in.FileName)
	mimeType := strings.TrimSpace(in.MimeType)
	switch {
	case fileName == "":
		return Document{}, invalid("filename is required")
	case mimeType == "":
		return Document{}, invalid("mimeType is required")
	case in.SizeBytes < 0:
		return Document{}, invalid("sizeBytes must not be negative")
	case strings.TrimSpace(in.Content) == "":
		return Document{}, invalid("content is required")
	}
	lang, err := ParseLanguage(in.Language)
	if err != nil {
		return Document{}, err
	}
	title := strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		return Document{}, invalid(fmt.Sprintf("title exceeds %d characters", MaxTitleRunes))
	}

	now := s.now()
	doc := Document{
		ID:           uuid.NewString(),
		Title:        title,
		FileName:     fileName,
		MimeType:     mimeType,
		SizeBytes:    in.SizeBytes,
		Content:      in.Content,
		Language:     lang,
		ReviewStatus: StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Summary != nil {
		sum, err := buildSummary(*in.Summary)
		if err != nil {
			return Document{}, err
		}
		sum.ID = uuid.NewString()
		sum.DocumentID = doc.ID
		sum.CreatedAt = now
		doc.Summary = &sum
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func buildSummary(in SummaryInput) (Summary, error) {
	text := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(text) > MaxSummaryRunes {
		return Summary{}, invalid(fmt.Sprintf("summary exceeds %d characters", MaxSummaryRunes))
	}
	priority := PriorityMedium
	if strings.TrimSpace(in.Priority) != "" {
		p, err := ParsePriority(in.Priority)
		if err != nil {
			return Summary{}, err
		}
		priority = p
	}
	return Summary{
		Text:         text,
		Department:   strings.TrimSpace(in.Department),
		Priority:     priority,
		Category:     strings.TrimSpace(in.Category),
		Tags:         NormalizeTags(in.Tags),
		ActionItems:  cleanList(in.ActionItems),
		Deadline:     normalizeDeadline(in.Deadline),
		Stakeholders: cleanList(in.Stakeholders),
	}, nil
}

// Get returns a Document with its Summary.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if !validID(id) {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns documents matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	return s.Repo.List(ctx, filter)
}

// Update applies a partial edit of the title and Summary fields.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Document, error) {
	if !validID(id) {
		return Document{}, ErrNotFound
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if utf8.RuneCountInString(title) > MaxTitleRunes {
			return Document{}, invalid(fmt.Sprintf("title exceeds %d characters", MaxTitleRunes))
		}
		patch.Title = &title
	}
	sp := &patch.Summary
	if sp.Text != nil {
		text := strings.TrimSpace(*sp.Text)
		if utf8.RuneCountInString(text) > MaxSummaryRunes {
			return Document{}, invalid(fmt.Sprintf("summary exceeds %d characters", MaxSummaryRunes))
		}
		sp.Text = &text
	}
	if sp.Priority != nil {
		p, err := ParsePriority(string(*sp.Priority))
		if err != nil {
			return Document{}, err
		}
		sp.Priority = &p
	}
	if sp.Department != nil {
		d := strings.TrimSpace(*sp.Department)
		sp.Department = &d
	}
	if sp.Category != nil {
		c := strings.TrimSpace(*sp.Category)
		sp.Category = &c
	}
	if sp.Tags != nil {
		tags := NormalizeTags(*sp.Tags)
		sp.Tags = &tags
	}
	if sp.ActionItems != nil {
		items := cleanList(*sp.ActionItems)
		sp.ActionItems = &items
	}
	if sp.Stakeholders != nil {
		people := cleanList(*sp.Stakeholders)
		sp.Stakeholders = &people
	}
	if sp.DeadlineSet {
		sp.Deadline = normalizeDeadline(sp.Deadline)
	}

	return s.Repo.Update(ctx, id, patch, s.now())
}

// Delete removes a Document and its Summary.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return s.Repo.Delete(ctx, id)
}

// Transition records a review status change.
type Transition struct {
	ID   string
	From ReviewStatus
	To   ReviewStatus
}

// SetReviewStatus validates raw before touching storage, then moves the Document to it.
// Any status may follow any other.
func (s *Service) SetReviewStatus(ctx context.Context, id, raw string) (Transition, error) {
	if !validID(id) {
		return Transition{}, ErrNotFound
	}
	status, err := ParseReviewStatus(raw)
	if err != nil {
		return Transition{}, err
	}
	prev, err := s.Repo.SetReviewStatus(ctx, id, status, s.now())
	if err != nil {
		return Transition{}, err
	}
	return Transition{ID: id, From: prev, To: status}, nil
}

// validID reports whether id can name a stored Document. Ids are UUIDs, so anything else is
// absent rather than a storage error.
func validID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

// NormalizeTags trims tags and removes case-insensitive duplicates, keeping first spelling.
func NormalizeTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeDeadline(in *string) *string {
	if in == nil {
		return nil
	}
	d := strings.TrimSpace(*in)
	if d == "" {
		return nil
	}
	return &d
}
