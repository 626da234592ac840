package documents

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxSummaryRunes bounds the stored summary text.
const MaxSummaryRunes = 4000

// MaxTitleRunes bounds an edited document title.
const MaxTitleRunes = 200

// Language is the document language tag.
type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageMalayalam Language = "malayalam"
)

// ParseLanguage accepts the two supported tags; empty input defaults to english.
func ParseLanguage(raw string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(LanguageEnglish):
		return LanguageEnglish, nil
	case string(LanguageMalayalam):
		return LanguageMalayalam, nil
	default:
		return "", invalid("language must be english or malayalam")
	}
}

// Priority is the triage urgency of a Summary.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a priority value.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", invalid("priority must be one of low, medium, high, urgent")
	}
}

// Document is an ingested file or pasted text.
type Document struct {
	ID           string
	Title        string
	FileName     string
	MimeType     string
	SizeBytes    int64
	Content      string
	Language     Language
	ReviewStatus ReviewStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Summary      *Summary
}

// Summary is the categorization output owned by exactly one Document.
type Summary struct {
	ID           string
	DocumentID   string
	Text         string
	Department   string
	Priority     Priority
	Category     string
	Tags         []string
	ActionItems  []string
	Deadline     *string
	Stakeholders []string
	CreatedAt    time.Time
}

// ListFilter narrows a document listing. Nil fields do not filter.
type ListFilter struct {
	Department *string
	Status     *ReviewStatus
}

// Patch is a partial update of a Document and its Summary. Nil fields are left unchanged.
type Patch struct {
	Title   *string
	Summary SummaryPatch
}

// SummaryPatch holds per-field Summary replacements.
type SummaryPatch struct {
	Text         *string
	Department   *string
	Priority     *Priority
	Category     *string
	Tags         *[]string
	ActionItems  *[]string
	Stakeholders *[]string
	// DeadlineSet distinguishes "clear the deadline" (Deadline nil) from "leave it".
	DeadlineSet bool
	Deadline    *string
}

// Empty reports whether the patch changes no Summary field.
func (p SummaryPatch) Empty() bool {
	return p.Text == nil && p.Department == nil && p.Priority == nil && p.Category == nil &&
		p.Tags == nil && p.ActionItems == nil && p.Stakeholders == nil && !p.DeadlineSet
}

// Apply returns a copy of s with the patch fields replaced.
func (p SummaryPatch) Apply(s Summary) Summary {
	out := s
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Department != nil {
		out.Department = *p.Department
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Tags != nil {
		out.Tags = cloneStrings(*p.Tags)
	}
	if p.ActionItems != nil {
		out.ActionItems = cloneStrings(*p.ActionItems)
	}
	if p.Stakeholders != nil {
		out.Stakeholders = cloneStrings(*p.Stakeholders)
	}
	if p.DeadlineSet {
		out.Deadline = cloneStringPtr(p.Deadline)
	}
	return out
}

// ActionItemsEntry pairs a Summary's action items with its owning Document.
type ActionItemsEntry struct {
	DocumentID  string
	ActionItems []string
	Title       string
	FileName    string
}

// DepartmentCount aggregates Summaries routed to one department.
type DepartmentCount struct {
	Department   string
	Documents    int
	HighPriority int
}

// ContentRef is the (id, content) pair used by similarity ranking.
type ContentRef struct {
	ID      string
	Content string
}

// TruncateSummary cuts generated summary text to MaxSummaryRunes.
func TruncateSummary(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxSummaryRunes {
		return text
	}
	return string([]rune(text)[:MaxSummaryRunes])
}

func (d Document) clone() Document {
	out := d
	if d.Summary != nil {
		s := d.Summary.clone()
		out.Summary = &s
	}
	return out
}

func (s Summary) clone() Summary {
	out := s
	out.Tags = cloneStrings(s.Tags)
	out.ActionItems = cloneStrings(s.ActionItems)
	out.Stakeholders = cloneStrings(s.Stakeholders)
	out.Deadline = cloneStringPtr(s.Deadline)
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringPtr(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
