package documents

import (
	"encoding/json"
	"fmt"
	"time"
)

// SummaryResponse is the outward-facing representation of a Summary.
type SummaryResponse struct {
	Summary      string     `json:"summary"`
	Department   string     `json:"department"`
	Priority     Priority   `json:"priority"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	ActionItems  []string   `json:"actionItems"`
	Deadline     *string    `json:"deadline"`
	Stakeholders []string   `json:"stakeholders"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// DocumentResponse is the outward-facing representation of a Document.
type DocumentResponse struct {
	ID           string           `json:"id"`
	Title        *string          `json:"title"`
	FileName     string           `json:"filename"`
	MimeType     string           `json:"mimeType"`
	SizeBytes    int64            `json:"sizeBytes"`
	Content      *string          `json:"content,omitempty"`
	Language     Language         `json:"language"`
	ReviewStatus ReviewStatus     `json:"reviewStatus"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Summary      *SummaryResponse `json:"summary"`
}

// ToResponse renders a Document. Content is included only when withContent is set.
func ToResponse(doc Document, withContent bool) DocumentResponse {
	resp := DocumentResponse{
		ID:           doc.ID,
		FileName:     doc.FileName,
		MimeType:     doc.MimeType,
		SizeBytes:    doc.SizeBytes,
		Language:     doc.Language,
		ReviewStatus: doc.ReviewStatus,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	if doc.Title != "" {
		title := doc.Title
		resp.Title = &title
	}
	if withContent {
		content := doc.Content
		resp.Content = &content
	}
	if doc.Summary != nil {
		s := ToSummaryResponse(*doc.Summary)
		if withContent {
			created := doc.Summary.CreatedAt
			s.CreatedAt = &created
		}
		resp.Summary = &s
	}
	return resp
}

// ToSummaryResponse renders a Summary with non-nil sequences.
func ToSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse{
		Summary:      s.Text,
		Department:   s.Department,
		Priority:     s.Priority,
		Category:     s.Category,
		Tags:         nonNil(s.Tags),
		ActionItems:  nonNil(s.ActionItems),
		Deadline:     s.Deadline,
		Stakeholders: nonNil(s.Stakeholders),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

type summaryRequest struct {
	Summary      string   `json:"summary"`
	Department   string   `json:"department"`
	Priority     string   `json:"priority"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	ActionItems  []string `json:"actionItems"`
	Deadline     *string  `json:"deadline"`
	Stakeholders []string `json:"stakeholders"`
}

type createRequest struct {
	Title     string          `json:"title"`
	FileName  string          `json:"filename"`
	MimeType  string          `json:"mimeType"`
	SizeBytes *int64          `json:"sizeBytes"`
	Content   string          `json:"content"`
	Language  string          `json:"language"`
	Summary   *summaryRequest `json:"summary"`
}

func (r createRequest) toInput() (CreateInput, error) {
	if r.SizeBytes == nil {
		return CreateInput{}, invalid("sizeBytes is required")
	}
	in := CreateInput{
		Title:     r.Title,
		FileName:  r.FileName,
		MimeType:  r.MimeType,
		SizeBytes: *r.SizeBytes,
		Content:   r.Content,
		Language:  r.Language,
	}
	if r.Summary != nil {
		in.Summary = &SummaryInput{
			Text:         r.Summary.Summary,
			Department:   r.Summary.Department,
			Priority:     r.Summary.Priority,
			Category:     r.Summary.Category,
			Tags:         r.Summary.Tags,
			ActionItems:  r.Summary.ActionItems,
			Deadline:     r.Summary.Deadline,
			Stakeholders: r.Summary.Stakeholders,
		}
	}
	return in, nil
}

// parsePatch decodes a flat PATCH body. Absent keys are left unchanged and a JSON null
// deadline clears it.
func parsePatch(body []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Patch{}, invalid("invalid request body")
	}
	var p Patch
	var err error
	if p.Title, err = stringField(raw, "title"); err != nil {
		return Patch{}, err
	}
	if p.Summary.Text, err = stringField(raw, "summary"); err != nil {
		return Patch{}, err
	}
	if p.Summary.Department, err = stringField(raw, "department"); err != nil {
		return Patch{}, err
	}
	if p.Summary.Category, err = stringField(raw, "category"); err != nil {
		return Patch{}, err
	}
	priority, err := stringField(raw, "priority")
	if err != nil {
		return Patch{}, err
	}
	if priority != nil {
		pr := Priority(*priority)
		p.Summary.Priority = &pr
	}
	if p.Summary.Tags, err = listField(raw, "tags"); err != nil {
		return Patch{}, err
	}
	if p.Summary.ActionItems, err = listField(raw, "actionItems"); err != nil {
		return Patch{}, err
	}
	if p.Summary.Stakeholders, err = listField(raw, "stakeholders"); err != nil {
		return Patch{}, err
	}
	if v, ok := raw["deadline"]; ok {
		p.Summary.DeadlineSet = true
		if string(v) != "null" {
			var d string
			if err := json.Unmarshal(v, &d); err != nil {
				return Patch{}, invalid("deadline must be a string or null")
			}
			p.Summary.Deadline = &d
		}
	}
	return p, nil
}

func stringField(raw map[string]json.RawMessage, key string) (*string, error) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, invalid(fmt.Sprintf("%s must be a string", key))
	}
	return &s, nil
}

func listField(raw map[string]json.RawMessage, key string) (*[]string, error) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(v, &list); err != nil {
		return nil, invalid(fmt.Sprintf("%s must be an array of strings", key))
	}
	if list == nil {
		list = []string{}
	}
	return &list, nil
}
