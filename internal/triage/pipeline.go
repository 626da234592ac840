package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"triage-backend/internal/documents"
	"triage-backend/internal/extract"
	"triage-backend/internal/llm"
	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/telemetry"
)

// FallbackSummary replaces a summary the model could not produce.
const FallbackSummary = "Summary generation failed. Please try again."

// DefaultTitle is used when neither inference nor the model yields a title.
const DefaultTitle = "Document"

// Submission variants, used as metric labels.
const (
	VariantUpload = "upload"
	VariantPaste  = "paste"
	VariantStream = "stream"
)

// ErrUpstreamDegraded marks an upstream call whose result was replaced by a fallback.
// It is logged and counted, never returned to callers.
var ErrUpstreamDegraded = errors.New("upstream degraded")

// Submission is one document entering the pipeline.
type Submission struct {
	Content   string
	Language  string
	FileName  string
	MimeType  string
	SizeBytes int64
	// Title, when set, skips title inference.
	Title   string
	Variant string
	// TitleSource is the filename used for title inference; empty means text only.
	TitleSource string
}

// Result is the inline triage outcome for a persisted Document.
type Result struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	llm.Categorization
}

// Pipeline turns submissions into stored, categorized Documents.
type Pipeline struct {
	Docs *documents.Service
	LLM  llm.Client
	// Now is overridable in tests.
	Now func() time.Time
}

// NewPipeline constructs a Pipeline.
func NewPipeline(docs *documents.Service, client llm.Client) *Pipeline {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Pipeline{Docs: docs, LLM: client}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Upload extracts text from an uploaded payload and submits it.
func (p *Pipeline) Upload(ctx context.Context, fileName, mimeType string, data []byte, language string) (Result, error) {
	ex := extract.FromBytes(data, mimeType, fileName)
	return p.Submit(ctx, Submission{
		Content:     ex.Text,
		Language:    language,
		FileName:    ex.FileName,
		MimeType:    ex.MimeType,
		SizeBytes:   ex.SizeBytes,
		Variant:     VariantUpload,
		TitleSource: ex.FileName,
	})
}

// Paste submits caller-supplied text under a generated filename.
func (p *Pipeline) Paste(ctx context.Context, text, language string) (Result, error) {
	return p.Submit(ctx, Submission{
		Content:   text,
		Language:  language,
		FileName:  PastedFileName(p.now()),
		MimeType:  "text/plain",
		SizeBytes: int64(len(text)),
		Variant:   VariantPaste,
	})
}

// PastedFileName names pasted text by its submission time.
func PastedFileName(at time.Time) string {
	return fmt.Sprintf("pasted-%d.txt", at.UnixMilli())
}

// Submit validates, categorizes and persists one Document with its Summary. Upstream
// failures degrade to fallbacks; only validation and storage errors are returned.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (Result, error) {
	lang, err := validate(sub)
	if err != nil {
		return Result{}, err
	}

	title := strings.TrimSpace(sub.Title)
	if title == "" {
		title, _ = extract.InferTitle(sub.TitleSource, sub.Content)
	}

	var (
		summary   string
		cat       llm.Categorization
		generated string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = p.summarize(gctx, sub.Content, string(lang))
		return nil
	})
	g.Go(func() error {
		cat = p.categorize(gctx, sub.Content)
		return nil
	})
	if title == "" {
		g.Go(func() error {
			generated = p.title(gctx, sub.Content, string(lang))
			return nil
		})
	}
	_ = g.Wait()
	if title == "" {
		title = generated
	}
	if title == "" {
		title = DefaultTitle
	}

	// A cancelled request persists nothing.
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	doc, err := p.Docs.Create(ctx, documents.CreateInput{
		Title:     title,
		FileName:  sub.FileName,
		MimeType:  sub.MimeType,
		SizeBytes: sub.SizeBytes,
		Content:   sub.Content,
		Language:  string(lang),
		Summary: &documents.SummaryInput{
			Text:         summary,
			Department:   cat.Department,
			Priority:     cat.Priority,
			Category:     cat.Category,
			Tags:         cat.Tags,
			ActionItems:  cat.ActionItems,
			Deadline:     cat.Deadline,
			Stakeholders: cat.Stakeholders,
		},
	})
	if err != nil {
		return Result{}, err
	}
	metrics.IncSubmission(sub.Variant)
	telemetry.Info("triage.submitted", map[string]any{
		"document_id": doc.ID,
		"variant":     sub.Variant,
		"department":  doc.Summary.Department,
		"priority":    doc.Summary.Priority,
	})

	s := doc.Summary
	return Result{
		ID:      doc.ID,
		Title:   doc.Title,
		Summary: s.Text,
		Categorization: llm.Categorization{
			Department:   s.Department,
			Priority:     string(s.Priority),
			Category:     s.Category,
			Tags:         s.Tags,
			ActionItems:  s.ActionItems,
			Deadline:     s.Deadline,
			Stakeholders: s.Stakeholders,
		},
	}, nil
}

// Stream emits a summary of text chunk by chunk without persisting anything. When the
// model fails before the first chunk, the fallback summary is emitted instead.
func (p *Pipeline) Stream(ctx context.Context, text, language string, emit func(chunk string) error) error {
	if strings.TrimSpace(text) == "" {
		return documents.Invalid("content is required")
	}
	lang, err := documents.ParseLanguage(language)
	if err != nil {
		return err
	}

	sent := false
	var emitErr error
	err = p.LLM.StreamSummary(ctx, text, string(lang), func(chunk string) error {
		if chunk == "" {
			return nil
		}
		if err := emit(chunk); err != nil {
			emitErr = err
			return fmt.Errorf("%w: %v", llm.ErrEmit, err)
		}
		sent = true
		return nil
	})
	metrics.IncSubmission(VariantStream)
	switch {
	case err == nil:
		return nil
	case emitErr != nil, ctx.Err() != nil:
		// Client disconnected.
		return nil
	}
	degraded("stream_summary", err)
	if !sent {
		return emit(FallbackSummary)
	}
	return nil
}

func validate(sub Submission) (documents.Language, error) {
	switch {
	case strings.TrimSpace(sub.Content) == "":
		return "", documents.Invalid("content is required")
	case strings.TrimSpace(sub.FileName) == "":
		return "", documents.Invalid("filename is required")
	case strings.TrimSpace(sub.MimeType) == "":
		return "", documents.Invalid("mimeType is required")
	case sub.SizeBytes < 0:
		return "", documents.Invalid("sizeBytes must not be negative")
	}
	return documents.ParseLanguage(sub.Language)
}

func (p *Pipeline) summarize(ctx context.Context, text, language string) string {
	out, err := p.LLM.Summarize(ctx, text, language)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty summary")
	}
	if err != nil {
		degraded("summarize", err)
		return FallbackSummary
	}
	return documents.TruncateSummary(out)
}

func (p *Pipeline) categorize(ctx context.Context, text string) llm.Categorization {
	cat, err := p.LLM.Categorize(ctx, text)
	if err != nil {
		degraded("categorize", err)
		return llm.FallbackCategorization()
	}
	return normalizeCategorization(cat)
}

func (p *Pipeline) title(ctx context.Context, text, language string) string {
	out, err := p.LLM.GenerateTitle(ctx, text, language)
	if err != nil {
		degraded("generate_title", err)
		return ""
	}
	return strings.TrimSpace(out)
}

// normalizeCategorization fills blanks so any Client implementation yields storable values.
func normalizeCategorization(cat llm.Categorization) llm.Categorization {
	fb := llm.FallbackCategorization()
	out := cat
	if strings.TrimSpace(out.Department) == "" {
		out.Department = fb.Department
	}
	if strings.TrimSpace(out.Category) == "" {
		out.Category = fb.Category
	}
	out.Priority = llm.NormalizePriority(out.Priority)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.ActionItems == nil {
		out.ActionItems = []string{}
	}
	if out.Stakeholders == nil {
		out.Stakeholders = []string{}
	}
	return out
}

func degraded(operation string, cause error) {
	err := fmt.Errorf("%w: %s: %v", ErrUpstreamDegraded, operation, cause)
	metrics.IncUpstreamDegraded(operation)
	telemetry.Warn("triage.degraded", map[string]any{
		"operation":    operation,
		"circuit_open": llm.IsCircuitOpen(cause),
		"error":        err,
	})
}
