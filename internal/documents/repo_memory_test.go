package documents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return svc, repo
}

func mustCreate(t *testing.T, svc *Service, in CreateInput) Document {
	t.Helper()
	doc, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return doc
}

func withSummary(fileName, content, dept string, priority string, tags ...string) CreateInput {
	return CreateInput{
		FileName:  fileName,
		MimeType:  "text/plain",
		SizeBytes: int64(len(content)),
		Content:   content,
		Summary: &SummaryInput{
			Text:        "summary of " + fileName,
			Department:  dept,
			Priority:    priority,
			Category:    "general",
			Tags:        tags,
			ActionItems: []string{"follow up"},
		},
	}
}

func TestCreateStoresDocumentAndSummaryTogether(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := mustCreate(t, svc, withSummary("a.txt", "pump inspection", "Engineering", "high", "pump"))

	got, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ReviewStatus != StatusPending {
		t.Fatalf("expected PENDING, got %s", got.ReviewStatus)
	}
	if got.Language != LanguageEnglish {
		t.Fatalf("expected english default, got %s", got.Language)
	}
	if got.Summary == nil || got.Summary.DocumentID != doc.ID {
		t.Fatalf("expected summary owned by document, got %+v", got.Summary)
	}
	if got.Summary.Priority != PriorityHigh {
		t.Fatalf("expected high priority, got %s", got.Summary.Priority)
	}
}

func TestCreateWithoutSummary(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, CreateInput{FileName: "n.txt", MimeType: "text/plain", Content: "note"})

	n, err := repo.CountSummaries(ctx)
	if err != nil {
		t.Fatalf("CountSummaries: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no summaries, got %d", n)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	long := make([]rune, MaxSummaryRunes+1)
	for i := range long {
		long[i] = 'x'
	}

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing filename", CreateInput{MimeType: "text/plain", Content: "x"}},
		{"missing mime", CreateInput{FileName: "a", Content: "x"}},
		{"negative size", CreateInput{FileName: "a", MimeType: "text/plain", Content: "x", SizeBytes: -1}},
		{"empty content", CreateInput{FileName: "a", MimeType: "text/plain", Content: "  "}},
		{"bad language", CreateInput{FileName: "a", MimeType: "text/plain", Content: "x", Language: "french"}},
		{"bad priority", CreateInput{FileName: "a", MimeType: "text/plain", Content: "x", Summary: &SummaryInput{Priority: "asap"}}},
		{"summary too long", CreateInput{FileName: "a", MimeType: "text/plain", Content: "x", Summary: &SummaryInput{Text: string(long)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDeleteRemovesSummary(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	doc := mustCreate(t, svc, withSummary("a.txt", "alpha", "Finance", "low"))
	if err := svc.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	n, err := repo.CountSummaries(ctx)
	if err != nil {
		t.Fatalf("CountSummaries: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected summary removed, got %d", n)
	}
	if err := svc.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListNewestFirstWithFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := mustCreate(t, svc, withSummary("1.txt", "one", "Safety", "low"))
	second := mustCreate(t, svc, withSummary("2.txt", "two", "Finance", "low"))
	third := mustCreate(t, svc, withSummary("3.txt", "three", "Safety", "low"))

	all, err := svc.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[1].ID != second.ID || all[2].ID != first.ID {
		t.Fatalf("unexpected order: %+v", all)
	}
	for _, doc := range all {
		if doc.Content != "" {
			t.Fatalf("expected listing without content, got %q", doc.Content)
		}
	}

	dept := "Safety"
	safety, err := svc.List(ctx, ListFilter{Department: &dept})
	if err != nil {
		t.Fatalf("List department: %v", err)
	}
	if len(safety) != 2 {
		t.Fatalf("expected 2 safety documents, got %d", len(safety))
	}

	if _, err := svc.SetReviewStatus(ctx, second.ID, "approved"); err != nil {
		t.Fatalf("SetReviewStatus: %v", err)
	}
	status := StatusApproved
	approved, err := svc.List(ctx, ListFilter{Status: &status})
	if err != nil {
		t.Fatalf("List status: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != second.ID {
		t.Fatalf("expected only the approved document, got %+v", approved)
	}
}

func TestSetReviewStatusAnyTransition(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc := mustCreate(t, svc, CreateInput{FileName: "a", MimeType: "text/plain", Content: "x"})

	steps := []ReviewStatus{StatusApproved, StatusPending, StatusRejected, StatusInReview, StatusApproved}
	prev := StatusPending
	for _, next := range steps {
		tr, err := svc.SetReviewStatus(ctx, doc.ID, string(next))
		if err != nil {
			t.Fatalf("SetReviewStatus %s: %v", next, err)
		}
		if tr.From != prev || tr.To != next {
			t.Fatalf("expected %s->%s, got %s->%s", prev, next, tr.From, tr.To)
		}
		prev = next
	}
}

func TestSetReviewStatusRejectsUnknownWithoutWriting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc := mustCreate(t, svc, CreateInput{FileName: "a", MimeType: "text/plain", Content: "x"})

	if _, err := svc.SetReviewStatus(ctx, doc.ID, "ARCHIVED"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	got, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ReviewStatus != StatusPending || !got.UpdatedAt.Equal(doc.UpdatedAt) {
		t.Fatalf("expected document untouched, got %+v", got)
	}
	if _, err := svc.SetReviewStatus(ctx, "missing", "APPROVED"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in := withSummary("a.txt", "alpha", "Finance", "low", "budget")
	deadline := "2026-04-01"
	in.Summary.Deadline = &deadline
	doc := mustCreate(t, svc, in)

	title := "Quarterly budget"
	priority := PriorityUrgent
	tags := []string{"Budget", "budget", " q2 "}
	got, err := svc.Update(ctx, doc.ID, Patch{
		Title: &title,
		Summary: SummaryPatch{
			Priority: &priority,
			Tags:     &tags,
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != title || got.Summary.Priority != PriorityUrgent {
		t.Fatalf("expected title and priority patched, got %+v", got)
	}
	if len(got.Summary.Tags) != 2 || got.Summary.Tags[0] != "Budget" || got.Summary.Tags[1] != "q2" {
		t.Fatalf("expected normalized tags, got %v", got.Summary.Tags)
	}
	if got.Summary.Department != "Finance" || got.Summary.Deadline == nil || *got.Summary.Deadline != deadline {
		t.Fatalf("expected untouched fields preserved, got %+v", got.Summary)
	}
	if !got.UpdatedAt.After(doc.UpdatedAt) {
		t.Fatalf("expected updatedAt to advance")
	}

	cleared, err := svc.Update(ctx, doc.ID, Patch{Summary: SummaryPatch{DeadlineSet: true}})
	if err != nil {
		t.Fatalf("Update clear deadline: %v", err)
	}
	if cleared.Summary.Deadline != nil {
		t.Fatalf("expected deadline cleared, got %v", *cleared.Summary.Deadline)
	}
}

func TestUpdateSummaryFieldsIgnoredWithoutSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc := mustCreate(t, svc, CreateInput{FileName: "a", MimeType: "text/plain", Content: "x"})

	text := "new summary"
	got, err := svc.Update(ctx, doc.ID, Patch{Summary: SummaryPatch{Text: &text}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Summary != nil {
		t.Fatalf("expected no summary to be created, got %+v", got.Summary)
	}
	if _, err := svc.Update(ctx, "missing", Patch{Title: &text}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchMatchesTextAndExactTags(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	pump := mustCreate(t, svc, withSummary("pump-report.txt", "Pump P-7 vibration", "Engineering", "high", "maintenance"))
	mustCreate(t, svc, withSummary("invoice.txt", "Invoice 42", "Finance", "low", "maintenanceplan"))

	got, err := repo.Search(ctx, "PUMP", 25)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != pump.ID {
		t.Fatalf("expected pump report, got %+v", got)
	}

	byTag, err := repo.Search(ctx, "Maintenance", 25)
	if err != nil {
		t.Fatalf("Search tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != pump.ID {
		t.Fatalf("expected exact tag match only, got %+v", byTag)
	}
}

func TestCountByDepartment(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, withSummary("a", "a", "Safety", "urgent"))
	mustCreate(t, svc, withSummary("b", "b", "Safety", "low"))
	mustCreate(t, svc, withSummary("c", "c", "Safety", "high"))
	mustCreate(t, svc, withSummary("d", "d", "Legal", "high"))

	got, err := repo.CountByDepartment(ctx, "Safety")
	if err != nil {
		t.Fatalf("CountByDepartment: %v", err)
	}
	if got.Documents != 3 || got.HighPriority != 2 {
		t.Fatalf("unexpected counts: %+v", got)
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc := mustCreate(t, svc, withSummary("a", "a", "Safety", "low", "one"))

	got, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Summary.Tags[0] = "mutated"

	again, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Summary.Tags[0] != "one" {
		t.Fatalf("expected stored tags to be isolated, got %v", again.Summary.Tags)
	}
}
