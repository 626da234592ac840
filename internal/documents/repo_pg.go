package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
    d.id, d.title, d.filename, d.mime_type, d.size_bytes, %s, d.language, d.review_status, d.created_at, d.updated_at,
    s.id, s.summary, s.department, s.priority, s.category, s.tags, s.action_items, s.deadline, s.stakeholders, s.created_at`

var (
	selectWithContent    = "SELECT" + fmt.Sprintf(documentColumns, "d.content") + "\nFROM documents d\nLEFT JOIN summaries s ON s.document_id = d.id"
	selectWithoutContent = "SELECT" + fmt.Sprintf(documentColumns, "''") + "\nFROM documents d\nLEFT JOIN summaries s ON s.document_id = d.id"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var title sql.NullString
	var sumID, sumText, sumDept, sumPriority, sumCategory, sumDeadline sql.NullString
	var tags, actionItems, stakeholders []byte
	var sumCreated sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&title,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.Content,
		&doc.Language,
		&doc.ReviewStatus,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&sumID,
		&sumText,
		&sumDept,
		&sumPriority,
		&sumCategory,
		&tags,
		&actionItems,
		&sumDeadline,
		&stakeholders,
		&sumCreated,
	); err != nil {
		return Document{}, err
	}
	if title.Valid {
		doc.Title = title.String
	}
	if !sumID.Valid {
		return doc, nil
	}
	s := Summary{
		ID:         sumID.String,
		DocumentID: doc.ID,
		Text:       sumText.String,
		Department: sumDept.String,
		Priority:   Priority(sumPriority.String),
		Category:   sumCategory.String,
		CreatedAt:  sumCreated.Time,
	}
	var err error
	if s.Tags, err = decodeList(tags); err != nil {
		return Document{}, fmt.Errorf("decode tags: %w", err)
	}
	if s.ActionItems, err = decodeList(actionItems); err != nil {
		return Document{}, fmt.Errorf("decode action items: %w", err)
	}
	if s.Stakeholders, err = decodeList(stakeholders); err != nil {
		return Document{}, fmt.Errorf("decode stakeholders: %w", err)
	}
	if sumDeadline.Valid {
		d := sumDeadline.String
		s.Deadline = &d
	}
	doc.Summary = &s
	return doc, nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	raw, _ := json.Marshal(items)
	return string(raw)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullStringPtr(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// Create inserts the document and its summary in one transaction.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const insertDocument = `
INSERT INTO documents (
    id,
    title,
    filename,
    mime_type,
    size_bytes,
    content,
    language,
    review_status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		insertDocument,
		doc.ID,
		nullString(doc.Title),
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.Content,
		string(doc.Language),
		string(doc.ReviewStatus),
		doc.CreatedAt,
		doc.UpdatedAt,
	); err != nil {
		return err
	}

	if doc.Summary != nil {
		if err := insertSummary(ctx, tx, doc.ID, *doc.Summary); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertSummary(ctx context.Context, tx *sql.Tx, documentID string, s Summary) error {
	const query = `
INSERT INTO summaries (
    id,
    document_id,
    summary,
    department,
    priority,
    category,
    tags,
    action_items,
    deadline,
    stakeholders,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10::jsonb, $11)`
	_, err := tx.ExecContext(
		ctx,
		query,
		s.ID,
		documentID,
		s.Text,
		s.Department,
		string(s.Priority),
		s.Category,
		encodeList(s.Tags),
		encodeList(s.ActionItems),
		nullStringPtr(s.Deadline),
		encodeList(s.Stakeholders),
		s.CreatedAt,
	)
	return err
}

// GetByID fetches a document with its summary.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := selectWithContent + "\nWHERE d.id = $1"
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns documents matching filter, newest first.
func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	var where []string
	var args []any
	if filter.Department != nil {
		args = append(args, *filter.Department)
		where = append(where, fmt.Sprintf("s.department = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("d.review_status = $%d", len(args)))
	}
	query := selectWithoutContent
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY d.created_at DESC"
	return r.queryDocuments(ctx, query, args...)
}

// Search matches filename, content, summary text and category by substring and tags exactly,
// all case-insensitively.
func (r *PGRepo) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 25
	}
	q := selectWithoutContent + `
WHERE d.filename ILIKE $1
   OR d.content ILIKE $1
   OR s.summary ILIKE $1
   OR s.category ILIKE $1
   OR EXISTS (
        SELECT 1 FROM jsonb_array_elements_text(s.tags) AS tag
        WHERE lower(tag) = lower($2)
   )
ORDER BY d.created_at DESC
LIMIT $3`
	return r.queryDocuments(ctx, q, likePattern(query), query, limit)
}

func likePattern(q string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + escaped + "%"
}

func (r *PGRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListContents returns (id, content) for every document in creation order.
func (r *PGRepo) ListContents(ctx context.Context) ([]ContentRef, error) {
	const query = `
SELECT id, content
FROM documents
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ContentRef{}
	for rows.Next() {
		var ref ContentRef
		if err := rows.Scan(&ref.ID, &ref.Content); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// Update locks the document row, merges the patch and writes it back in one transaction.
func (r *PGRepo) Update(ctx context.Context, id string, patch Patch, now time.Time) (Document, error) {
	const updateDocument = `
UPDATE documents
SET title = $1, updated_at = $2
WHERE id = $3`
	const updateSummary = `
UPDATE summaries
SET summary = $1,
    department = $2,
    priority = $3,
    category = $4,
    tags = $5::jsonb,
    action_items = $6::jsonb,
    deadline = $7,
    stakeholders = $8::jsonb
WHERE document_id = $9`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, err
	}
	defer tx.Rollback()

	doc, err := scanDocument(tx.QueryRowContext(ctx, selectWithContent+"\nWHERE d.id = $1\nFOR UPDATE OF d", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}

	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	doc.UpdatedAt = now
	if _, err := tx.ExecContext(ctx, updateDocument, nullString(doc.Title), doc.UpdatedAt, id); err != nil {
		return Document{}, err
	}

	if doc.Summary != nil && !patch.Summary.Empty() {
		next := patch.Summary.Apply(*doc.Summary)
		if _, err := tx.ExecContext(
			ctx,
			updateSummary,
			next.Text,
			next.Department,
			string(next.Priority),
			next.Category,
			encodeList(next.Tags),
			encodeList(next.ActionItems),
			nullStringPtr(next.Deadline),
			encodeList(next.Stakeholders),
			id,
		); err != nil {
			return Document{}, err
		}
		doc.Summary = &next
	}

	if err := tx.Commit(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// SetReviewStatus updates review status and returns the previous value.
func (r *PGRepo) SetReviewStatus(ctx context.Context, id string, status ReviewStatus, now time.Time) (ReviewStatus, error) {
	const query = `
WITH prev AS (
    SELECT id, review_status FROM documents WHERE id = $3 FOR UPDATE
)
UPDATE documents d
SET review_status = $1, updated_at = $2
FROM prev
WHERE d.id = prev.id
RETURNING prev.review_status`
	var previous ReviewStatus
	if err := r.DB.QueryRowContext(ctx, query, string(status), now, id).Scan(&previous); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return previous, nil
}

// Delete removes the summary and then the document in one transaction.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM summaries WHERE document_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// CountCreatedSince counts documents created at or after since.
func (r *PGRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM documents WHERE created_at >= $1`, since)
}

// CountByStatus counts documents in a review status.
func (r *PGRepo) CountByStatus(ctx context.Context, status ReviewStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM documents WHERE review_status = $1`, string(status))
}

// CountSummaries counts all summaries.
func (r *PGRepo) CountSummaries(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM summaries`)
}

func (r *PGRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountByDepartment counts summaries for a department and the high/urgent subset.
func (r *PGRepo) CountByDepartment(ctx context.Context, department string) (DepartmentCount, error) {
	const query = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE priority IN ('high', 'urgent'))
FROM summaries
WHERE department = $1`
	out := DepartmentCount{Department: department}
	if err := r.DB.QueryRowContext(ctx, query, department).Scan(&out.Documents, &out.HighPriority); err != nil {
		return DepartmentCount{}, err
	}
	return out, nil
}

// ListActionItems returns summaries with non-empty action items, newest document first.
func (r *PGRepo) ListActionItems(ctx context.Context) ([]ActionItemsEntry, error) {
	const query = `
SELECT s.document_id, s.action_items, d.title, d.filename
FROM summaries s
JOIN documents d ON d.id = s.document_id
WHERE jsonb_array_length(s.action_items) > 0
ORDER BY d.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ActionItemsEntry{}
	for rows.Next() {
		var entry ActionItemsEntry
		var raw []byte
		var title sql.NullString
		if err := rows.Scan(&entry.DocumentID, &raw, &title, &entry.FileName); err != nil {
			return nil, err
		}
		if entry.ActionItems, err = decodeList(raw); err != nil {
			return nil, fmt.Errorf("decode action items: %w", err)
		}
		entry.Title = title.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
