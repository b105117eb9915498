package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

const pgLockNotAvailable = "55P03"

const defaultLockTimeout = 3 * time.Second

// TransitionFunc inspects the locked document and its lines and returns the
// mutation to persist. Returning an error rolls back without writes.
type TransitionFunc func(doc *Document, lines []ApprovalLine) (*TransitionChange, error)

// TransitionChange is the outcome of an approve/reject decision.
type TransitionChange struct {
	Document *Document
	Line     *ApprovalLine
	// NextApproverID is the approver whose turn begins after this change,
	// or uuid.Nil when the workflow resolved.
	NextApproverID uuid.UUID
}

type Repository interface {
	CreateDocument(ctx context.Context, doc *Document, lines []ApprovalLine, files []File) error
	GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error)
	GetApprovalLines(ctx context.Context, documentID uuid.UUID) ([]ApprovalLine, error)
	ListVisibleFiles(ctx context.Context, documentID uuid.UUID) ([]File, error)
	GetFileByID(ctx context.Context, documentID, fileID uuid.UUID) (*File, error)
	SetFileHidden(ctx context.Context, fileID uuid.UUID, hidden bool) error

	ListByDrafter(ctx context.Context, drafterID uuid.UUID) ([]DocumentSummary, error)
	ListTasksForApprover(ctx context.Context, approverID uuid.UUID) ([]DocumentSummary, error)

	// Transition runs apply inside a transaction holding an exclusive row
	// lock on the document. A concurrent caller waits for the lock and then
	// re-reads the committed state; only a lock wait beyond the configured
	// timeout surfaces as Busy.
	Transition(ctx context.Context, id uuid.UUID, apply TransitionFunc) (*TransitionChange, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewRepository(db *sqlx.DB, lockTimeout time.Duration) Repository {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &postgresRepository{db: db, lockTimeout: lockTimeout}
}

func (r *postgresRepository) CreateDocument(ctx context.Context, doc *Document, lines []ApprovalLine, files []File) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	docQuery := `
		INSERT INTO documents (
			id, title, content, status, drafter_id, template_id, created_at, completed_at, deleted
		) VALUES (
			:id, :title, :content, :status, :drafter_id, :template_id, :created_at, :completed_at, :deleted
		)`
	if _, err := tx.NamedExecContext(ctx, docQuery, doc); err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO approval_lines (
			id, document_id, approver_id, line_order, status, comment, processed_at
		) VALUES (
			:id, :document_id, :approver_id, :line_order, :status, :comment, :processed_at
		)`
	for i := range lines {
		if _, err := tx.NamedExecContext(ctx, lineQuery, &lines[i]); err != nil {
			return err
		}
	}

	fileQuery := `
		INSERT INTO files (
			id, document_id, original_name, storage_key, size, hidden
		) VALUES (
			:id, :document_id, :original_name, :storage_key, :size, :hidden
		)`
	for i := range files {
		if _, err := tx.NamedExecContext(ctx, fileQuery, &files[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresRepository) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("document %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *postgresRepository) GetApprovalLines(ctx context.Context, documentID uuid.UUID) ([]ApprovalLine, error) {
	lines := []ApprovalLine{}
	err := r.db.SelectContext(ctx, &lines,
		"SELECT * FROM approval_lines WHERE document_id = $1 ORDER BY line_order", documentID)
	return lines, err
}

func (r *postgresRepository) ListVisibleFiles(ctx context.Context, documentID uuid.UUID) ([]File, error) {
	files := []File{}
	err := r.db.SelectContext(ctx, &files,
		"SELECT * FROM files WHERE document_id = $1 AND hidden = FALSE", documentID)
	return files, err
}

func (r *postgresRepository) GetFileByID(ctx context.Context, documentID, fileID uuid.UUID) (*File, error) {
	var file File
	err := r.db.GetContext(ctx, &file,
		"SELECT * FROM files WHERE id = $1 AND document_id = $2", fileID, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("file %s not found", fileID)
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *postgresRepository) SetFileHidden(ctx context.Context, fileID uuid.UUID, hidden bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE files SET hidden = $1 WHERE id = $2", hidden, fileID)
	return err
}

func (r *postgresRepository) ListByDrafter(ctx context.Context, drafterID uuid.UUID) ([]DocumentSummary, error) {
	summaries := []DocumentSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT id, title, status, drafter_id, created_at
		FROM documents
		WHERE drafter_id = $1 AND deleted = FALSE
		ORDER BY created_at DESC`, drafterID)
	return summaries, err
}

// ListTasksForApprover matches the approver against the current line of each
// in-progress document: the WAITING line with the minimum order. Computed
// server-side so callers never see future-turn documents.
func (r *postgresRepository) ListTasksForApprover(ctx context.Context, approverID uuid.UUID) ([]DocumentSummary, error) {
	summaries := []DocumentSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT d.id, d.title, d.status, d.drafter_id, d.created_at
		FROM documents d
		JOIN approval_lines l ON l.document_id = d.id
		WHERE d.status = 'IN_PROGRESS'
		  AND d.deleted = FALSE
		  AND l.approver_id = $1
		  AND l.status = 'WAITING'
		  AND l.line_order = (
			SELECT MIN(l2.line_order)
			FROM approval_lines l2
			WHERE l2.document_id = d.id AND l2.status = 'WAITING'
		  )
		ORDER BY d.created_at DESC`, approverID)
	return summaries, err
}

func (r *postgresRepository) Transition(ctx context.Context, id uuid.UUID, apply TransitionFunc) (*TransitionChange, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// SET LOCAL takes no bind parameters; the value is a formatted duration.
	if _, err := tx.ExecContext(ctx, lockTimeoutClause(r.lockTimeout)); err != nil {
		return nil, err
	}

	// Blocks until the row lock frees, so a raced caller re-reads the state
	// the winner committed and fails the apply check instead of erroring on
	// contention alone.
	var doc Document
	err = tx.GetContext(ctx, &doc, "SELECT * FROM documents WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("document %s not found", id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgLockNotAvailable {
		return nil, apperrors.Wrap(apperrors.KindBusy, err, "document is being processed")
	}
	if err != nil {
		return nil, err
	}

	lines := []ApprovalLine{}
	if err := tx.SelectContext(ctx, &lines,
		"SELECT * FROM approval_lines WHERE document_id = $1 ORDER BY line_order", id); err != nil {
		return nil, err
	}

	change, err := apply(&doc, lines)
	if err != nil {
		return nil, err
	}

	if change.Line != nil {
		if _, err := tx.NamedExecContext(ctx, `
			UPDATE approval_lines SET
				status = :status,
				comment = :comment,
				processed_at = :processed_at
			WHERE id = :id`, change.Line); err != nil {
			return nil, err
		}
	}
	if change.Document != nil {
		if _, err := tx.NamedExecContext(ctx, `
			UPDATE documents SET
				status = :status,
				completed_at = :completed_at
			WHERE id = :id`, change.Document); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return change, nil
}

func lockTimeoutClause(d time.Duration) string {
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "UPDATE documents SET deleted = TRUE WHERE id = $1", id)
	return err
}
