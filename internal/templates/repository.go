package templates

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

const pgUniqueViolation = "23505"

type Repository interface {
	CreateTemplate(ctx context.Context, tpl *Template) error
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*Template, error)
	ListActiveTemplates(ctx context.Context) ([]TemplateSummary, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateTemplate(ctx context.Context, tpl *Template) error {
	query := `
		INSERT INTO templates (
			id, name, content, template_key, active, owner_id, created_at
		) VALUES (
			:id, :name, :content, :template_key, :active, :owner_id, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, tpl)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return apperrors.Conflict("template key %q already exists", tpl.Key)
	}
	return err
}

func (r *postgresRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	var tpl Template
	err := r.db.GetContext(ctx, &tpl, "SELECT * FROM templates WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("template %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *postgresRepository) ListActiveTemplates(ctx context.Context) ([]TemplateSummary, error) {
	summaries := []TemplateSummary{}
	err := r.db.SelectContext(ctx, &summaries,
		"SELECT id, name, template_key FROM templates WHERE active = TRUE ORDER BY name")
	return summaries, err
}

func (r *postgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE templates SET active = $1 WHERE id = $2", active, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("template %s not found", id)
	}
	return nil
}
