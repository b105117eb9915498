package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

// Directory resolves drafters and approvers. The rest of the platform owns
// user administration; this side only reads.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

type postgresDirectory struct {
	db *sqlx.DB
}

func NewDirectory(db *sqlx.DB) Directory {
	return &postgresDirectory{db: db}
}

func (r *postgresDirectory) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresDirectory) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user with email %s not found", email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
