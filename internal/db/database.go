package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"workhub/office-portal/office-portal-backend/internal/config"
)

// Connect opens the primary sqlx pool and ensures the core schema exists.
func Connect(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

// ConnectGorm opens a second handle for the gorm-managed audit tables.
func ConnectGorm(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cfg.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	job_grade  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS templates (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	template_key TEXT NOT NULL UNIQUE,
	active       BOOLEAN NOT NULL DEFAULT TRUE,
	owner_id     UUID NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id           UUID PRIMARY KEY,
	title        TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	drafter_id   UUID NOT NULL,
	template_id  UUID NOT NULL REFERENCES templates(id),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	deleted      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_documents_drafter ON documents (drafter_id) WHERE NOT deleted;
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status) WHERE NOT deleted;

CREATE TABLE IF NOT EXISTS approval_lines (
	id           UUID PRIMARY KEY,
	document_id  UUID NOT NULL REFERENCES documents(id),
	approver_id  UUID NOT NULL,
	line_order   INTEGER NOT NULL CHECK (line_order >= 1),
	status       TEXT NOT NULL,
	comment      TEXT,
	processed_at TIMESTAMPTZ,
	UNIQUE (document_id, line_order)
);
CREATE INDEX IF NOT EXISTS idx_approval_lines_approver ON approval_lines (approver_id, status);

CREATE TABLE IF NOT EXISTS files (
	id            UUID PRIMARY KEY,
	document_id   UUID NOT NULL REFERENCES documents(id),
	original_name TEXT NOT NULL,
	storage_key   TEXT NOT NULL,
	size          BIGINT NOT NULL DEFAULT 0,
	hidden        BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_files_document ON files (document_id);
`
