package history

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder writes and reads the per-document action trail. Record is
// best-effort: a failed write must never abort the operation being recorded.
type Recorder interface {
	Record(ctx context.Context, entry ActionHistory)
	List(ctx context.Context, documentID uuid.UUID) ([]ActionHistory, error)
}

type gormRecorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) (Recorder, error) {
	if err := db.AutoMigrate(&ActionHistory{}); err != nil {
		return nil, err
	}
	return &gormRecorder{
		db:     db,
		logger: logger.With(zap.String("service", "history")),
	}, nil
}

func (r *gormRecorder) Record(ctx context.Context, entry ActionHistory) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.logger.Warn("failed to record action history",
			zap.String("document_id", entry.DocumentID.String()),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

func (r *gormRecorder) List(ctx context.Context, documentID uuid.UUID) ([]ActionHistory, error) {
	var entries []ActionHistory
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("performed_at ASC").
		Find(&entries).Error
	return entries, err
}

// NopRecorder discards everything. Used in tests.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, entry ActionHistory) {}

func (NopRecorder) List(ctx context.Context, documentID uuid.UUID) ([]ActionHistory, error) {
	return nil, nil
}
