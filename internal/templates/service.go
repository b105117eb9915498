package templates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

type Service interface {
	CreateTemplate(ctx context.Context, req CreateRequest) (uuid.UUID, error)
	ActivateTemplate(ctx context.Context, id uuid.UUID) error
	DeactivateTemplate(ctx context.Context, id uuid.UUID) error
	ListActiveTemplates(ctx context.Context) ([]TemplateSummary, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
}

type CreateRequest struct {
	Name    string
	Content string
	Key     string
	OwnerID uuid.UUID
}

type templateService struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &templateService{
		repo:   repo,
		logger: logger.With(zap.String("service", "templates")),
	}
}

func (s *templateService) CreateTemplate(ctx context.Context, req CreateRequest) (uuid.UUID, error) {
	if strings.TrimSpace(req.Name) == "" {
		return uuid.Nil, apperrors.Validation("template name is required")
	}
	if strings.TrimSpace(req.Key) == "" {
		return uuid.Nil, apperrors.Validation("template key is required")
	}

	tpl := &Template{
		ID:        uuid.New(),
		Name:      req.Name,
		Content:   req.Content,
		Key:       req.Key,
		Active:    true,
		OwnerID:   req.OwnerID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateTemplate(ctx, tpl); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("template created",
		zap.String("template_id", tpl.ID.String()),
		zap.String("key", tpl.Key))
	return tpl.ID, nil
}

// ActivateTemplate is idempotent and never touches existing documents.
func (s *templateService) ActivateTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

// DeactivateTemplate hides the template from new documents only. In-flight
// documents keep referencing it so they remain renderable.
func (s *templateService) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *templateService) ListActiveTemplates(ctx context.Context) ([]TemplateSummary, error) {
	return s.repo.ListActiveTemplates(ctx)
}

// GetTemplate resolves regardless of the active flag; historical documents
// must still render.
func (s *templateService) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetTemplateByID(ctx, id)
}
