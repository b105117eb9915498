package templates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTemplate(ctx context.Context, tpl *Template) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}

func (m *MockRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *MockRepository) ListActiveTemplates(ctx context.Context) ([]TemplateSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]TemplateSummary), args.Error(1)
}

func (m *MockRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func TestCreateTemplate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()
	ownerID := uuid.New()

	var captured *Template
	mockRepo.On("CreateTemplate", ctx, mock.AnythingOfType("*templates.Template")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*Template) }).
		Return(nil)

	id, err := service.CreateTemplate(ctx, CreateRequest{
		Name:    "Leave Request",
		Content: "{\"fields\":[\"from\",\"to\",\"reason\"]}",
		Key:     "leave-request",
		OwnerID: ownerID,
	})

	assert.NoError(t, err)
	assert.Equal(t, captured.ID, id)
	assert.True(t, captured.Active)
	assert.Equal(t, ownerID, captured.OwnerID)
	mockRepo.AssertExpectations(t)
}

func TestCreateTemplateValidation(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	_, err := service.CreateTemplate(ctx, CreateRequest{Name: "", Key: "k"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = service.CreateTemplate(ctx, CreateRequest{Name: "n", Key: "  "})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	mockRepo.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything)
}

func TestCreateTemplateDuplicateKey(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	mockRepo.On("CreateTemplate", ctx, mock.AnythingOfType("*templates.Template")).
		Return(apperrors.Conflict("template key %q already exists", "leave-request"))

	_, err := service.CreateTemplate(ctx, CreateRequest{Name: "Leave", Key: "leave-request"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestActivateDeactivate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()
	id := uuid.New()

	mockRepo.On("SetActive", ctx, id, false).Return(nil).Twice()
	// idempotent: deactivating twice is fine
	assert.NoError(t, service.DeactivateTemplate(ctx, id))
	assert.NoError(t, service.DeactivateTemplate(ctx, id))

	mockRepo.On("SetActive", ctx, id, true).Return(nil)
	assert.NoError(t, service.ActivateTemplate(ctx, id))
	mockRepo.AssertExpectations(t)
}

func TestGetTemplateIgnoresActiveFlag(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	inactive := &Template{ID: uuid.New(), Name: "Old Form", Key: "old-form", Active: false}
	mockRepo.On("GetTemplateByID", ctx, inactive.ID).Return(inactive, nil)

	tpl, err := service.GetTemplate(ctx, inactive.ID)
	assert.NoError(t, err)
	assert.False(t, tpl.Active)
}
