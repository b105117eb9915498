package documents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/auth"
	"workhub/office-portal/office-portal-backend/internal/history"
	"workhub/office-portal/office-portal-backend/internal/notify"
	"workhub/office-portal/office-portal-backend/internal/templates"
	"workhub/office-portal/office-portal-backend/internal/users"
	"workhub/office-portal/office-portal-backend/pkg/storage"
)

// newHandlerRouter wires the real handler over the in-memory repository. The
// test middleware takes the actor from a header instead of a bearer token.
func newHandlerRouter(t *testing.T) (*gin.Engine, *workflowFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newWorkflowFixture()
	service := NewService(f.repo,
		&stubTemplates{known: map[uuid.UUID]*templates.Template{}},
		&stubDirectory{users: map[uuid.UUID]*users.User{}},
		NewStorageProvider(storage.NewMemoryStore()),
		history.NopRecorder{}, zap.NewNop())
	handler := NewHandler(service, f.workflow, notify.NopDispatcher{}, history.NopRecorder{}, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader("X-Actor-ID")); err == nil {
			auth.SetActorID(c, id)
		}
	})
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r, f
}

func TestApproveWithoutBody(t *testing.T) {
	r, f := newHandlerRouter(t)
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+docID.String()+"/approve", nil)
	req.Header.Set("X-Actor-ID", approverA.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// comments are optional on approve; an empty body succeeds
	assert.Equal(t, http.StatusOK, w.Code)

	lines, _ := f.repo.GetApprovalLines(context.Background(), docID)
	assert.Equal(t, LineApproved, lines[0].Status)
}

func TestRejectWithoutBody(t *testing.T) {
	r, f := newHandlerRouter(t)
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+docID.String()+"/reject", nil)
	req.Header.Set("X-Actor-ID", approverA.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// the missing-comment rule answers, not the body parser
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "comment")

	lines, _ := f.repo.GetApprovalLines(context.Background(), docID)
	assert.Equal(t, LineWaiting, lines[0].Status)
}

func TestApproveMalformedBody(t *testing.T) {
	r, f := newHandlerRouter(t)
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/documents/"+docID.String()+"/approve", strings.NewReader("{not json"))
	req.Header.Set("X-Actor-ID", approverA.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	lines, _ := f.repo.GetApprovalLines(context.Background(), docID)
	assert.Equal(t, LineWaiting, lines[0].Status)
}
