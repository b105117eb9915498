package documents

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/history"
	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

// fakeRepository keeps documents in memory and serializes Transition with a
// mutex, mirroring the row lock the postgres repository takes.
type fakeRepository struct {
	mu    sync.Mutex
	docs  map[uuid.UUID]*Document
	lines map[uuid.UUID][]ApprovalLine
	files map[uuid.UUID][]File
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		docs:  make(map[uuid.UUID]*Document),
		lines: make(map[uuid.UUID][]ApprovalLine),
		files: make(map[uuid.UUID][]File),
	}
}

func (f *fakeRepository) CreateDocument(ctx context.Context, doc *Document, lines []ApprovalLine, files []File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *doc
	f.docs[doc.ID] = &copied
	f.lines[doc.ID] = append([]ApprovalLine{}, lines...)
	f.files[doc.ID] = append([]File{}, files...)
	return nil
}

func (f *fakeRepository) GetDocumentByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, apperrors.NotFound("document %s not found", id)
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeRepository) GetApprovalLines(ctx context.Context, documentID uuid.UUID) ([]ApprovalLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ApprovalLine{}, f.lines[documentID]...), nil
}

func (f *fakeRepository) ListVisibleFiles(ctx context.Context, documentID uuid.UUID) ([]File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	visible := []File{}
	for _, file := range f.files[documentID] {
		if !file.Hidden {
			visible = append(visible, file)
		}
	}
	return visible, nil
}

func (f *fakeRepository) GetFileByID(ctx context.Context, documentID, fileID uuid.UUID) (*File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files[documentID] {
		if file.ID == fileID {
			copied := file
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("file %s not found", fileID)
}

func (f *fakeRepository) SetFileHidden(ctx context.Context, fileID uuid.UUID, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for docID, files := range f.files {
		for i := range files {
			if files[i].ID == fileID {
				f.files[docID][i].Hidden = hidden
				return nil
			}
		}
	}
	return nil
}

func (f *fakeRepository) ListByDrafter(ctx context.Context, drafterID uuid.UUID) ([]DocumentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summaries := []DocumentSummary{}
	for _, doc := range f.docs {
		if doc.DrafterID == drafterID && !doc.Deleted {
			summaries = append(summaries, DocumentSummary{
				ID: doc.ID, Title: doc.Title, Status: doc.Status,
				DrafterID: doc.DrafterID, CreatedAt: doc.CreatedAt,
			})
		}
	}
	return summaries, nil
}

func (f *fakeRepository) ListTasksForApprover(ctx context.Context, approverID uuid.UUID) ([]DocumentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summaries := []DocumentSummary{}
	for _, doc := range f.docs {
		if doc.Status != StatusInProgress || doc.Deleted {
			continue
		}
		current := CurrentLine(f.lines[doc.ID])
		if current != nil && current.ApproverID == approverID {
			summaries = append(summaries, DocumentSummary{
				ID: doc.ID, Title: doc.Title, Status: doc.Status,
				DrafterID: doc.DrafterID, CreatedAt: doc.CreatedAt,
			})
		}
	}
	return summaries, nil
}

func (f *fakeRepository) Transition(ctx context.Context, id uuid.UUID, apply TransitionFunc) (*TransitionChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		return nil, apperrors.NotFound("document %s not found", id)
	}

	docCopy := *doc
	linesCopy := append([]ApprovalLine{}, f.lines[id]...)

	change, err := apply(&docCopy, linesCopy)
	if err != nil {
		return nil, err
	}

	f.docs[id] = &docCopy
	f.lines[id] = linesCopy
	return change, nil
}

func (f *fakeRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[id]; ok {
		doc.Deleted = true
	}
	return nil
}

type workflowFixture struct {
	repo      *fakeRepository
	workflow  *WorkflowService
	drafterID uuid.UUID
}

func newWorkflowFixture() *workflowFixture {
	repo := newFakeRepository()
	return &workflowFixture{
		repo:      repo,
		workflow:  NewWorkflowService(repo, history.NopRecorder{}, zap.NewNop()),
		drafterID: uuid.New(),
	}
}

func (f *workflowFixture) seedDocument(t *testing.T, approverIDs ...uuid.UUID) uuid.UUID {
	t.Helper()
	docID := uuid.New()
	lines := make([]ApprovalLine, 0, len(approverIDs))
	for i, approverID := range approverIDs {
		lines = append(lines, ApprovalLine{
			ID: uuid.New(), DocumentID: docID, ApproverID: approverID,
			Order: i + 1, Status: LineWaiting,
		})
	}
	err := f.repo.CreateDocument(context.Background(), &Document{
		ID: docID, Title: "Purchase Request", Status: StatusInProgress,
		DrafterID: f.drafterID, TemplateID: uuid.New(), CreatedAt: time.Now(),
	}, lines, nil)
	assert.NoError(t, err)
	return docID
}

func taskIDs(t *testing.T, repo Repository, userID uuid.UUID) []uuid.UUID {
	t.Helper()
	summaries, err := repo.ListTasksForApprover(context.Background(), userID)
	assert.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestTasksSurfaceOnlyCurrentTurn(t *testing.T) {
	f := newWorkflowFixture()
	approverA, approverB := uuid.New(), uuid.New()
	docID := f.seedDocument(t, approverA, approverB)

	assert.Equal(t, []uuid.UUID{docID}, taskIDs(t, f.repo, approverA))
	assert.Empty(t, taskIDs(t, f.repo, approverB))
}

func TestApproveAdvancesToNextApprover(t *testing.T) {
	f := newWorkflowFixture()
	approverA, approverB := uuid.New(), uuid.New()
	docID := f.seedDocument(t, approverA, approverB)

	change, err := f.workflow.Approve(context.Background(), docID, "ok", approverA)
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, change.Document.Status)
	assert.Equal(t, approverB, change.NextApproverID)

	lines, _ := f.repo.GetApprovalLines(context.Background(), docID)
	assert.Equal(t, LineApproved, lines[0].Status)
	assert.Equal(t, "ok", *lines[0].Comment)
	assert.NotNil(t, lines[0].ProcessedAt)
	assert.Equal(t, LineWaiting, lines[1].Status)

	// the turn has moved on
	assert.Empty(t, taskIDs(t, f.repo, approverA))
	assert.Equal(t, []uuid.UUID{docID}, taskIDs(t, f.repo, approverB))
}

func TestApproveLastApproverCompletes(t *testing.T) {
	f := newWorkflowFixture()
	approverA, approverB := uuid.New(), uuid.New()
	docID := f.seedDocument(t, approverA, approverB)
	ctx := context.Background()

	_, err := f.workflow.Approve(ctx, docID, "ok", approverA)
	assert.NoError(t, err)

	// not completed until the last line approves
	doc, _ := f.repo.GetDocumentByID(ctx, docID)
	assert.Equal(t, StatusInProgress, doc.Status)
	assert.Nil(t, doc.CompletedAt)

	change, err := f.workflow.Approve(ctx, docID, "fine", approverB)
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, change.Document.Status)
	assert.NotNil(t, change.Document.CompletedAt)
	assert.Equal(t, uuid.Nil, change.NextApproverID)

	assert.Empty(t, taskIDs(t, f.repo, approverA))
	assert.Empty(t, taskIDs(t, f.repo, approverB))
}

func TestRejectHaltsWorkflow(t *testing.T) {
	f := newWorkflowFixture()
	approverA, approverB, approverC := uuid.New(), uuid.New(), uuid.New()
	docID := f.seedDocument(t, approverA, approverB, approverC)
	ctx := context.Background()

	_, err := f.workflow.Approve(ctx, docID, "ok", approverA)
	assert.NoError(t, err)

	change, err := f.workflow.Reject(ctx, docID, "missing budget", approverB)
	assert.NoError(t, err)
	assert.Equal(t, StatusRejected, change.Document.Status)

	lines, _ := f.repo.GetApprovalLines(ctx, docID)
	assert.Equal(t, LineApproved, lines[0].Status)
	assert.Equal(t, LineRejected, lines[1].Status)
	assert.Equal(t, "missing budget", *lines[1].Comment)
	// downstream line stays WAITING forever as inert history
	assert.Equal(t, LineWaiting, lines[2].Status)
	assert.Nil(t, lines[2].ProcessedAt)

	assert.Empty(t, taskIDs(t, f.repo, approverA))
	assert.Empty(t, taskIDs(t, f.repo, approverB))
	assert.Empty(t, taskIDs(t, f.repo, approverC))
}

func TestRejectRequiresComment(t *testing.T) {
	f := newWorkflowFixture()
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)

	_, err := f.workflow.Reject(context.Background(), docID, "   ", approverA)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	lines, _ := f.repo.GetApprovalLines(context.Background(), docID)
	assert.Equal(t, LineWaiting, lines[0].Status)
}

func TestApproveOutOfTurnForbidden(t *testing.T) {
	f := newWorkflowFixture()
	approverA, approverB := uuid.New(), uuid.New()
	docID := f.seedDocument(t, approverA, approverB)

	_, err := f.workflow.Approve(context.Background(), docID, "jumping the queue", approverB)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestRejectAfterRejectInvalidState(t *testing.T) {
	f := newWorkflowFixture()
	approverA, approverB := uuid.New(), uuid.New()
	docID := f.seedDocument(t, approverA, approverB)
	ctx := context.Background()

	_, err := f.workflow.Reject(ctx, docID, "no", approverA)
	assert.NoError(t, err)

	// a second rejection never reapplies; it fails InvalidState
	_, err = f.workflow.Reject(ctx, docID, "still no", approverA)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))

	lines, _ := f.repo.GetApprovalLines(ctx, docID)
	assert.Equal(t, "no", *lines[0].Comment)
}

func TestApproveDeletedDocumentNotFound(t *testing.T) {
	f := newWorkflowFixture()
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)

	assert.NoError(t, f.repo.SoftDelete(context.Background(), docID))

	_, err := f.workflow.Approve(context.Background(), docID, "ok", approverA)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestApproveUnknownDocumentNotFound(t *testing.T) {
	f := newWorkflowFixture()

	_, err := f.workflow.Approve(context.Background(), uuid.New(), "ok", uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestSoftDeletedDocumentLeavesDraftsAndTasks(t *testing.T) {
	f := newWorkflowFixture()
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)
	ctx := context.Background()

	drafts, err := f.repo.ListByDrafter(ctx, f.drafterID)
	assert.NoError(t, err)
	assert.Len(t, drafts, 1)
	assert.Equal(t, []uuid.UUID{docID}, taskIDs(t, f.repo, approverA))

	assert.NoError(t, f.repo.SoftDelete(ctx, docID))

	drafts, err = f.repo.ListByDrafter(ctx, f.drafterID)
	assert.NoError(t, err)
	assert.Empty(t, drafts)
	assert.Empty(t, taskIDs(t, f.repo, approverA))
}

func TestConcurrentDoubleApprove(t *testing.T) {
	f := newWorkflowFixture()
	approverA := uuid.New()
	docID := f.seedDocument(t, approverA)
	ctx := context.Background()

	// the same approver double-submits; the lock serializes them and the
	// loser observes InvalidState, never a second APPROVED write
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.workflow.Approve(ctx, docID, "ok", approverA)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.Contains(t,
				[]apperrors.Kind{apperrors.KindInvalidState, apperrors.KindForbidden},
				apperrors.KindOf(err))
		}
	}
	assert.Equal(t, 1, successes)

	doc, _ := f.repo.GetDocumentByID(ctx, docID)
	assert.Equal(t, StatusCompleted, doc.Status)
}

func TestCurrentLine(t *testing.T) {
	docID := uuid.New()
	lines := []ApprovalLine{
		{DocumentID: docID, Order: 1, Status: LineApproved},
		{DocumentID: docID, Order: 2, Status: LineWaiting},
		{DocumentID: docID, Order: 3, Status: LineWaiting},
	}

	current := CurrentLine(lines)
	assert.NotNil(t, current)
	assert.Equal(t, 2, current.Order)

	lines[1].Status = LineApproved
	lines[2].Status = LineApproved
	assert.Nil(t, CurrentLine(lines))
}
