package documents

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/history"
	"workhub/office-portal/office-portal-backend/internal/templates"
	"workhub/office-portal/office-portal-backend/internal/users"
	"workhub/office-portal/office-portal-backend/pkg/apperrors"
	"workhub/office-portal/office-portal-backend/pkg/workflows"
)

const maxTitleLength = 200

type Service interface {
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (uuid.UUID, error)
	GetMyDrafts(ctx context.Context, userID uuid.UUID) ([]DocumentSummary, error)
	GetMyTasks(ctx context.Context, userID uuid.UUID) ([]DocumentSummary, error)
	GetDocumentDetail(ctx context.Context, documentID, actorID uuid.UUID) (*DocumentDetail, error)
	DeleteDocument(ctx context.Context, documentID, actorID uuid.UUID) error
	HideFile(ctx context.Context, documentID, fileID, actorID uuid.UUID) error
	OpenFile(ctx context.Context, documentID, fileID, actorID uuid.UUID) (io.ReadCloser, *File, error)
}

// Attachment is an inbound file at creation time.
type Attachment struct {
	Name    string
	Size    int64
	Content io.Reader
}

type CreateDocumentRequest struct {
	TemplateID  uuid.UUID
	Title       string
	Content     string
	ApproverIDs []uuid.UUID
	DrafterID   uuid.UUID
	Attachments []Attachment
}

type documentService struct {
	repo      Repository
	templates templates.Service
	directory users.Directory
	storage   *StorageProvider
	recorder  history.Recorder
	docSM     *workflows.StateMachine
	logger    *zap.Logger
}

func NewService(
	repo Repository,
	tpls templates.Service,
	directory users.Directory,
	storage *StorageProvider,
	recorder history.Recorder,
	logger *zap.Logger,
) Service {
	return &documentService{
		repo:      repo,
		templates: tpls,
		directory: directory,
		storage:   storage,
		recorder:  recorder,
		docSM:     workflows.NewDocumentStateMachine(),
		logger:    logger.With(zap.String("service", "documents")),
	}
}

// CreateDocument builds the document with its full approval chain and
// submits it. Submission is part of creation; there is no separate draft
// save step.
func (s *documentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (uuid.UUID, error) {
	if _, err := s.templates.GetTemplate(ctx, req.TemplateID); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.directory.FindByID(ctx, req.DrafterID); err != nil {
		return uuid.Nil, err
	}
	for _, approverID := range req.ApproverIDs {
		if _, err := s.directory.FindByID(ctx, approverID); err != nil {
			return uuid.Nil, err
		}
	}
	if len(req.ApproverIDs) == 0 {
		return uuid.Nil, apperrors.Validation("approver list must not be empty")
	}
	if strings.TrimSpace(req.Title) == "" {
		return uuid.Nil, apperrors.Validation("title is required")
	}
	if len(req.Title) > maxTitleLength {
		return uuid.Nil, apperrors.Validation("title exceeds %d characters", maxTitleLength)
	}

	now := time.Now()
	doc := &Document{
		ID:         uuid.New(),
		Title:      req.Title,
		Content:    req.Content,
		Status:     StatusDraft,
		DrafterID:  req.DrafterID,
		TemplateID: req.TemplateID,
		CreatedAt:  now,
	}

	lines := make([]ApprovalLine, 0, len(req.ApproverIDs))
	for i, approverID := range req.ApproverIDs {
		lines = append(lines, ApprovalLine{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ApproverID: approverID,
			Order:      i + 1,
			Status:     LineWaiting,
		})
	}

	files := make([]File, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		key, err := s.storage.StoreAttachment(ctx, doc.ID, att.Name, att.Content)
		if err != nil {
			return uuid.Nil, err
		}
		files = append(files, File{
			ID:           uuid.New(),
			DocumentID:   doc.ID,
			OriginalName: att.Name,
			StorageKey:   key,
			Size:         att.Size,
		})
	}

	if !s.docSM.CanTransition(string(StatusDraft), string(StatusInProgress)) {
		return uuid.Nil, apperrors.InvalidState("document cannot be submitted")
	}
	doc.Status = StatusInProgress

	if err := s.repo.CreateDocument(ctx, doc, lines, files); err != nil {
		s.discardAttachments(ctx, files)
		return uuid.Nil, err
	}

	s.recorder.Record(ctx, history.ActionHistory{
		DocumentID: doc.ID,
		ActorID:    req.DrafterID,
		Action:     "CREATE",
	})
	s.logger.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.Int("approvers", len(lines)),
		zap.Int("files", len(files)))

	return doc.ID, nil
}

// discardAttachments removes objects uploaded for a document whose insert
// failed. Failures here leave orphans behind and are only logged.
func (s *documentService) discardAttachments(ctx context.Context, files []File) {
	for _, file := range files {
		if err := s.storage.RemoveAttachment(ctx, file.StorageKey); err != nil {
			s.logger.Warn("failed to remove orphaned attachment",
				zap.String("storage_key", file.StorageKey),
				zap.Error(err))
		}
	}
}

func (s *documentService) GetMyDrafts(ctx context.Context, userID uuid.UUID) ([]DocumentSummary, error) {
	return s.repo.ListByDrafter(ctx, userID)
}

func (s *documentService) GetMyTasks(ctx context.Context, userID uuid.UUID) ([]DocumentSummary, error) {
	return s.repo.ListTasksForApprover(ctx, userID)
}

// GetDocumentDetail grants visibility to the drafter and to every approver
// ever placed on the routing, current turn or not.
func (s *documentService) GetDocumentDetail(ctx context.Context, documentID, actorID uuid.UUID) (*DocumentDetail, error) {
	doc, lines, err := s.loadVisible(ctx, documentID, actorID)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{Document: *doc}

	if drafter, err := s.directory.FindByID(ctx, doc.DrafterID); err == nil {
		detail.DrafterName = drafter.Name
	}

	detail.Lines = make([]ApprovalLineView, 0, len(lines))
	for _, line := range lines {
		view := ApprovalLineView{ApprovalLine: line}
		if approver, err := s.directory.FindByID(ctx, line.ApproverID); err == nil {
			view.ApproverName = approver.Name
		}
		detail.Lines = append(detail.Lines, view)
	}

	files, err := s.repo.ListVisibleFiles(ctx, documentID)
	if err != nil {
		return nil, err
	}
	detail.Files = files

	return detail, nil
}

// DeleteDocument soft-deletes; rows stay behind for audit but vanish from
// every active-state query.
func (s *documentService) DeleteDocument(ctx context.Context, documentID, actorID uuid.UUID) error {
	doc, err := s.repo.GetDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Deleted {
		return apperrors.NotFound("document %s not found", documentID)
	}
	if doc.DrafterID != actorID {
		return apperrors.Forbidden("only the drafter may delete a document")
	}

	if err := s.repo.SoftDelete(ctx, documentID); err != nil {
		return err
	}

	s.recorder.Record(ctx, history.ActionHistory{
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     "DELETE",
	})
	return nil
}

func (s *documentService) HideFile(ctx context.Context, documentID, fileID, actorID uuid.UUID) error {
	doc, err := s.repo.GetDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Deleted {
		return apperrors.NotFound("document %s not found", documentID)
	}
	if doc.DrafterID != actorID {
		return apperrors.Forbidden("only the drafter may hide a file")
	}
	if _, err := s.repo.GetFileByID(ctx, documentID, fileID); err != nil {
		return err
	}

	if err := s.repo.SetFileHidden(ctx, fileID, true); err != nil {
		return err
	}

	s.recorder.Record(ctx, history.ActionHistory{
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     "HIDE_FILE",
	})
	return nil
}

func (s *documentService) OpenFile(ctx context.Context, documentID, fileID, actorID uuid.UUID) (io.ReadCloser, *File, error) {
	if _, _, err := s.loadVisible(ctx, documentID, actorID); err != nil {
		return nil, nil, err
	}

	file, err := s.repo.GetFileByID(ctx, documentID, fileID)
	if err != nil {
		return nil, nil, err
	}
	if file.Hidden {
		return nil, nil, apperrors.NotFound("file %s not found", fileID)
	}

	reader, err := s.storage.OpenAttachment(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return reader, file, nil
}

// loadVisible applies the NotFound-on-deleted and routing-membership rules
// shared by detail and file access.
func (s *documentService) loadVisible(ctx context.Context, documentID, actorID uuid.UUID) (*Document, []ApprovalLine, error) {
	doc, err := s.repo.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.Deleted {
		return nil, nil, apperrors.NotFound("document %s not found", documentID)
	}

	lines, err := s.repo.GetApprovalLines(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	if doc.DrafterID != actorID && !onRouting(lines, actorID) {
		return nil, nil, apperrors.Forbidden("no visibility on document %s", documentID)
	}
	return doc, lines, nil
}

func onRouting(lines []ApprovalLine, userID uuid.UUID) bool {
	for _, line := range lines {
		if line.ApproverID == userID {
			return true
		}
	}
	return false
}
