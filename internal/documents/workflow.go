package documents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/history"
	"workhub/office-portal/office-portal-backend/pkg/apperrors"
	"workhub/office-portal/office-portal-backend/pkg/workflows"
)

// WorkflowService applies approve/reject decisions. All checks and writes
// happen inside the repository's locked transaction, so two approvers racing
// on the same turn resolve deterministically: the loser observes
// InvalidState or Forbidden, never a duplicate write.
type WorkflowService struct {
	repo     Repository
	recorder history.Recorder
	docSM    *workflows.StateMachine
	lineSM   *workflows.StateMachine
	logger   *zap.Logger
}

func NewWorkflowService(repo Repository, recorder history.Recorder, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{
		repo:     repo,
		recorder: recorder,
		docSM:    workflows.NewDocumentStateMachine(),
		lineSM:   workflows.NewLineStateMachine(),
		logger:   logger.With(zap.String("service", "workflow")),
	}
}

// Approve processes the current line for actorID. When the last line is
// approved the document completes.
func (s *WorkflowService) Approve(ctx context.Context, documentID uuid.UUID, comment string, actorID uuid.UUID) (*TransitionChange, error) {
	change, err := s.decide(ctx, documentID, actorID, comment, LineApproved)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, history.ActionHistory{
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     "APPROVE",
		Comment:    comment,
	})
	s.logger.Info("document approved",
		zap.String("document_id", documentID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("document_status", string(change.Document.Status)))
	return change, nil
}

// Reject halts the workflow immediately. Lines after the rejected one stay
// WAITING forever as inert history; they are not retracted.
func (s *WorkflowService) Reject(ctx context.Context, documentID uuid.UUID, comment string, actorID uuid.UUID) (*TransitionChange, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, apperrors.Validation("rejection comment is required")
	}

	change, err := s.decide(ctx, documentID, actorID, comment, LineRejected)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, history.ActionHistory{
		DocumentID: documentID,
		ActorID:    actorID,
		Action:     "REJECT",
		Comment:    comment,
	})
	s.logger.Info("document rejected",
		zap.String("document_id", documentID.String()),
		zap.String("actor_id", actorID.String()))
	return change, nil
}

func (s *WorkflowService) decide(ctx context.Context, documentID, actorID uuid.UUID, comment string, target LineStatus) (*TransitionChange, error) {
	return s.repo.Transition(ctx, documentID, func(doc *Document, lines []ApprovalLine) (*TransitionChange, error) {
		if doc.Deleted {
			return nil, apperrors.NotFound("document %s not found", documentID)
		}
		if doc.Status != StatusInProgress {
			return nil, apperrors.InvalidState("document is %s, not IN_PROGRESS", doc.Status)
		}

		current := CurrentLine(lines)
		if current == nil {
			return nil, apperrors.InvalidState("approval workflow already resolved")
		}
		if current.ApproverID != actorID {
			return nil, apperrors.Forbidden("not your turn to process this document")
		}
		if !s.lineSM.CanTransition(string(current.Status), string(target)) {
			return nil, apperrors.InvalidState("line is %s and cannot become %s", current.Status, target)
		}

		now := time.Now()
		current.Status = target
		current.Comment = &comment
		current.ProcessedAt = &now

		change := &TransitionChange{Document: doc, Line: current}

		switch target {
		case LineApproved:
			next := CurrentLine(lines)
			if next == nil {
				if !s.docSM.CanTransition(string(doc.Status), string(StatusCompleted)) {
					return nil, apperrors.InvalidState("document cannot complete from %s", doc.Status)
				}
				doc.Status = StatusCompleted
				doc.CompletedAt = &now
			} else {
				change.NextApproverID = next.ApproverID
			}
		case LineRejected:
			if !s.docSM.CanTransition(string(doc.Status), string(StatusRejected)) {
				return nil, apperrors.InvalidState("document cannot be rejected from %s", doc.Status)
			}
			doc.Status = StatusRejected
		}

		return change, nil
	})
}
