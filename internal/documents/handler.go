package documents

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/auth"
	"workhub/office-portal/office-portal-backend/internal/history"
	"workhub/office-portal/office-portal-backend/internal/notify"
	"workhub/office-portal/office-portal-backend/pkg/apperrors"
)

type Handler struct {
	service    Service
	workflow   *WorkflowService
	dispatcher notify.Dispatcher
	recorder   history.Recorder
	logger     *zap.Logger
}

func NewHandler(service Service, workflow *WorkflowService, dispatcher notify.Dispatcher, recorder history.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		workflow:   workflow,
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     logger.With(zap.String("handler", "documents")),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("", h.Create)
		docs.GET("/drafts", h.MyDrafts)
		docs.GET("/tasks", h.MyTasks)
		docs.GET("/:id", h.Detail)
		docs.DELETE("/:id", h.Delete)
		docs.POST("/:id/approve", h.Approve)
		docs.POST("/:id/reject", h.Reject)
		docs.GET("/:id/history", h.History)
		docs.GET("/:id/files/:fileId", h.DownloadFile)
		docs.PUT("/:id/files/:fileId/hide", h.HideFile)
	}
}

func (h *Handler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}

	templateID, err := uuid.Parse(c.PostForm("template_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template_id"})
		return
	}

	approverIDs := []uuid.UUID{}
	for _, raw := range strings.Split(c.PostForm("approver_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approver id: " + raw})
			return
		}
		approverIDs = append(approverIDs, id)
	}

	attachments := []Attachment{}
	closers := []func() error{}
	defer func() {
		for _, close := range closers {
			_ = close()
		}
	}()
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		closers = append(closers, f.Close)
		attachments = append(attachments, Attachment{
			Name:    fh.Filename,
			Size:    fh.Size,
			Content: f,
		})
	}

	id, err := h.service.CreateDocument(c.Request.Context(), CreateDocumentRequest{
		TemplateID:  templateID,
		Title:       c.PostForm("title"),
		Content:     c.PostForm("content"),
		ApproverIDs: approverIDs,
		DrafterID:   auth.ActorID(c),
		Attachments: attachments,
	})
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if len(approverIDs) > 0 {
		h.dispatch(notify.Event{
			DocumentID:         id,
			NewStatus:          string(StatusInProgress),
			AffectedApproverID: approverIDs[0],
		})
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) MyDrafts(c *gin.Context) {
	summaries, err := h.service.GetMyDrafts(c.Request.Context(), auth.ActorID(c))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) MyTasks(c *gin.Context) {
	summaries, err := h.service.GetMyTasks(c.Request.Context(), auth.ActorID(c))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	detail, err := h.service.GetDocumentDetail(c.Request.Context(), id, auth.ActorID(c))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), id, auth.ActorID(c)); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Approve(c *gin.Context) {
	h.process(c, true)
}

func (h *Handler) Reject(c *gin.Context) {
	h.process(c, false)
}

func (h *Handler) process(c *gin.Context, approve bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	// an absent body means no comment; the comment rules live in the workflow
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID := auth.ActorID(c)
	var change *TransitionChange
	if approve {
		change, err = h.workflow.Approve(c.Request.Context(), id, req.Comment, actorID)
	} else {
		change, err = h.workflow.Reject(c.Request.Context(), id, req.Comment, actorID)
	}
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	affected := change.NextApproverID
	if affected == uuid.Nil {
		// workflow resolved; tell the drafter
		affected = change.Document.DrafterID
	}
	h.dispatch(notify.Event{
		DocumentID:         id,
		NewStatus:          string(change.Document.Status),
		AffectedApproverID: affected,
	})

	c.JSON(http.StatusOK, gin.H{"status": change.Document.Status})
}

func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	// same visibility rule as the detail view
	if _, err := h.service.GetDocumentDetail(c.Request.Context(), id, auth.ActorID(c)); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	entries, err := h.recorder.List(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) DownloadFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	reader, file, err := h.service.OpenFile(c.Request.Context(), id, fileID, auth.ActorID(c))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+file.OriginalName+"\"")
	c.DataFromReader(http.StatusOK, file.Size, "application/octet-stream", reader, nil)
}

func (h *Handler) HideFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	if err := h.service.HideFile(c.Request.Context(), id, fileID, auth.ActorID(c)); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

// dispatch is fire-and-forget; the transition already committed.
func (h *Handler) dispatch(event notify.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.dispatcher.Dispatch(ctx, event); err != nil {
			h.logger.Warn("notification dispatch failed",
				zap.String("document_id", event.DocumentID.String()),
				zap.Error(err))
		}
	}()
}
