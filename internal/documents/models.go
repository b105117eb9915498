package documents

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "DRAFT"
	StatusInProgress DocumentStatus = "IN_PROGRESS"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusRejected   DocumentStatus = "REJECTED"
)

type LineStatus string

const (
	LineWaiting  LineStatus = "WAITING"
	LineApproved LineStatus = "APPROVED"
	LineRejected LineStatus = "REJECTED"
)

// Document is the root of the approval workflow. It owns its approval lines
// and files; they are created with it and never independently.
type Document struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Content     string         `json:"content" db:"content"`
	Status      DocumentStatus `json:"status" db:"status"`
	DrafterID   uuid.UUID      `json:"drafter_id" db:"drafter_id"`
	TemplateID  uuid.UUID      `json:"template_id" db:"template_id"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	Deleted     bool           `json:"-" db:"deleted"`
}

// ApprovalLine is one ordered, single-approver entry in a document's chain.
// Order is 1-based and contiguous within a document.
type ApprovalLine struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	DocumentID  uuid.UUID  `json:"document_id" db:"document_id"`
	ApproverID  uuid.UUID  `json:"approver_id" db:"approver_id"`
	Order       int        `json:"order" db:"line_order"`
	Status      LineStatus `json:"status" db:"status"`
	Comment     *string    `json:"comment,omitempty" db:"comment"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// File is an attachment stored at creation time. Content is immutable; only
// visibility can change afterward.
type File struct {
	ID           uuid.UUID `json:"id" db:"id"`
	DocumentID   uuid.UUID `json:"document_id" db:"document_id"`
	OriginalName string    `json:"original_name" db:"original_name"`
	StorageKey   string    `json:"storage_key" db:"storage_key"`
	Size         int64     `json:"size" db:"size"`
	Hidden       bool      `json:"-" db:"hidden"`
}

// DocumentSummary is the projection returned by the drafts and tasks views.
type DocumentSummary struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Title     string         `json:"title" db:"title"`
	Status    DocumentStatus `json:"status" db:"status"`
	DrafterID uuid.UUID      `json:"drafter_id" db:"drafter_id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// ApprovalLineView decorates a line with the approver's display name.
type ApprovalLineView struct {
	ApprovalLine
	ApproverName string `json:"approver_name"`
}

// DocumentDetail is the full view granted to the drafter and to everyone
// ever placed on the routing.
type DocumentDetail struct {
	Document
	DrafterName string             `json:"drafter_name"`
	Lines       []ApprovalLineView `json:"lines"`
	Files       []File             `json:"files"`
}

// CurrentLine returns the approval line with the lowest order among those
// still WAITING, or nil when the workflow is resolved. At most one line per
// document is ever current.
func CurrentLine(lines []ApprovalLine) *ApprovalLine {
	var current *ApprovalLine
	for i := range lines {
		if lines[i].Status != LineWaiting {
			continue
		}
		if current == nil || lines[i].Order < current.Order {
			current = &lines[i]
		}
	}
	return current
}
