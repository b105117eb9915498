package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActionHistory is one audit record per document action. Rows are written
// best-effort and never removed; soft-deleted documents keep their history.
type ActionHistory struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	DocumentID  uuid.UUID      `json:"document_id" gorm:"type:uuid;not null;index"`
	ActorID     uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null;index"`
	Action      string         `json:"action" gorm:"not null"` // CREATE, APPROVE, REJECT, DELETE, HIDE_FILE
	Comment     string         `json:"comment"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	PerformedAt time.Time      `json:"performed_at" gorm:"autoCreateTime;index"`
}

func (ActionHistory) TableName() string {
	return "document_action_history"
}
