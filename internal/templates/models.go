package templates

import (
	"time"

	"github.com/google/uuid"
)

// Template is a reusable approval-form definition. Content is an opaque
// string handed unmodified to external renderers.
type Template struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Content   string    `json:"content" db:"content"`
	Key       string    `json:"key" db:"template_key"`
	Active    bool      `json:"active" db:"active"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TemplateSummary is the list-view projection.
type TemplateSummary struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Key  string    `json:"key" db:"template_key"`
}
