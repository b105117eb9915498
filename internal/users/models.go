package users

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Role       string    `json:"role" db:"role"`
	Department string    `json:"department" db:"department"`
	JobGrade   string    `json:"job_grade" db:"job_grade"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
