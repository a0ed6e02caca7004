package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant scopes every shift, movement, sale, and user. Row-level filtering by
// tenant_id is applied in the repository layer on every query.
type Tenant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"not null"`
	Currency string    `gorm:"type:varchar(3);not null;default:'MXN'"`
	// BranchName appears on closing-report headers.
	BranchName *string
	Active     bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
