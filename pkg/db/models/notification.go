package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/custconnect/custconnect-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID                  `gorm:"type:uuid;not null;index" json:"user_id"`
	Category  enums.NotificationCategory `gorm:"type:notification_category;not null" json:"category"`
	Title     string                     `gorm:"type:text;not null" json:"title"`
	Message   string                     `gorm:"type:text;not null" json:"message"`
	Link      *string                    `gorm:"type:text" json:"link,omitempty"`
	ReadAt    *time.Time                 `gorm:"type:timestamptz" json:"read_at,omitempty"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;default:now()" json:"created_at"`
}

// IsRead reports whether the record has been acknowledged.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
