package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/custconnect/custconnect-backend/pkg/db/models"
	"github.com/custconnect/custconnect-backend/pkg/enums"
)

// NotificationDTO is the transport shape for a single notification. Read is
// derived from read_at; clients compute their unread badge from it.
type NotificationDTO struct {
	ID        uuid.UUID                  `json:"id"`
	UserID    uuid.UUID                  `json:"user_id"`
	Category  enums.NotificationCategory `json:"category"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Link      *string                    `json:"link,omitempty"`
	Read      bool                       `json:"read"`
	CreatedAt time.Time                  `json:"created_at"`
}

// CreateNotificationDTO holds the data needed to notify a single user.
type CreateNotificationDTO struct {
	UserID   uuid.UUID
	Category enums.NotificationCategory
	Title    string
	Message  string
	Link     *string
}

// BroadcastRequest targets a set of users, or every active user when
// UserIDs is empty.
type BroadcastRequest struct {
	Category enums.NotificationCategory `json:"category" validate:"required"`
	Title    string                     `json:"title" validate:"required"`
	Message  string                     `json:"message" validate:"required"`
	Link     *string                    `json:"link,omitempty"`
	UserIDs  []uuid.UUID                `json:"user_ids,omitempty"`
}

func fromModel(n *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		Category:  n.Category,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.IsRead(),
		CreatedAt: n.CreatedAt,
	}
}

func fromModels(rows []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out
}
