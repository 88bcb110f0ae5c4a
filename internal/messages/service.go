package messages

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custconnect/custconnect-backend/internal/notifications"
	"github.com/custconnect/custconnect-backend/internal/realtime"
	"github.com/custconnect/custconnect-backend/pkg/db"
	"github.com/custconnect/custconnect-backend/pkg/db/models"
	"github.com/custconnect/custconnect-backend/pkg/enums"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

const maxBodyLength = 4000

// SendRequest is the payload for sending a direct message.
type SendRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	Body        string    `json:"body" validate:"required"`
}

// MessageDTO is the transport shape for a direct message.
type MessageDTO struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service defines direct-message operations.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, senderName string, req SendRequest) (*MessageDTO, error)
	Conversation(ctx context.Context, userID, otherID uuid.UUID, params pagination.Params) ([]MessageDTO, error)
}

type recipientDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type notifier interface {
	Notify(ctx context.Context, dto notifications.CreateNotificationDTO) (*notifications.NotificationDTO, error)
}

type pusher interface {
	Publish(ctx context.Context, userID, event string, data any) error
}

type service struct {
	repo     Repository
	users    recipientDirectory
	notifier notifier
	push     pusher
	log      *logger.Logger
}

// NewService wires message dependencies. notifier and push may be nil.
func NewService(repo Repository, users recipientDirectory, n notifier, push pusher, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messages repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, users: users, notifier: n, push: push, log: log}, nil
}

// Send stores the message, pushes a new-message event to the recipient's
// live connections, and files a NEW_MESSAGE notification so offline
// recipients see it on next refresh.
func (s *service) Send(ctx context.Context, senderID uuid.UUID, senderName string, req SendRequest) (*MessageDTO, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}
	if len(body) > maxBodyLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}
	if req.RecipientID == uuid.Nil || req.RecipientID == senderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient")
	}

	recipient, err := s.users.FindByID(ctx, req.RecipientID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup recipient")
	}
	if !recipient.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipient not found")
	}

	record := &models.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipient.ID,
		Body:        body,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store message")
	}

	dto := MessageDTO{
		ID:          record.ID,
		SenderID:    record.SenderID,
		RecipientID: record.RecipientID,
		Body:        record.Body,
		CreatedAt:   record.CreatedAt,
	}

	if s.push != nil {
		if err := s.push.Publish(ctx, recipient.ID.String(), realtime.EventNewMessage, dto); err != nil {
			s.log.Warn(s.log.WithFields(ctx, map[string]any{
				"message_id": record.ID.String(),
				"error":      err.Error(),
			}), "messages: push failed")
		}
	}
	if s.notifier != nil {
		title := "New message"
		if senderName != "" {
			title = "New message from " + senderName
		}
		if _, err := s.notifier.Notify(ctx, notifications.CreateNotificationDTO{
			UserID:   recipient.ID,
			Category: enums.NotificationCategoryNewMessage,
			Title:    title,
			Message:  preview(body),
		}); err != nil {
			s.log.Warn(s.log.WithFields(ctx, map[string]any{
				"message_id": record.ID.String(),
				"error":      err.Error(),
			}), "messages: notification failed")
		}
	}

	return &dto, nil
}

func (s *service) Conversation(ctx context.Context, userID, otherID uuid.UUID, params pagination.Params) ([]MessageDTO, error) {
	if userID == uuid.Nil || otherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation party required")
	}
	rows, err := s.repo.ListConversation(ctx, userID, otherID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversation")
	}
	out := make([]MessageDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MessageDTO{
			ID:          row.ID,
			SenderID:    row.SenderID,
			RecipientID: row.RecipientID,
			Body:        row.Body,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func preview(body string) string {
	const max = 120
	if len(body) <= max {
		return body
	}
	return body[:max] + "…"
}
