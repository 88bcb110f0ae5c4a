package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custconnect/custconnect-backend/internal/realtime"
	"github.com/custconnect/custconnect-backend/pkg/db/models"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

// Service defines notification list/read/delete and fan-out operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]NotificationDTO, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
	Notify(ctx context.Context, dto CreateNotificationDTO) (*NotificationDTO, error)
	Broadcast(ctx context.Context, req BroadcastRequest) (int, error)
}

// pusher delivers a realtime event to a user's joined connections. Delivery
// is best-effort; the stored row is the source of truth.
type pusher interface {
	Publish(ctx context.Context, userID, event string, data any) error
}

type userDirectory interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type service struct {
	repo  Repository
	users userDirectory
	push  pusher
	log   *logger.Logger
}

// NewService wires notifications dependencies. push may be nil when no
// realtime hub is running.
func NewService(repo Repository, users userDirectory, push pusher, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, users: users, push: push, log: log}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]NotificationDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return fromModels(rows), nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all read")
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// Notify persists a notification and pushes it to the user's live
// connections. A push failure never fails the call.
func (s *service) Notify(ctx context.Context, dto CreateNotificationDTO) (*NotificationDTO, error) {
	if dto.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !dto.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification category")
	}
	if dto.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	record := &models.Notification{
		ID:       uuid.New(),
		UserID:   dto.UserID,
		Category: dto.Category,
		Title:    dto.Title,
		Message:  dto.Message,
		Link:     dto.Link,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	out := fromModel(record)
	s.pushOne(ctx, out)
	return &out, nil
}

// Broadcast stores one notification per target user and pushes each. When
// the request names no users, every active account is targeted.
func (s *service) Broadcast(ctx context.Context, req BroadcastRequest) (int, error) {
	if !req.Category.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification category")
	}
	if req.Title == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	targets := req.UserIDs
	if len(targets) == 0 {
		ids, err := s.users.ListIDs(ctx)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list broadcast targets")
		}
		targets = ids
	}
	if len(targets) == 0 {
		return 0, nil
	}

	records := make([]*models.Notification, 0, len(targets))
	for _, userID := range targets {
		records = append(records, &models.Notification{
			ID:       uuid.New(),
			UserID:   userID,
			Category: req.Category,
			Title:    req.Title,
			Message:  req.Message,
			Link:     req.Link,
		})
	}
	if err := s.repo.CreateBatch(ctx, records); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notifications")
	}

	for _, record := range records {
		s.pushOne(ctx, fromModel(record))
	}
	return len(records), nil
}

func (s *service) pushOne(ctx context.Context, dto NotificationDTO) {
	if s.push == nil {
		return
	}
	if err := s.push.Publish(ctx, dto.UserID.String(), realtime.EventNotification, dto); err != nil {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{
			"notification_id": dto.ID.String(),
			"error":           err.Error(),
		}), "notifications: push failed")
	}
}
