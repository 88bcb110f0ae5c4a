package messages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/custconnect/custconnect-backend/internal/notifications"
	"github.com/custconnect/custconnect-backend/internal/realtime"
	"github.com/custconnect/custconnect-backend/pkg/db/models"
	"github.com/custconnect/custconnect-backend/pkg/enums"
	pkgerrors "github.com/custconnect/custconnect-backend/pkg/errors"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

type fakeMessageRepo struct {
	created []*models.Message
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *models.Message) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	f.created = append(f.created, m)
	return nil
}

func (f *fakeMessageRepo) ListConversation(ctx context.Context, userID, otherID uuid.UUID, params pagination.Params) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.created {
		out = append(out, *m)
	}
	return out, nil
}

type fakeUserDirectory struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeNotifier struct {
	notified []notifications.CreateNotificationDTO
}

func (f *fakeNotifier) Notify(ctx context.Context, dto notifications.CreateNotificationDTO) (*notifications.NotificationDTO, error) {
	f.notified = append(f.notified, dto)
	return &notifications.NotificationDTO{ID: uuid.New()}, nil
}

type fakeMessagePusher struct {
	events []string
	users  []string
}

func (f *fakeMessagePusher) Publish(ctx context.Context, userID, event string, data any) error {
	f.users = append(f.users, userID)
	f.events = append(f.events, event)
	return nil
}

func buildMessagesService(t *testing.T, repo *fakeMessageRepo, dir *fakeUserDirectory, n *fakeNotifier, push *fakeMessagePusher) Service {
	t.Helper()
	svc, err := NewService(repo, dir, n, push, logger.New(logger.Options{ServiceName: "messages-test"}))
	require.NoError(t, err)
	return svc
}

func TestServiceSendStoresPushesAndNotifies(t *testing.T) {
	sender := uuid.New()
	recipient := &models.User{ID: uuid.New(), IsActive: true}
	repo := &fakeMessageRepo{}
	notifier := &fakeNotifier{}
	push := &fakeMessagePusher{}
	svc := buildMessagesService(t, repo, &fakeUserDirectory{users: map[uuid.UUID]*models.User{recipient.ID: recipient}}, notifier, push)

	dto, err := svc.Send(context.Background(), sender, "Ana", SendRequest{
		RecipientID: recipient.ID,
		Body:        "  lunch at the cafeteria?  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "lunch at the cafeteria?", dto.Body)
	require.Len(t, repo.created, 1)

	require.Len(t, push.events, 1)
	assert.Equal(t, realtime.EventNewMessage, push.events[0])
	assert.Equal(t, recipient.ID.String(), push.users[0])

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, enums.NotificationCategoryNewMessage, notifier.notified[0].Category)
	assert.Equal(t, "New message from Ana", notifier.notified[0].Title)
	assert.Equal(t, recipient.ID, notifier.notified[0].UserID)
}

func TestServiceSendRejectsSelfAndEmpty(t *testing.T) {
	sender := uuid.New()
	svc := buildMessagesService(t, &fakeMessageRepo{}, &fakeUserDirectory{}, &fakeNotifier{}, &fakeMessagePusher{})

	for _, req := range []SendRequest{
		{RecipientID: sender, Body: "hi"},
		{RecipientID: uuid.New(), Body: "   "},
		{RecipientID: uuid.New(), Body: strings.Repeat("x", maxBodyLength+1)},
	} {
		_, err := svc.Send(context.Background(), sender, "Ana", req)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "expected typed error for %+v", req)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestServiceSendUnknownRecipient(t *testing.T) {
	svc := buildMessagesService(t, &fakeMessageRepo{}, &fakeUserDirectory{}, &fakeNotifier{}, &fakeMessagePusher{})

	_, err := svc.Send(context.Background(), uuid.New(), "Ana", SendRequest{
		RecipientID: uuid.New(),
		Body:        "anyone there?",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
