package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/custconnect/custconnect-backend/pkg/db/models"
	"github.com/custconnect/custconnect-backend/pkg/enums"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  category TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, createdAt time.Time) *models.Notification {
	t.Helper()
	record := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  enums.NotificationCategoryInfo,
		Title:     title,
		Message:   "body of " + title,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func TestRepositoryListNewestFirst(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedNotification(t, db, userID, "oldest", base)
	seedNotification(t, db, userID, "middle", base.Add(time.Minute))
	seedNotification(t, db, userID, "newest", base.Add(2*time.Minute))
	seedNotification(t, db, uuid.New(), "other user", base.Add(3*time.Minute))

	rows, err := repo.List(context.Background(), userID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "newest", rows[0].Title)
	assert.Equal(t, "middle", rows[1].Title)
	assert.Equal(t, "oldest", rows[2].Title)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedNotification(t, db, userID, "n", base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(context.Background(), userID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	second, err := repo.List(context.Background(), userID, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.True(t, first[1].CreatedAt.After(second[0].CreatedAt))
}

func TestRepositoryMarkRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	record := seedNotification(t, db, userID, "unread", time.Now().UTC())

	result, err := repo.MarkRead(context.Background(), userID, record.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Updated)

	// Second mark finds the row but changes nothing.
	result, err = repo.MarkRead(context.Background(), userID, record.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.Updated)

	// The owner scope hides other users' rows.
	result, err = repo.MarkRead(context.Background(), uuid.New(), record.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	now := time.Now().UTC()

	seedNotification(t, db, userID, "a", now)
	seedNotification(t, db, userID, "b", now)
	read := seedNotification(t, db, userID, "c", now)
	_, err := repo.MarkRead(context.Background(), userID, read.ID, now)
	require.NoError(t, err)

	count, err := repo.MarkAllRead(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	record := seedNotification(t, db, userID, "doomed", time.Now().UTC())

	found, err := repo.Delete(context.Background(), uuid.New(), record.ID)
	require.NoError(t, err)
	assert.False(t, found, "foreign user must not delete")

	found, err = repo.Delete(context.Background(), userID, record.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(context.Background(), userID, record.ID)
	require.NoError(t, err)
	assert.False(t, found)
}
