package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/custconnect/custconnect-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  display_name TEXT NOT NULL,
  phone TEXT,
  roles TEXT NOT NULL DEFAULT '{STUDENT}',
  is_verified INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createTestUser(t *testing.T, repo *Repository, email string, roleNames ...string) uuid.UUID {
	t.Helper()
	if len(roleNames) == 0 {
		roleNames = []string{string(enums.RoleStudent)}
	}
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        email,
		PasswordHash: "argon2id$hash",
		DisplayName:  "User " + email,
		Roles:        roleNames,
	})
	require.NoError(t, err)
	return user.ID
}

func TestRepositoryCreateAndFindByEmail(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))

	id := createTestUser(t, repo, "find-by-email@cust.edu", string(enums.RoleStudent), string(enums.RoleCafeOwner))

	user, err := repo.FindByEmail(context.Background(), "find-by-email@cust.edu")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, []string{string(enums.RoleStudent), string(enums.RoleCafeOwner)}, []string(user.Roles))
	assert.False(t, user.IsVerified)
	assert.True(t, user.IsActive)
}

func TestRepositoryFindByEmailMissing(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))

	_, err := repo.FindByEmail(context.Background(), "nobody@cust.edu")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDuplicateEmailRejected(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))

	createTestUser(t, repo, "dup@cust.edu")
	_, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        "dup@cust.edu",
		PasswordHash: "argon2id$hash",
		DisplayName:  "Second",
		Roles:        []string{string(enums.RoleStudent)},
	})
	assert.Error(t, err)
}

func TestRepositoryMarkVerified(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	id := createTestUser(t, repo, "verify-me@cust.edu")

	require.NoError(t, repo.MarkVerified(context.Background(), id))

	user, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	id := createTestUser(t, repo, "last-login@cust.edu")
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

	require.NoError(t, repo.UpdateLastLogin(context.Background(), id, at))

	user, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, user.LastLoginAt.Equal(at))
}

func TestRepositoryListIDsSkipsInactive(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	active := createTestUser(t, repo, "active-one@cust.edu")
	inactive := createTestUser(t, repo, "deactivated@cust.edu")
	require.NoError(t, db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", inactive).Error)

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ids, active)
	assert.NotContains(t, ids, inactive)
}
