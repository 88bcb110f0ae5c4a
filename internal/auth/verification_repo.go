package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custconnect/custconnect-backend/pkg/db/models"
)

// VerificationRepository persists the one-shot OTP codes issued at
// registration.
type VerificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository constructs a verification repo bound to the
// provided GORM DB.
func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create stores a fresh code after invalidating any still-pending ones for
// the same user, so only the most recently emailed code works.
func (r *VerificationRepository) Create(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*models.VerificationCode, error) {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("user_id = ? AND used_at IS NULL", userID).
		UpdateColumn("used_at", now).Error
	if err != nil {
		return nil, err
	}

	record := &models.VerificationCode{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		ExpiresAt: expiresAt,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindActive returns the unused, unexpired code for the user, if any.
func (r *VerificationRepository) FindActive(ctx context.Context, userID uuid.UUID, code string) (*models.VerificationCode, error) {
	var record models.VerificationCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used_at IS NULL AND expires_at > ?", userID, code, time.Now().UTC()).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkUsed consumes a code so it cannot be replayed.
func (r *VerificationRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND used_at IS NULL", id).
		UpdateColumn("used_at", now).Error
}
