package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custconnect/custconnect-backend/pkg/db/models"
	"github.com/custconnect/custconnect-backend/pkg/pagination"
)

// Repository exposes persistence helpers for direct messages.
type Repository interface {
	Create(ctx context.Context, message *models.Message) error
	ListConversation(ctx context.Context, userID, otherID uuid.UUID, params pagination.Params) ([]models.Message, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a messages repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListConversation returns both directions of a two-party thread,
// newest-first.
func (r *repositoryImpl) ListConversation(ctx context.Context, userID, otherID uuid.UUID, params pagination.Params) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at DESC, id DESC").
		Limit(params.EffectiveLimit()).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
