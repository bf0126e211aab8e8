package postgres

import (
	"context"
	"time"

	"github.com/remi/auth-api/internal/domain"
	"gorm.io/gorm"
)

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *refreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepository) GetActive(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).
		First(&token, "token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, now).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke is a single UPDATE guarded on revoked_at IS NULL, so of any number
// of concurrent callers presenting the same token exactly one sees a row
// claimed. This is what makes refresh rotation single-use.
func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("revoked_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}
