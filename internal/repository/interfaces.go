package repository

import (
	"context"
	"time"

	"github.com/remi/auth-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetActive(ctx context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error)

	// Revoke claims the active record matching tokenHash in a single
	// atomic update and reports whether this caller won it. Two
	// concurrent calls with the same hash must not both observe true.
	Revoke(ctx context.Context, tokenHash string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every active record belonging to a user.
	RevokeAllForUser(ctx context.Context, userID int64, now time.Time) error
}

type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
}
