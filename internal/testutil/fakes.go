package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/remi/auth-api/internal/domain"
	"gorm.io/gorm"
)

// In-memory implementations of the repository interfaces. They mirror the
// SQL semantics the service depends on: gorm.ErrRecordNotFound for misses,
// gorm.ErrDuplicatedKey for unique violations, and an atomic claim in Revoke.

type UserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]*domain.User)}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}

	r.nextID++
	user.ID = r.nextID
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type RefreshTokenRepo struct {
	mu     sync.Mutex
	byHash map[string]*domain.RefreshToken
}

func NewRefreshTokenRepo() *RefreshTokenRepo {
	return &RefreshTokenRepo{byHash: make(map[string]*domain.RefreshToken)}
}

func (r *RefreshTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHash[token.TokenHash]; ok {
		return gorm.ErrDuplicatedKey
	}
	copied := *token
	r.byHash[token.TokenHash] = &copied
	return nil
}

func (r *RefreshTokenRepo) GetActive(_ context.Context, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.byHash[tokenHash]; ok && t.Active(now) {
		copied := *t
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *RefreshTokenRepo) Revoke(_ context.Context, tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenHash]
	if !ok || !t.Active(now) {
		return false, nil
	}
	revokedAt := now
	t.RevokedAt = &revokedAt
	return true, nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(_ context.Context, userID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			revokedAt := now
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

// ActiveCount reports how many unexpired, unrevoked tokens the store holds.
func (r *RefreshTokenRepo) ActiveCount(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, t := range r.byHash {
		if t.Active(now) {
			count++
		}
	}
	return count
}

// Len reports the total number of stored records, revoked ones included.
func (r *RefreshTokenRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHash)
}
