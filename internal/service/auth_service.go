package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/remi/auth-api/internal/config"
	"github.com/remi/auth-api/internal/domain"
	"github.com/remi/auth-api/internal/password"
	"github.com/remi/auth-api/internal/repository"
	"github.com/remi/auth-api/internal/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinPasswordLength is enforced here regardless of any validation the HTTP
// boundary performs.
const MinPasswordLength = 8

var (
	// ErrBadCredentials: structurally invalid input (missing email, short
	// password).
	ErrBadCredentials = errors.New("email is required and password must be at least 8 characters")

	// ErrDuplicateEmail: an account with this email already exists.
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// ErrInvalidCredentials deliberately covers both unknown email and
	// wrong password so login cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken: the presented refresh token failed structural,
	// signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenRevoked: the token verified but its server-side record is
	// revoked, expired or was never issued by us.
	ErrTokenRevoked = errors.New("token revoked or unknown")
)

type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Intended for expiry tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*TokenPair, error) {
	if input.Email == "" || len(input.Password) < MinPasswordLength {
		return nil, ErrBadCredentials
	}

	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Two concurrent registrations can pass the lookup above; the
		// unique index decides the winner and the loser lands here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return s.issue(ctx, user.ID, user.Email)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user.ID, user.Email)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued from its verified claims. Revocation is a single atomic
// claim in the store, so a replayed token can win at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := token.Verify(refreshToken, []byte(s.cfg.RefreshSecret), s.now())
	if err != nil {
		return nil, ErrInvalidToken
	}

	tokenHash := token.Hash(refreshToken, []byte(s.cfg.RefreshSecret))
	revoked, err := s.tokenRepo.Revoke(ctx, tokenHash, s.now())
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, ErrTokenRevoked
	}

	return s.issue(ctx, claims.UserID, claims.Email)
}

// Logout revokes the presented refresh token's record if one exists. It never
// returns an error to the caller: an empty token, an unknown token and even a
// store failure all leave the client free to discard its credentials.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	tokenHash := token.Hash(refreshToken, []byte(s.cfg.RefreshSecret))
	if _, err := s.tokenRepo.Revoke(ctx, tokenHash, s.now()); err != nil {
		s.log.Warn("logout revocation failed", zap.Error(err))
	}
}

// LogoutAll revokes every active refresh token belonging to the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.tokenRepo.RevokeAllForUser(ctx, userID, s.now())
}

func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// VerifyAccessToken checks a bearer token under the access secret.
func (s *AuthService) VerifyAccessToken(accessToken string) (*token.Claims, error) {
	claims, err := token.Verify(accessToken, []byte(s.cfg.AccessSecret), s.now())
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// issue signs an access/refresh pair for the identity and persists the hash
// of the refresh token. The raw refresh token leaves the server exactly once,
// in the returned pair.
func (s *AuthService) issue(ctx context.Context, userID int64, email string) (*TokenPair, error) {
	now := s.now()

	accessToken, err := token.Sign(userID, email, []byte(s.cfg.AccessSecret), s.cfg.AccessTTL, now)
	if err != nil {
		return nil, err
	}

	refreshToken, err := token.Sign(userID, email, []byte(s.cfg.RefreshSecret), s.cfg.RefreshTTL, now)
	if err != nil {
		return nil, err
	}

	record := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: token.Hash(refreshToken, []byte(s.cfg.RefreshSecret)),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
