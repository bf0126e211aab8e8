package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/remi/auth-api/internal/service"
	"github.com/remi/auth-api/internal/testutil"
	"github.com/remi/auth-api/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) (*service.AuthService, *testutil.UserRepo, *testutil.RefreshTokenRepo) {
	t.Helper()
	users := testutil.NewUserRepo()
	tokens := testutil.NewRefreshTokenRepo()
	return service.NewAuthService(users, tokens, testutil.TestConfig(), zap.NewNop()), users, tokens
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.RegisterInput
		setup   func(s *service.AuthService)
		wantErr error
	}{
		{
			name:  "successful registration",
			input: service.RegisterInput{Email: "a@b.com", Password: "password123"},
		},
		{
			name:    "empty email",
			input:   service.RegisterInput{Email: "", Password: "password123"},
			wantErr: service.ErrBadCredentials,
		},
		{
			name:    "short password",
			input:   service.RegisterInput{Email: "a@b.com", Password: "short"},
			wantErr: service.ErrBadCredentials,
		},
		{
			name:  "duplicate email",
			input: service.RegisterInput{Email: "a@b.com", Password: "password456"},
			setup: func(s *service.AuthService) {
				_, err := s.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
				require.NoError(t, err)
			},
			wantErr: service.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService, _, tokens := newAuthService(t)
			if tt.setup != nil {
				tt.setup(authService)
			}

			pair, err := authService.Register(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
			assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
			assert.Equal(t, 1, tokens.ActiveCount(time.Now()))
		})
	}
}

func TestAuthService_RegisterNeverStoresPlaintext(t *testing.T) {
	ctx := context.Background()
	authService, users, _ := newAuthService(t)

	_, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	user, err := users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "password123")
}

func TestAuthService_IssuePersistsHashedRecord(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.TestConfig()
	authService, users, tokens := newAuthService(t)

	pair, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	// The record is keyed by the keyed hash of the raw token, never the
	// raw token itself.
	record, err := tokens.GetActive(ctx, token.Hash(pair.RefreshToken, []byte(cfg.RefreshSecret)), time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, record.TokenHash)

	user, err := users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, record.UserID)
	assert.WithinDuration(t, time.Now().Add(cfg.RefreshTTL), record.ExpiresAt, time.Minute)
	assert.Nil(t, record.RevokedAt)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthService(t)

	_, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   service.LoginInput
		wantErr error
	}{
		{
			name:  "successful login",
			input: service.LoginInput{Email: "a@b.com", Password: "password123"},
		},
		{
			name:    "wrong password",
			input:   service.LoginInput{Email: "a@b.com", Password: "wrongpassword"},
			wantErr: service.ErrInvalidCredentials,
		},
		{
			name:    "unknown email",
			input:   service.LoginInput{Email: "nobody@b.com", Password: "password123"},
			wantErr: service.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := authService.Login(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)
		})
	}
}

func TestAuthService_LoginErrorDoesNotEnumerate(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthService(t)

	_, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	_, wrongPassword := authService.Login(ctx, service.LoginInput{Email: "a@b.com", Password: "wrong"})
	_, unknownUser := authService.Login(ctx, service.LoginInput{Email: "ghost@b.com", Password: "wrong"})

	// Identical error for both cases so login cannot probe for accounts.
	assert.Equal(t, wrongPassword, unknownUser)
	assert.EqualError(t, wrongPassword, service.ErrInvalidCredentials.Error())
}

func TestAuthService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	authService, _, tokens := newAuthService(t)

	pair, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	rotated, err := authService.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The presented token is single-use: replaying it must fail, while the
	// rotated token stays valid.
	_, err = authService.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	_, err = authService.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)

	// Rotation revokes, never deletes.
	assert.Equal(t, 3, tokens.Len())
	assert.Equal(t, 1, tokens.ActiveCount(time.Now()))
}

func TestAuthService_RefreshRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthService(t)

	pair, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not.a.token", wantErr: service.ErrInvalidToken},
		{name: "empty", token: "", wantErr: service.ErrInvalidToken},
		{
			// An access token is signed under the other secret and must
			// never be exchangeable for a new pair.
			name:    "access token presented as refresh token",
			token:   pair.AccessToken,
			wantErr: service.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.Refresh(ctx, tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_RefreshExpired(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthService(t)

	pair, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	// Jump past the refresh TTL.
	authService.WithClock(func() time.Time {
		return time.Now().Add(testutil.TestConfig().RefreshTTL + time.Minute)
	})

	_, err = authService.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	authService, _, tokens := newAuthService(t)

	pair, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, 1, tokens.ActiveCount(time.Now()))

	// Empty and unknown tokens are no-ops, never errors.
	authService.Logout(ctx, "")
	authService.Logout(ctx, "unknown.token.value")
	assert.Equal(t, 1, tokens.ActiveCount(time.Now()))

	authService.Logout(ctx, pair.RefreshToken)
	assert.Equal(t, 0, tokens.ActiveCount(time.Now()))

	_, err = authService.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	// Logging out twice is fine.
	authService.Logout(ctx, pair.RefreshToken)
}

func TestAuthService_LogoutAll(t *testing.T) {
	ctx := context.Background()
	authService, _, tokens := newAuthService(t)

	_, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	second, err := authService.Login(ctx, service.LoginInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, 2, tokens.ActiveCount(time.Now()))

	user, err := authService.GetUserByID(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, authService.LogoutAll(ctx, user.ID))
	assert.Equal(t, 0, tokens.ActiveCount(time.Now()))

	_, err = authService.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	ctx := context.Background()
	authService, _, _ := newAuthService(t)

	pair, err := authService.Register(ctx, service.RegisterInput{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := authService.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)

	// A refresh token is not an access token.
	_, err = authService.VerifyAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
