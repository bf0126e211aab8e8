// Package token signs and verifies the compact HS256 tokens used for both
// access and refresh credentials. The two purposes are separated by secret:
// a token signed under one secret never verifies under the other. All
// functions are pure over their inputs; the caller supplies the clock.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed covers structural failures: wrong part count, bad
	// base64, unparseable payload.
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature means the token parsed but was not signed under
	// the presented secret.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired means the signature checked out but exp is in the past.
	ErrExpired = errors.New("token expired")
)

// Claims is the payload carried by every token the service issues.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Sign issues a token for the given identity. iat is stamped from now; exp is
// stamped only when ttl is positive, so tokens without a TTL never expire.
// The jti claim makes every issued token unique even when two are minted for
// the same identity within the same second, which keeps the refresh-token
// lookup hash collision-free across rotations.
func Sign(userID int64, email string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks structure, signature and expiry, in that order of severity,
// and returns the decoded claims. Shape of the claims beyond JSON validity is
// not checked here; callers own their required fields.
func Verify(tokenString string, secret []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformed
	}
}

// Hash computes the server-side lookup hash of a raw refresh token: hex
// HMAC-SHA256 under the refresh secret. The raw token itself is never stored.
func Hash(rawToken string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(rawToken))
	return hex.EncodeToString(mac.Sum(nil))
}
