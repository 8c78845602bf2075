// ABOUTME: Short-lived MFA challenge tokens for the two-step login flow
// ABOUTME: HS256 JWTs mark password-verified-pending-second-factor state

package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Challenge token errors
var (
	ErrInvalidChallenge = errors.New("invalid challenge token")
	ErrExpiredChallenge = errors.New("challenge token expired")
	ErrUsedChallenge    = errors.New("challenge token already used")
	ErrMissingClaim     = errors.New("missing required claim")
)

// DefaultChallengeTTL bounds how long a password-verified login may wait for
// its second factor.
const DefaultChallengeTTL = 2 * time.Minute

// challengeStage marks a token as an MFA challenge so a leaked token can
// never be mistaken for anything else.
const challengeStage = "mfa"

// ChallengeIssuer mints and verifies MFA challenge tokens. A challenge token
// is deliberately not a session: it carries only the right to present a
// TOTP code for one user, exactly once. Consumed token IDs are held in
// memory until they would have expired anyway, so one password check can
// never be exchanged for more than one session.
type ChallengeIssuer struct {
	secret []byte
	ttl    time.Duration

	mu   sync.Mutex
	used map[string]time.Time // jti -> expiry
}

// NewChallengeIssuer creates an issuer with the given HMAC secret and TTL.
// A zero TTL falls back to DefaultChallengeTTL.
func NewChallengeIssuer(secret []byte, ttl time.Duration) *ChallengeIssuer {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeIssuer{
		secret: secret,
		ttl:    ttl,
		used:   make(map[string]time.Time),
	}
}

// Issue creates a challenge token bound to the given user ID.
func (c *ChallengeIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"stage": challengeStage,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(c.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify validates the token and extracts the user ID from the "sub" claim.
func (c *ChallengeIssuer) Verify(tokenString string) (userID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredChallenge
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidChallenge, err)
	}

	if !token.Valid {
		return "", ErrInvalidChallenge
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidChallenge
	}

	if stage, _ := claims["stage"].(string); stage != challengeStage {
		return "", fmt.Errorf("%w: stage", ErrMissingClaim)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", fmt.Errorf("%w: jti", ErrMissingClaim)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", fmt.Errorf("%w: exp", ErrMissingClaim)
	}

	if err := c.consume(jti, exp.Time); err != nil {
		return "", err
	}

	return sub, nil
}

// consume marks a token ID as spent. A second call with the same ID fails.
func (c *ChallengeIssuer) consume(jti string, expiry time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, spent := c.used[jti]; spent {
		return ErrUsedChallenge
	}

	now := time.Now()
	for id, exp := range c.used {
		if now.After(exp) {
			delete(c.used, id)
		}
	}
	c.used[jti] = expiry

	return nil
}
