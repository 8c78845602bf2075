// ABOUTME: Store interfaces and data types for slicehouse persistence
// ABOUTME: Defines User, Session, Order structs and the per-entity store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// User represents an account that can log in and place orders.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash, never the plaintext
	Email        string // normalized (lowercased, alias tag stripped)
	MFASecret    string // base32 TOTP secret, empty until enrolled

	// MFAConfirmedAt is set on the first successful code verification.
	// Only a confirmed secret gates login; an abandoned enrollment doesn't.
	MFAConfirmedAt *time.Time

	CreatedAt time.Time
}

// MFAEnforced reports whether login must be gated on a second factor.
func (u *User) MFAEnforced() bool {
	return u.MFASecret != "" && u.MFAConfirmedAt != nil
}

// Session represents an authenticated browser session.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Order represents a placed pizza order.
type Order struct {
	ID        string
	Username  string
	Pizza     string
	Address   string
	CreatedAt time.Time
}

// UserStore defines user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetMFASecret(ctx context.Context, id, secret string) error
	ConfirmMFA(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionStore defines session persistence behind a get/create/delete contract.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsForUser(ctx context.Context, username string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// OrderStore defines order persistence.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *Order) error
	ListOrdersForUser(ctx context.Context, username string) ([]*Order, error)
}

// Store combines all persistence interfaces. SQLiteStore implements it.
type Store interface {
	UserStore
	SessionStore
	OrderStore

	Ping(ctx context.Context) error
	Close() error
}
