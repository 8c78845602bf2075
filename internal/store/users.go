// ABOUTME: User persistence methods for the SQLite store
// ABOUTME: Covers creation, lookup by id/username/email, and MFA secret updates

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = "id, username, password_hash, email, mfa_secret, mfa_confirmed_at, created_at"

// CreateUser inserts a new user row. Returns ErrUsernameExists when the
// username is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, email, mfa_secret, mfa_confirmed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var mfaSecret sql.NullString
	if user.MFASecret != "" {
		mfaSecret = sql.NullString{String: user.MFASecret, Valid: true}
	}

	var mfaConfirmedAt sql.NullString
	if user.MFAConfirmedAt != nil {
		mfaConfirmedAt = sql.NullString{String: user.MFAConfirmedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Email,
		mfaSecret,
		mfaConfirmedAt,
		user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "id", user.ID, "username", user.Username)
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by normalized email. When multiple users
// share an address (email is not unique) the oldest account wins.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUserWhere(ctx, "email = ? ORDER BY created_at ASC LIMIT 1", email)
}

func (s *SQLiteStore) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where

	var user User
	var mfaSecret, mfaConfirmedAtStr sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&mfaSecret,
		&mfaConfirmedAtStr,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.MFASecret = mfaSecret.String
	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	if mfaConfirmedAtStr.Valid {
		confirmedAt, err := time.Parse(time.RFC3339, mfaConfirmedAtStr.String)
		if err != nil {
			return nil, fmt.Errorf("parsing mfa_confirmed_at: %w", err)
		}
		user.MFAConfirmedAt = &confirmedAt
	}

	return &user, nil
}

// SetMFASecret stores a freshly generated TOTP secret for a user and clears
// any previous confirmation, since the new secret hasn't been verified yet.
func (s *SQLiteStore) SetMFASecret(ctx context.Context, id, secret string) error {
	query := `UPDATE users SET mfa_secret = ?, mfa_confirmed_at = NULL WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, secret, id)
	if err != nil {
		return fmt.Errorf("updating mfa secret: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("set mfa secret", "id", id)
	return nil
}

// ConfirmMFA stamps the time of the first successful code verification.
// Only succeeds when a secret is present and not yet confirmed.
func (s *SQLiteStore) ConfirmMFA(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users SET mfa_confirmed_at = ?
		WHERE id = ? AND mfa_secret IS NOT NULL AND mfa_confirmed_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("confirming mfa: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Already confirmed is not an error; a missing user or secret is.
		user, err := s.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if user.MFASecret == "" {
			return ErrUserNotFound
		}
		return nil
	}

	s.logger.Info("confirmed mfa enrollment", "id", id)
	return nil
}

// UpdatePassword replaces a user's password hash.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("updated password", "id", id)
	return nil
}
