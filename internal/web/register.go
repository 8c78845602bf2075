// ABOUTME: Registration handler: validate, hash, insert exactly one row
// ABOUTME: Duplicate usernames surface as 409 without revealing email state

package web

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/2389/slicehouse/internal/store"
)

// handleRegister processes a registration request.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	field, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := field("username")
	password := field("password")
	email := field("email")

	if msg := validateUsername(username); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validatePassword(password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	normalized := normalizeEmail(email)
	if normalized == "" {
		writeError(w, http.StatusBadRequest, "email is not a valid address")
		return
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Error("failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Email:        normalized,
		CreatedAt:    a.now(),
	}

	if err := a.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			// Whether the email is also in use is deliberately not revealed
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		a.logger.Error("failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save user")
		return
	}

	a.logger.Info("user registered", "username", username)
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
}
