// ABOUTME: Password recovery handler with a uniform response
// ABOUTME: Account existence is never revealed; delivery goes to the ResetSender

package web

import (
	"errors"
	"net/http"

	"github.com/2389/slicehouse/internal/store"
)

// handleRecover accepts an email and, when it matches an account, hands the
// address to the reset sender. The response is identical either way: a 202
// acknowledgement that the request was accepted for processing.
func (a *API) handleRecover(w http.ResponseWriter, r *http.Request) {
	field, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	normalized := normalizeEmail(field("email"))
	if normalized == "" {
		writeError(w, http.StatusBadRequest, "email is not a valid address")
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), normalized)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		// Fall through to the uniform acknowledgement
	case err != nil:
		a.logger.Error("failed to look up email", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	default:
		// The acknowledgement below already went out from the caller's
		// perspective; a delivery failure is ours to log, not theirs to see.
		if err := a.resetSender.SendResetLink(r.Context(), user.Email); err != nil {
			a.logger.Error("failed to send reset link", "error", err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "if that account exists, a reset link has been sent",
	})
}
