// ABOUTME: Login, MFA challenge exchange, and logout handlers
// ABOUTME: Unknown user and wrong password are indistinguishable to the caller

package web

import (
	"errors"
	"net/http"

	"github.com/2389/slicehouse/internal/store"
)

// invalidCredentials is the single message for every credential failure.
// Returning anything more specific would let an attacker enumerate accounts.
const invalidCredentials = "invalid username or password"

// handleLogin processes a password login. Accounts with a confirmed MFA
// secret receive a short-lived challenge token instead of a session; the
// session is only issued once handleLoginMFA sees a valid code.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	field, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := field("username")
	password := field("password")

	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if !a.limiter.Allow(username) {
		a.logger.Warn("login throttled", "username", username)
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	user, err := a.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Dummy comparison keeps this path as slow as a real check
			a.hasher.VerifyDummy(password)
			writeError(w, http.StatusUnauthorized, invalidCredentials)
			return
		}
		a.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if !a.hasher.Verify(user.PasswordHash, password) {
		a.logger.Info("login failed", "username", username)
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	if user.MFAEnforced() {
		challenge, err := a.challenges.Issue(user.ID)
		if err != nil {
			a.logger.Error("failed to issue mfa challenge", "error", err)
			writeError(w, http.StatusInternalServerError, "an error occurred")
			return
		}

		a.logger.Info("login pending second factor", "username", username)
		writeJSON(w, http.StatusOK, map[string]any{
			"mfa_required": true,
			"challenge":    challenge,
		})
		return
	}

	if err := a.establishSession(w, r, user.Username); err != nil {
		a.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	a.logger.Info("login successful", "username", username)
	writeJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// handleLoginMFA exchanges a challenge token plus a valid TOTP code for a
// session. Challenge and code failures share one message and status.
func (a *API) handleLoginMFA(w http.ResponseWriter, r *http.Request) {
	field, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	challenge := field("challenge")
	code := field("token")
	if code == "" {
		code = field("code")
	}

	if challenge == "" || code == "" {
		writeError(w, http.StatusBadRequest, "challenge and code required")
		return
	}

	userID, err := a.challenges.Verify(challenge)
	if err != nil {
		a.logger.Info("mfa challenge rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid or expired challenge")
		return
	}

	user, err := a.store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid or expired challenge")
			return
		}
		a.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if user.MFASecret == "" || !a.totp.Verify(user.MFASecret, code, a.now()) {
		a.logger.Info("mfa code rejected", "username", user.Username)
		writeError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	if err := a.establishSession(w, r, user.Username); err != nil {
		a.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	a.logger.Info("login successful", "username", user.Username, "mfa", true)
	writeJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// handleLogout destroys the current session and clears the cookie.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := a.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			a.logger.Error("failed to delete session", "error", err)
		}
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
