// ABOUTME: MFA enrollment and verification handlers, both session-gated
// ABOUTME: The secret leaves the server only inside the provisioning URI and QR

package web

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/2389/slicehouse/internal/store"
)

// handleSetupMFA generates a fresh TOTP secret for the authenticated user
// and returns the provisioning payload. The secret is stored unconfirmed:
// login is not gated on it until a first code verifies.
func (a *API) handleSetupMFA(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	enrollment, err := a.totp.Enroll(user.Username)
	if err != nil {
		a.logger.Error("failed to generate totp enrollment", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if err := a.store.SetMFASecret(r.Context(), user.ID, enrollment.Secret); err != nil {
		a.logger.Error("failed to store mfa secret", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	a.logger.Info("mfa enrollment started", "username", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"uri":    enrollment.URI,
		"qr_png": base64.StdEncoding.EncodeToString(enrollment.QRPNG),
	})
}

// handleVerifyMFA checks a submitted code against the stored secret. The
// first success confirms the enrollment, which turns on login gating.
func (a *API) handleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	field, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := field("token")
	if code == "" {
		code = field("code")
	}
	if code == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}

	// Re-read the user: the secret may have rotated since the session
	// middleware ran.
	current, err := a.store.GetUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		a.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if current.MFASecret == "" {
		writeError(w, http.StatusBadRequest, "mfa is not set up")
		return
	}

	if !a.totp.Verify(current.MFASecret, code, a.now()) {
		a.logger.Info("mfa verification failed", "username", user.Username)
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}

	if current.MFAConfirmedAt == nil {
		if err := a.store.ConfirmMFA(r.Context(), current.ID, a.now()); err != nil {
			a.logger.Error("failed to confirm mfa", "error", err)
			writeError(w, http.StatusInternalServerError, "an error occurred")
			return
		}
		a.logger.Info("mfa enrollment confirmed", "username", user.Username)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}
