// ABOUTME: HTTP API for account, session, MFA, and order endpoints
// ABOUTME: Owns session cookies, auth middleware, and JSON request/response plumbing

package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/slicehouse/internal/auth"
	"github.com/2389/slicehouse/internal/notify"
	"github.com/2389/slicehouse/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "slicehouse_session"

	// DefaultSessionTTL is how long sessions last unless configured otherwise
	DefaultSessionTTL = 24 * time.Hour

	// maxBodyBytes bounds request bodies; every endpoint takes a handful of
	// short fields.
	maxBodyBytes = 64 * 1024
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "session_user"

// Config holds API configuration
type Config struct {
	// SessionTTL is the absolute session lifetime
	SessionTTL time.Duration

	// LoginPerMinute is the sustained login attempt rate allowed per account
	LoginPerMinute float64

	// LoginBurst is the number of attempts an account may make at once
	LoginBurst int
}

// API handles the HTTP surface and authentication
type API struct {
	store       store.Store
	hasher      *auth.PasswordHasher
	totp        *auth.TOTPProvider
	challenges  *auth.ChallengeIssuer
	resetSender notify.ResetSender
	limiter     *loginLimiter
	sessionTTL  time.Duration
	logger      *slog.Logger

	// now is the clock; swapped in tests
	now func() time.Time
}

// New creates a new API handler with injected collaborators.
func New(st store.Store, hasher *auth.PasswordHasher, totp *auth.TOTPProvider, challenges *auth.ChallengeIssuer, resetSender notify.ResetSender, cfg Config) *API {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &API{
		store:       st,
		hasher:      hasher,
		totp:        totp,
		challenges:  challenges,
		resetSender: resetSender,
		limiter:     newLoginLimiter(cfg.LoginPerMinute, cfg.LoginBurst),
		sessionTTL:  ttl,
		logger:      slog.Default().With("component", "web"),
		now:         time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("POST /login/mfa", a.handleLoginMFA)
	mux.HandleFunc("POST /recover", a.handleRecover)

	// Protected routes (session required)
	mux.HandleFunc("POST /logout", a.requireSession(a.handleLogout))
	mux.HandleFunc("POST /setup-mfa", a.requireSession(a.handleSetupMFA))
	mux.HandleFunc("POST /verify-mfa", a.requireSession(a.handleVerifyMFA))
	mux.HandleFunc("GET /order", a.requireSession(a.handleOrderList))
	mux.HandleFunc("POST /order", a.requireSession(a.handleOrderCreate))

	a.logger.Info("api routes registered")
}

// requireSession wraps a handler to require an authenticated session.
// A missing, unknown, or expired session all produce the same 401.
func (a *API) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromSession(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// userFromSession resolves the session cookie to its user.
func (a *API) userFromSession(r *http.Request) (*store.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}

	session, err := a.store.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}

	user, err := a.store.GetUserByUsername(r.Context(), session.Username)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// userFromContext retrieves the authenticated user from the request context
func userFromContext(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}

// establishSession regenerates the session identifier for a user and sets the
// cookie. Any session presented on the request and any prior session for the
// user are invalidated first, so an attacker-fixated identifier never
// survives authentication.
func (a *API) establishSession(w http.ResponseWriter, r *http.Request, username string) error {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		_ = a.store.DeleteSession(r.Context(), cookie.Value)
	}
	if err := a.store.DeleteSessionsForUser(r.Context(), username); err != nil {
		return err
	}

	sessionID, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	session := &store.Session{
		ID:        sessionID,
		Username:  username,
		CreatedAt: a.now(),
		ExpiresAt: a.now().Add(a.sessionTTL),
	}

	if err := a.store.CreateSession(r.Context(), session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// parseBody returns a field lookup for JSON or form-encoded request bodies.
func parseBody(r *http.Request) (func(string) string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var fields map[string]string
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return func(name string) string { return fields[name] }, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return func(name string) string { return r.PostFormValue(name) }, nil
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body. The message must never contain
// hashes, secrets, or internal error detail.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// generateSecureToken generates a hex-encoded random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
