// ABOUTME: Input validation and email normalization for registration and recovery
// ABOUTME: Field-level messages surface as 400s; normalization happens before storage

package web

import (
	"net/mail"
	"regexp"
	"strings"
)

// Username validation regex: alphanumeric + underscores, starting with a letter
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

const (
	usernameMinLen = 5
	usernameMaxLen = 12
	passwordMinLen = 6

	// passwordMaxLen is bcrypt's 72-byte input limit. Anything longer is a
	// client error, not a hashing failure.
	passwordMaxLen = 72
)

// validateUsername returns an error message, or "" when the username is valid.
func validateUsername(username string) string {
	if len(username) < usernameMinLen {
		return "username must be at least 5 characters"
	}
	if len(username) > usernameMaxLen {
		return "username must be at most 12 characters"
	}
	if !usernameRegex.MatchString(username) {
		return "username must start with a letter and contain only letters, numbers, and underscores"
	}
	return ""
}

// validatePassword returns an error message, or "" when the password is valid.
func validatePassword(password string) string {
	if len(password) < passwordMinLen {
		return "password must be at least 6 characters"
	}
	if len(password) > passwordMaxLen {
		return "password must be at most 72 characters"
	}
	return ""
}

// normalizeEmail validates an email address and returns its canonical form:
// lowercased, with any +tag alias stripped from the local part. Returns ""
// when the address doesn't parse.
func normalizeEmail(email string) string {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return ""
	}

	parsed := strings.ToLower(addr.Address)
	at := strings.LastIndex(parsed, "@")
	if at <= 0 {
		return ""
	}

	local, domain := parsed[:at], parsed[at+1:]
	if plus := strings.Index(local, "+"); plus > 0 {
		local = local[:plus]
	}
	if local == "" || domain == "" {
		return ""
	}

	return local + "@" + domain
}
