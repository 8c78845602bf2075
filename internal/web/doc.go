// Package web implements the slicehouse HTTP API: registration, login with
// optional TOTP second factor, password recovery, MFA enrollment, and the
// session-gated order endpoints.
//
// # Authentication model
//
// Sessions are server-side rows keyed by an opaque cookie value. Every
// successful authentication regenerates the session identifier, invalidating
// whatever the client presented before (fixation defense). Accounts with a
// confirmed TOTP secret go through a two-step login: the password check
// yields a short-lived challenge token, and only a valid code promotes it to
// a session.
//
// # Enumeration resistance
//
// Unknown-username and wrong-password failures share one status and message,
// and the unknown-username path performs a dummy bcrypt comparison so its
// timing matches the real one. Password recovery acknowledges uniformly
// whether or not the address matched.
//
// All collaborators (store, hasher, TOTP provider, challenge issuer, reset
// sender) are injected; the package holds no global state.
package web
