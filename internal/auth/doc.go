// Package auth provides the credential primitives for slicehouse:
// bcrypt password hashing with timing-equalized failure paths, TOTP
// enrollment and verification, and the short-lived challenge tokens that
// bridge password verification and second-factor completion during login.
//
// Nothing in this package touches storage or HTTP; callers inject these
// primitives into the web layer.
package auth
