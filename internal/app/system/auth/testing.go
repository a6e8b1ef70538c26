package auth

import "net/http"

// WithTestUser returns r carrying u as the current user. It lets handler
// tests skip the session round trip.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}
