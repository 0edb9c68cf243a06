// Package session holds the authenticated identity for the running client
// and keeps a persisted copy so it survives restarts.
package session

import (
	"github.com/jmcleod/examflow/api"
)

// Session is an immutable snapshot of the client's authentication state.
// Credential and User are either both set or both empty.
type Session struct {
	Credential string
	User       *api.User

	// Loading is true until the first restoration attempt has finished.
	Loading bool
}

// HasCredential reports whether a credential is held.
func (s Session) HasCredential() bool { return s.Credential != "" }

// HasIdentity reports whether a user identity is held.
func (s Session) HasIdentity() bool { return s.User != nil }

// Authenticated reports whether both halves of the session are present.
func (s Session) Authenticated() bool {
	return s.HasCredential() && s.HasIdentity()
}

// Role returns the identity's role, or "" when signed out.
func (s Session) Role() api.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s Session) clone() Session {
	s.User = cloneUser(s.User)
	return s
}

func cloneUser(u *api.User) *api.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Department != nil {
		d := *u.Department
		c.Department = &d
	}
	return &c
}

// Result is the outcome of a session operation. Operations never return Go
// errors; callers branch on Success.
type Result[T any] struct {
	Success bool
	Data    T
	// Message is a human-readable failure reason.
	Message string
	// Payload is the server's raw error body, when there was one.
	Payload api.ErrorPayload
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](msg string, payload api.ErrorPayload) Result[T] {
	return Result[T]{Message: msg, Payload: payload}
}
