// Package api is a typed client for the remote exam scheduling REST API.
// It describes requests and responses only; sending, credentials and
// session expiry are the gateway's concern.
package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Doer performs a JSON request against an API path relative to the base URL.
// *gateway.Gateway satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, in, out any) error
}

// Client groups the endpoint families of the remote API.
type Client struct {
	Auth          *AuthService
	Rooms         *RoomService
	Exams         *ExamService
	Notifications *NotificationService
}

// New returns a Client that sends every request through d.
func New(d Doer) *Client {
	return &Client{
		Auth:          &AuthService{d: d},
		Rooms:         &RoomService{d: d},
		Exams:         &ExamService{d: d},
		Notifications: &NotificationService{d: d},
	}
}

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ParseID parses a numeric resource id as given on a command line.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func itemPath(prefix string, id int64, suffix string) string {
	return fmt.Sprintf("%s%d/%s", prefix, id, suffix)
}

type query url.Values

func (q query) set(key, value string) {
	if value != "" {
		url.Values(q).Set(key, value)
	}
}

func (q query) setInt(key string, v int64) {
	if v != 0 {
		url.Values(q).Set(key, strconv.FormatInt(v, 10))
	}
}

func (q query) setBool(key string, v *bool) {
	if v != nil {
		url.Values(q).Set(key, strconv.FormatBool(*v))
	}
}
