package api

import (
	"context"
	"net/http"
	"net/url"
)

const notificationsPath = "/notifications/"

// NotificationService covers /notifications/ endpoints.
type NotificationService struct {
	d Doer
}

func (s *NotificationService) List(ctx context.Context, f NotificationFilter) ([]Notification, error) {
	q := query{}
	q.setBool("is_read", f.IsRead)
	q.set("type", f.Type)
	q.set("priority", f.Priority)

	var out List[Notification]
	if err := s.d.Do(ctx, http.MethodGet, notificationsPath, url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks one notification read and returns the server's message.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) (string, error) {
	var out MessageResponse
	if err := s.d.Do(ctx, http.MethodPost, itemPath(notificationsPath, id, "mark-read/"), nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// MarkAllRead marks every unread notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context) (string, error) {
	var out MessageResponse
	if err := s.d.Do(ctx, http.MethodPost, notificationsPath+"mark-all-read/", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := s.d.Do(ctx, http.MethodGet, notificationsPath+"unread-count/", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (s *NotificationService) Summary(ctx context.Context) (*NotificationSummary, error) {
	var out NotificationSummary
	if err := s.d.Do(ctx, http.MethodGet, notificationsPath+"summary/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
