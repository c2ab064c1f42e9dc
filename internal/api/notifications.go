// ABOUTME: Notification service for the in-app inbox
// ABOUTME: The unread count is derived from the listed notifications

package api

import (
	"context"
	"net/http"

	"github.com/dangquan18/subme/models"
)

// NotificationService covers /notifications
type NotificationService struct {
	r Requester
}

// List returns the current user's notifications
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return getList[models.Notification](ctx, s.r, "/notifications", []string{"notifications"})
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, id models.ID) error {
	return exec(ctx, s.r, http.MethodPatch, pathID("/notifications/%s/read", id), nil)
}

// MarkAllRead marks the whole inbox read
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return exec(ctx, s.r, http.MethodPatch, "/notifications/read-all", nil)
}

// UnreadCount lists notifications and counts the unread ones
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return CountUnread(items), nil
}

// CountUnread counts notifications not yet read
func CountUnread(items []models.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
