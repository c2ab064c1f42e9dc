// ABOUTME: Tests for notification commands
// ABOUTME: Verifies listing, mark-read argument rules and the watch loop

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dangquan18/subme/models"
)

// syncBuffer is a bytes.Buffer safe for the watch goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func notificationRouter(items func() []models.Notification) chi.Router {
	r := chi.NewRouter()
	r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"notifications": items()})
	})
	return r
}

func TestNotificationsListCommand_UnreadOnly(t *testing.T) {
	useBackend(t, notificationRouter(func() []models.Notification {
		return []models.Notification{
			{ID: "1", Title: "Box shipped", Read: true},
			{ID: "2", Title: "Payment received"},
		}
	}))
	signIn(t, customerUser)
	jsonOutput = true

	var buf bytes.Buffer
	exitCode := runNotificationsList(context.Background(), &buf, true)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}

	var parsed notificationList
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.Unread != 1 || len(parsed.Notifications) != 1 || parsed.Notifications[0].ID != "2" {
		t.Errorf("unexpected list %+v", parsed)
	}
}

func TestNotificationsReadCommand_Arguments(t *testing.T) {
	var buf bytes.Buffer
	if exitCode := runNotificationsRead(context.Background(), &buf, "", false); exitCode != 2 {
		t.Errorf("expected exit code 2 without id or --all, got %d", exitCode)
	}
	if exitCode := runNotificationsRead(context.Background(), &buf, "3", true); exitCode != 2 {
		t.Errorf("expected exit code 2 with both id and --all, got %d", exitCode)
	}
}

func TestNotificationsReadCommand_All(t *testing.T) {
	var markedAll atomic.Bool
	r := notificationRouter(func() []models.Notification {
		return []models.Notification{{ID: "1", Read: markedAll.Load()}}
	})
	r.Patch("/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		markedAll.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	useBackend(t, r)
	signIn(t, customerUser)

	var buf bytes.Buffer
	exitCode := runNotificationsRead(context.Background(), &buf, "", true)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !markedAll.Load() {
		t.Error("expected read-all to be called")
	}
	if !bytes.Contains(buf.Bytes(), []byte("0 unread")) {
		t.Errorf("expected unread count, got %s", buf.String())
	}
}

func TestNotificationsWatchCommand_PrintsNewArrivals(t *testing.T) {
	minWatchInterval = time.Millisecond
	defer func() { minWatchInterval = time.Second }()

	var polls atomic.Int32
	useBackend(t, notificationRouter(func() []models.Notification {
		items := []models.Notification{{ID: "1", Title: "Old news", Read: true}}
		if polls.Add(1) > 1 {
			items = append(items, models.Notification{ID: "2", Title: "Box shipped"})
		}
		return items
	}))
	signIn(t, customerUser)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out syncBuffer
	exitCode := runNotificationsWatch(ctx, &out, 20*time.Millisecond, "")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, out.String())
	}
	output := out.String()
	if !bytes.Contains([]byte(output), []byte("Box shipped")) {
		t.Errorf("expected new notification, got %s", output)
	}
	if bytes.Contains([]byte(output), []byte("Old news")) {
		t.Errorf("read notifications present at start should not be printed, got %s", output)
	}
}

func TestNotificationsWatchCommand_StopsOnUnauthorized(t *testing.T) {
	minWatchInterval = time.Millisecond
	defer func() { minWatchInterval = time.Second }()

	r := chi.NewRouter()
	r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	useBackend(t, r)
	signIn(t, customerUser)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out syncBuffer
	exitCode := runNotificationsWatch(ctx, &out, 10*time.Millisecond, "")
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if ctx.Err() != nil {
		t.Error("watch should stop on 401 rather than run until the deadline")
	}
}

func TestNotificationsWatchCommand_RejectsShortInterval(t *testing.T) {
	var buf bytes.Buffer
	if exitCode := runNotificationsWatch(context.Background(), &buf, time.Millisecond, ""); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}
