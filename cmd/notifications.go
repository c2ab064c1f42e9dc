// ABOUTME: Notification commands: list, mark read and watch for new ones
// ABOUTME: watch polls the backend and can expose client metrics over HTTP

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dangquan18/subme/internal/api"
	"github.com/dangquan18/subme/internal/app"
	"github.com/dangquan18/subme/internal/auth"
	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/internal/metrics"
	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

var (
	notifUnreadOnly  bool
	notifReadAll     bool
	watchInterval    time.Duration
	watchMetricsAddr string
)

var minWatchInterval = time.Second

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Read your notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runNotificationsList(ctx, os.Stdout, notifUnreadOnly) })
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Mark a notification, or all of them with --all, as read",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			var id models.ID
			if len(args) == 1 {
				id = models.ID(args[0])
			}
			return runNotificationsRead(ctx, os.Stdout, id, notifReadAll)
		})
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for new notifications until interrupted",
	Long: `Polls the backend and prints notifications as they arrive.

With --metrics-addr the client's Prometheus metrics are served at /metrics
on that address while watching.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runNotificationsWatch(ctx, os.Stdout, watchInterval, watchMetricsAddr)
		})
	},
}

func init() {
	notificationsListCmd.Flags().BoolVar(&notifUnreadOnly, "unread", false, "Show only unread notifications")
	notificationsReadCmd.Flags().BoolVar(&notifReadAll, "all", false, "Mark every notification as read")
	notificationsWatchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "Polling interval")
	notificationsWatchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve metrics on this address, for example :9091")

	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd, notificationsWatchCmd)
	rootCmd.AddCommand(notificationsCmd)
}

// notificationList is the JSON shape of notifications list
type notificationList struct {
	Unread        int                   `json:"unread"`
	Notifications []models.Notification `json:"notifications"`
}

func runNotificationsList(ctx context.Context, w io.Writer, unreadOnly bool) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireUser(w, a); code != exitOK {
		return code
	}
	items, err := a.API.Notifications.List(ctx)
	if err != nil {
		return fail(w, err)
	}

	list := notificationList{Unread: api.CountUnread(items), Notifications: items}
	if unreadOnly {
		list.Notifications = make([]models.Notification, 0, list.Unread)
		for _, n := range items {
			if !n.Read {
				list.Notifications = append(list.Notifications, n)
			}
		}
	}
	return output(w, list, func() string { return formatNotificationsHuman(list) })
}

func runNotificationsRead(ctx context.Context, w io.Writer, id models.ID, all bool) int {
	if (id == "") == !all {
		fmt.Fprintln(w, "Error: pass either a notification ID or --all")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireUser(w, a); code != exitOK {
		return code
	}

	var err error
	if all {
		err = a.API.Notifications.MarkAllRead(ctx)
	} else {
		err = a.API.Notifications.MarkRead(ctx, id)
	}
	if err != nil {
		return fail(w, err)
	}

	unread, err := a.API.Notifications.UnreadCount(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, map[string]int{"unread": unread}, func() string {
		return render.SuccessStyle.Render(fmt.Sprintf("%s Marked as read (%d unread)", render.CheckOK, unread))
	})
}

func runNotificationsWatch(ctx context.Context, w io.Writer, interval time.Duration, metricsAddr string) int {
	if interval < minWatchInterval {
		fmt.Fprintf(w, "Error: --interval must be at least %s\n", minWatchInterval)
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireUser(w, a); code != exitOK {
		return code
	}

	// A 401 anywhere clears the session; stop instead of polling anonymously
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unsubscribe := a.Auth.Subscribe(func(ev auth.Event) {
		if ev.Kind == auth.EventSessionInvalidated {
			cancel()
		}
	})
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metrics.Handler(a.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.Logger.Info("Serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		return pollNotifications(gctx, a, w, interval)
	})

	if err := g.Wait(); err != nil {
		return fail(w, err)
	}
	return exitOK
}

// pollNotifications prints notifications not seen before on every tick. It
// returns nil when ctx ends and the error when the session is rejected.
// Other failures are logged and retried on the next tick.
func pollNotifications(ctx context.Context, a *app.App, w io.Writer, interval time.Duration) error {
	seen := make(map[models.ID]bool)
	first := true

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		items, err := a.API.Notifications.List(ctx)
		switch {
		case client.IsUnauthorized(err):
			return err
		case ctx.Err() != nil:
			return nil
		case err != nil:
			a.Logger.Warn("Failed to poll notifications", "error", err)
		default:
			fresh := make([]models.Notification, 0)
			for _, n := range items {
				if seen[n.ID] {
					continue
				}
				seen[n.ID] = true
				if first && n.Read {
					continue
				}
				fresh = append(fresh, n)
			}
			if first && !IsJSONOutput() {
				fmt.Fprintln(w, render.Subtitle.Render(fmt.Sprintf("Watching notifications every %s (%d unread). Press Ctrl+C to stop.", interval, api.CountUnread(items))))
			}
			first = false
			for _, n := range fresh {
				if IsJSONOutput() {
					if err := render.JSON(w, n); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(w, formatNotificationLine(n))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func formatNotificationsHuman(list notificationList) string {
	if len(list.Notifications) == 0 {
		return render.Empty("notifications")
	}
	rows := make([][]string, 0, len(list.Notifications))
	for _, n := range list.Notifications {
		state := render.Badge("NEW", render.StatusInfo)
		if n.Read {
			state = ""
		}
		rows = append(rows, []string{
			n.ID.String(),
			state,
			render.Truncate(render.Plain(n.Title), 30),
			render.Truncate(render.Plain(n.Message), 50),
			render.Date(n.CreatedAt),
		})
	}
	return render.Table([]string{"ID", "", "TITLE", "MESSAGE", "DATE"}, rows) + "\n" +
		render.Fields(render.Field{Label: "Unread", Value: fmt.Sprintf("%d", list.Unread)})
}

func formatNotificationLine(n models.Notification) string {
	line := fmt.Sprintf("%s [%s] %s", render.Bell, n.ID, render.Plain(n.Title))
	if msg := render.Plain(n.Message); msg != "" {
		line += ": " + msg
	}
	if ts := render.Date(n.CreatedAt); ts != "" {
		line += " " + render.Subtitle.Render("("+ts+")")
	}
	return line
}
