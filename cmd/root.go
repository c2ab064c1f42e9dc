// ABOUTME: Root command for the subme CLI
// ABOUTME: Handles global flags, configuration, logging and exit codes

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dangquan18/subme/config"
	"github.com/dangquan18/subme/internal/api"
	"github.com/dangquan18/subme/internal/app"
	"github.com/dangquan18/subme/internal/auth"
	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/logger"
	"github.com/dangquan18/subme/models"
)

var (
	apiURL     string
	jsonOutput bool
	storeFlag  string
	configDir  string
	logLevel   string
)

const defaultAPIURL = "http://localhost:3000"

// Exit codes
const (
	exitOK       = 0
	exitRejected = 1 // backend rejected the request, or not signed in
	exitError    = 2 // network, configuration or unavailable backend
)

var closeLogging = func() {}

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "subme",
	Short: "CLI for the SubMe subscription-box marketplace",
	Long: `subme is a command-line client for the SubMe marketplace.

Customers browse plans, subscribe, pay and track deliveries; vendors manage
their plans and orders; admins approve vendors and plans.

Exit codes:
  0 - Success
  1 - Request rejected by the backend, or not signed in
  2 - Error (connectivity, configuration, backend unavailable)

Environment Variables:
  SUBME_API_URL          Backend API URL (default: http://localhost:3000)
  SUBME_STORE            Session store: file, memory, sqlite, redis (default: file)
  SUBME_CONFIG_DIR       Directory for the session and debug log
  SUBME_REDIS_URL        Redis URL for the redis store
  SUBME_REQUEST_TIMEOUT  Per-request timeout (default: 30s)
  SUBME_RATE_LIMIT       Max requests per second, 0 disables (default: 0)
  SUBME_DEBUG_LOG        Write logs to debug.log in the config directory
  LOG_LEVEL, LOG_FORMAT  Logging level and format (text, json)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute runs the root command
func Execute() error {
	defer closeLogging()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides SUBME_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Session store: file, memory, sqlite, redis (overrides SUBME_STORE)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for session data (overrides SUBME_CONFIG_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("SUBME_API_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig reads .env and the environment with global flags applied on top
func loadConfig() (*config.Config, error) {
	return config.LoadWith(config.Overrides{
		APIURL:    apiURL,
		Store:     storeFlag,
		ConfigDir: configDir,
		LogLevel:  logLevel,
	})
}

func setupLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		// Reported again, with an exit code, when the command opens the app
		return nil
	}
	opts := logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr}
	if cfg.DebugLog {
		opts.DebugDir = cfg.ConfigDir
	}
	closeFn, err := logger.Init(opts)
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	closeLogging = closeFn
	return nil
}

// openApp builds the client stack. On failure it reports to w and returns
// a nil App with the exit code to use.
func openApp(ctx context.Context, w io.Writer) (*app.App, int) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, exitError
	}
	a, err := app.New(ctx, cfg, app.WithLogger(slog.Default()))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, exitError
	}
	return a, exitOK
}

// requireUser returns the signed-in user, or reports and returns an exit code
func requireUser(w io.Writer, a *app.App) (*models.User, int) {
	user, err := a.Auth.User()
	if err != nil {
		return nil, fail(w, err)
	}
	return user, exitOK
}

// requireRole is requireUser plus the role gate
func requireRole(w io.Writer, a *app.App, role models.Role) (*models.User, int) {
	user, code := requireUser(w, a)
	if user == nil {
		return nil, code
	}
	if err := auth.RequireRole(user, role); err != nil {
		return nil, fail(w, err)
	}
	return user, exitOK
}

// fail prints err for a human and maps it to an exit code
func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, render.ErrorStyle.Render("Error:")+" "+describeError(err))
	return exitCode(err)
}

func describeError(err error) string {
	var fe *auth.ForbiddenError
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "not signed in. Run 'subme login' first."
	case errors.As(err, &fe):
		return fe.Error()
	}
	if ae, ok := client.AsAPIError(err); ok {
		switch {
		case ae.Kind() == client.KindUnauthorized:
			msg := "session expired or was revoked"
			if ae.Message != "" && !strings.EqualFold(ae.Message, "unauthorized") {
				msg = ae.Message
			}
			return msg + ". Run 'subme login' to sign in."
		case ae.Kind() == client.KindValidation && ae.Message != "":
			return ae.Message
		}
		return ae.Error()
	}
	var ne *client.NetworkError
	if errors.As(err, &ne) {
		return ne.Error()
	}
	return err.Error()
}

// exitCode maps an error to the CLI exit code convention
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var fe *auth.ForbiddenError
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), errors.As(err, &fe):
		return exitRejected
	case client.IsNetwork(err), client.IsUnavailable(err), errors.Is(err, api.ErrUnexpectedShape):
		return exitError
	}
	if _, ok := client.AsAPIError(err); ok {
		return exitRejected
	}
	return exitError
}

// output writes v as JSON when --json is set, otherwise the human text
func output(w io.Writer, v any, human func() string) int {
	if IsJSONOutput() {
		if err := render.JSON(w, v); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, human())
	return exitOK
}

// execute runs a command body with signal handling and exits non-zero on
// failure
func execute(run func(ctx context.Context) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	cancel()

	if code != exitOK {
		closeLogging()
		os.Exit(code)
	}
}
