// ABOUTME: Browse command that opens the full-screen catalog browser
// ABOUTME: Needs a terminal; logs go to the debug log or are dropped

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dangquan18/subme/internal/tui"
	"github.com/dangquan18/subme/logger"
	"github.com/dangquan18/subme/models"
)

var browseFilter models.PackageFilter

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse plans in a full-screen catalog",
	Long: `Open an interactive catalog browser.

Keys: arrows or j/k move, enter opens a plan, / searches, r refreshes, q quits.
Set SUBME_DEBUG_LOG=true to keep logs while the browser owns the screen.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runBrowse(ctx, os.Stdout, browseFilter) })
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseFilter.Category, "category", "", "Start with a category filter")
	browseCmd.Flags().StringVar(&browseFilter.Search, "search", "", "Start with a search query")
	rootCmd.AddCommand(browseCmd)
}

// runTUI is swapped in tests
var runTUI = tui.Run

func runBrowse(ctx context.Context, w io.Writer, f models.PackageFilter) int {
	if !isInteractive() {
		fmt.Fprintln(w, "Error: browse needs a terminal; use 'subme packages list' instead")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	// stderr output would tear the alternate screen
	log := logger.Discard()
	if a.Config.DebugLog {
		log = slog.Default()
	}

	if err := runTUI(ctx, a.API.Packages, a.API.Reviews, f, log); err != nil && ctx.Err() == nil {
		return fail(w, err)
	}
	return exitOK
}
