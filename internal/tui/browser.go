// ABOUTME: Full-screen bubbletea catalog browser
// ABOUTME: Lists approved plans, searches them and shows a plan with its reviews

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

// Screen represents the current browser screen
type Screen int

const (
	ScreenCatalog Screen = iota
	ScreenSearch
	ScreenDetail
)

// Layout constants
const (
	chromeHeight = 5 // header, blank line, blank line, footer, status
	minListRows  = 5
)

// Packages is the catalog source the browser reads from
type Packages interface {
	List(ctx context.Context, f models.PackageFilter) ([]models.Package, error)
	Get(ctx context.Context, id models.ID) (*models.Package, error)
}

// Reviews is the review source shown on the detail screen
type Reviews interface {
	ForPlan(ctx context.Context, packageID models.ID) ([]models.Review, error)
}

// plansLoadedMsg is sent when the plan list arrives
type plansLoadedMsg struct {
	plans []models.Package
	err   error
}

// detailLoadedMsg is sent when a plan and its reviews arrive
type detailLoadedMsg struct {
	plan    *models.Package
	reviews []models.Review
	err     error
}

var (
	selectedStyle = lipgloss.NewStyle().Foreground(render.Primary).Bold(true)
	normalStyle   = lipgloss.NewStyle()
	helpStyle     = lipgloss.NewStyle().Foreground(render.Muted)
)

// Browser is the root model of the catalog browser
type Browser struct {
	ctx      context.Context
	packages Packages
	reviews  Reviews
	logger   *slog.Logger

	filter  models.PackageFilter
	screen  Screen
	width   int
	height  int
	loading bool
	err     error

	plans  []models.Package
	cursor int
	offset int

	plan        *models.Package
	planReviews []models.Review

	spinner  spinner.Model
	search   textinput.Model
	viewport viewport.Model
}

// New creates a browser starting from the given filter
func New(ctx context.Context, packages Packages, reviews Reviews, filter models.PackageFilter, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "coffee, snacks, tea..."
	ti.CharLimit = 64
	ti.Width = 40
	ti.SetValue(filter.Search)

	return &Browser{
		ctx:      ctx,
		packages: packages,
		reviews:  reviews,
		logger:   logger,
		filter:   filter,
		screen:   ScreenCatalog,
		loading:  true,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(render.Primary))),
		search:   ti,
		viewport: viewport.New(80, 20),
	}
}

// Init implements tea.Model
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(b.spinner.Tick, b.loadPlans())
}

// Update implements tea.Model
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.viewport.Width = msg.Width
		b.viewport.Height = max(msg.Height-chromeHeight, minListRows)
		return b, nil

	case spinner.TickMsg:
		if !b.loading {
			return b, nil
		}
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd

	case plansLoadedMsg:
		b.loading = false
		if msg.err != nil {
			b.err = msg.err
			return b, nil
		}
		b.err = nil
		b.plans = msg.plans
		b.cursor, b.offset = 0, 0
		return b, nil

	case detailLoadedMsg:
		b.loading = false
		if msg.err != nil {
			b.err = msg.err
			b.screen = ScreenCatalog
			return b, nil
		}
		b.err = nil
		b.plan = msg.plan
		b.planReviews = msg.reviews
		b.viewport.SetContent(renderDetail(b.plan, b.planReviews))
		b.viewport.GotoTop()
		b.screen = ScreenDetail
		return b, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return b, tea.Quit
		}
		switch b.screen {
		case ScreenCatalog:
			return b.updateCatalog(msg)
		case ScreenSearch:
			return b.updateSearch(msg)
		case ScreenDetail:
			return b.updateDetail(msg)
		}

	default:
		if b.screen == ScreenSearch {
			var cmd tea.Cmd
			b.search, cmd = b.search.Update(msg)
			return b, cmd
		}
	}

	return b, nil
}

func (b *Browser) updateCatalog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if b.loading {
		if msg.String() == "q" {
			return b, tea.Quit
		}
		return b, nil
	}

	switch msg.String() {
	case "q", "esc":
		return b, tea.Quit
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
	case "down", "j":
		if b.cursor < len(b.plans)-1 {
			b.cursor++
		}
	case "enter":
		if len(b.plans) == 0 {
			return b, nil
		}
		b.loading = true
		return b, tea.Batch(b.spinner.Tick, b.loadDetail(b.plans[b.cursor].ID))
	case "/":
		b.screen = ScreenSearch
		return b, b.search.Focus()
	case "c":
		if b.filter.Search == "" {
			return b, nil
		}
		b.filter.Search = ""
		b.search.SetValue("")
		return b, b.reload()
	case "r":
		return b, b.reload()
	}
	b.scrollToCursor()
	return b, nil
}

func (b *Browser) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		b.search.SetValue(b.filter.Search)
		b.search.Blur()
		b.screen = ScreenCatalog
		return b, nil
	case "enter":
		b.filter.Search = strings.TrimSpace(b.search.Value())
		b.search.Blur()
		b.screen = ScreenCatalog
		return b, b.reload()
	}

	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	return b, cmd
}

func (b *Browser) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return b, tea.Quit
	case "esc", "b":
		b.screen = ScreenCatalog
		b.plan = nil
		b.planReviews = nil
		return b, nil
	}

	var cmd tea.Cmd
	b.viewport, cmd = b.viewport.Update(msg)
	return b, cmd
}

func (b *Browser) reload() tea.Cmd {
	b.loading = true
	return tea.Batch(b.spinner.Tick, b.loadPlans())
}

// listRows is how many plans fit between the header and the footer
func (b *Browser) listRows() int {
	if b.height == 0 {
		return 20
	}
	return max(b.height-chromeHeight, minListRows)
}

func (b *Browser) scrollToCursor() {
	rows := b.listRows()
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+rows {
		b.offset = b.cursor - rows + 1
	}
}

// View implements tea.Model
func (b *Browser) View() string {
	var sb strings.Builder
	sb.WriteString(b.renderHeader())
	sb.WriteString("\n\n")

	switch {
	case b.loading:
		sb.WriteString(b.spinner.View() + " Loading...")
	case b.screen == ScreenDetail:
		sb.WriteString(b.viewport.View())
	case b.screen == ScreenSearch:
		sb.WriteString(render.Subtitle.Render("Search plans") + "\n" + b.search.View())
	default:
		sb.WriteString(b.renderCatalog())
	}

	sb.WriteString("\n\n")
	if b.err != nil {
		sb.WriteString(render.ErrorStyle.Render("Error: "+b.err.Error()) + "\n")
	}
	sb.WriteString(b.renderFooter())
	return sb.String()
}

func (b *Browser) renderHeader() string {
	title := render.Title.Render(render.Box.String() + " SubMe catalog")
	var scope []string
	if b.filter.Category != "" {
		scope = append(scope, "category: "+b.filter.Category)
	}
	if b.filter.Search != "" {
		scope = append(scope, fmt.Sprintf("search: %q", b.filter.Search))
	}
	if len(scope) == 0 {
		return title
	}
	return title + "  " + render.Subtitle.Render(strings.Join(scope, ", "))
}

func (b *Browser) renderCatalog() string {
	if len(b.plans) == 0 {
		return render.Empty("plans")
	}

	end := min(b.offset+b.listRows(), len(b.plans))
	lines := make([]string, 0, end-b.offset)
	for i := b.offset; i < end; i++ {
		p := b.plans[i]
		line := fmt.Sprintf("%-34s %14s  %s",
			render.Truncate(render.Plain(p.Name), 34),
			render.Money(p.Price),
			render.Stars(p.Rating),
		)
		if i == b.cursor {
			lines = append(lines, selectedStyle.Render("› "+line))
		} else {
			lines = append(lines, normalStyle.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func (b *Browser) renderFooter() string {
	switch b.screen {
	case ScreenSearch:
		return helpStyle.Render("enter search • esc cancel")
	case ScreenDetail:
		return helpStyle.Render("↑/↓ scroll • b back • q quit")
	}
	help := "↑/↓ move • enter open • / search • r refresh • q quit"
	if b.filter.Search != "" {
		help = "↑/↓ move • enter open • / search • c clear • r refresh • q quit"
	}
	return helpStyle.Render(help)
}

// loadPlans fetches the catalog for the current filter
func (b *Browser) loadPlans() tea.Cmd {
	filter := b.filter
	return func() tea.Msg {
		plans, err := b.packages.List(b.ctx, filter)
		return plansLoadedMsg{plans: plans, err: err}
	}
}

// loadDetail fetches a plan and its reviews concurrently. A review failure
// still shows the plan.
func (b *Browser) loadDetail(id models.ID) tea.Cmd {
	return func() tea.Msg {
		var msg detailLoadedMsg
		g, gctx := errgroup.WithContext(b.ctx)
		g.Go(func() (err error) {
			msg.plan, err = b.packages.Get(gctx, id)
			return err
		})
		g.Go(func() error {
			reviews, err := b.reviews.ForPlan(gctx, id)
			if err != nil {
				b.logger.Warn("Failed to load reviews", "package_id", id, "error", err)
				return nil
			}
			msg.reviews = reviews
			return nil
		})
		msg.err = g.Wait()
		return msg
	}
}

func renderDetail(p *models.Package, reviews []models.Review) string {
	var sb strings.Builder
	sb.WriteString(render.Title.Render(render.Plain(p.Name)) + "\n")
	sb.WriteString(render.Fields(
		render.Field{Label: "Vendor", Value: render.Plain(p.VendorName)},
		render.Field{Label: "Price", Value: render.Money(p.Price)},
		render.Field{Label: "Category", Value: p.Category},
		render.Field{Label: "Rating", Value: fmt.Sprintf("%s (%d)", render.Stars(p.Rating), p.ReviewCount)},
	))
	if desc := render.Plain(p.Description); desc != "" {
		sb.WriteString("\n\n" + desc)
	}
	if len(p.Items) > 0 {
		sb.WriteString("\n\n" + render.Subtitle.Render("In the box"))
		for _, item := range p.Items {
			sb.WriteString("\n  • " + render.Plain(item))
		}
	}

	sb.WriteString("\n\n" + render.Subtitle.Render("Reviews"))
	if len(reviews) == 0 {
		sb.WriteString("\n" + render.Empty("reviews"))
		return sb.String()
	}
	for _, r := range reviews {
		sb.WriteString(fmt.Sprintf("\n%s  %s", render.Stars(float64(r.Rating)), render.Plain(r.UserName)))
		if r.Comment != "" {
			sb.WriteString("\n  " + render.Plain(r.Comment))
		}
	}
	return sb.String()
}

// Run starts the browser on the alternate screen and blocks until it exits
func Run(ctx context.Context, packages Packages, reviews Reviews, filter models.PackageFilter, logger *slog.Logger) error {
	p := tea.NewProgram(
		New(ctx, packages, reviews, filter, logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
