// ABOUTME: Status badge widgets for subscription, plan, vendor and payment states
// ABOUTME: Maps backend status strings to colored inline badges

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dangquan18/subme/models"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	var bg, fg lipgloss.Color

	switch level {
	case StatusOK:
		bg, fg = BadgeOKBg, BadgeOKFg
	case StatusWarning:
		bg, fg = BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		bg, fg = BadgeCritBg, BadgeCritFg
	case StatusInfo:
		bg, fg = BadgeInfoBg, BadgeInfoFg
	default:
		bg, fg = BadgeNeutralBg, BadgeNeutralFg
	}

	style := lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true)

	return style.Render(text)
}

// LevelFor maps a backend status string to a badge level. Unknown statuses
// are neutral.
func LevelFor(status string) StatusLevel {
	switch strings.ToLower(status) {
	case "active", "approved", "paid", "success", "completed", "delivered":
		return StatusOK
	case "pending", "paused", "processing", "scheduled", "shipping":
		return StatusWarning
	case "rejected", "cancelled", "canceled", "failed", "expired":
		return StatusCritical
	case "new", "unread":
		return StatusInfo
	default:
		return StatusNeutral
	}
}

// StatusBadge renders status with the level LevelFor picks. Empty status
// renders as "unknown".
func StatusBadge(status string) string {
	if status == "" {
		return Badge("unknown", StatusNeutral)
	}
	return Badge(strings.ToUpper(status), LevelFor(status))
}

// VendorBadge renders a vendor approval state. An unconfirmed vendor shows as
// pending, matching where it is routed.
func VendorBadge(s models.VendorStatus) string {
	if s == "" {
		return Badge("PENDING?", StatusWarning)
	}
	return StatusBadge(string(s))
}

// StatusIcon returns the icon for a status level
func StatusIcon(level StatusLevel) string {
	switch level {
	case StatusOK:
		return lipgloss.NewStyle().Foreground(BadgeOKBg).Render(CheckOK.String())
	case StatusWarning:
		return lipgloss.NewStyle().Foreground(BadgeWarnBg).Render(WarningIcon.String())
	case StatusCritical:
		return lipgloss.NewStyle().Foreground(BadgeCritBg).Render(Critical.String())
	case StatusInfo:
		return lipgloss.NewStyle().Foreground(BadgeInfoBg).Render(InfoIcon.String())
	default:
		return lipgloss.NewStyle().Foreground(BadgeNeutralBg).Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	var color lipgloss.Color
	switch level {
	case StatusOK:
		color = BadgeOKBg
	case StatusWarning:
		color = BadgeWarnBg
	case StatusCritical:
		color = BadgeCritBg
	case StatusInfo:
		color = BadgeInfoBg
	default:
		color = BadgeNeutralBg
	}

	return fmt.Sprintf("%s %s", StatusIcon(level), lipgloss.NewStyle().Foreground(color).Render(text))
}

// Stars renders a 0-5 rating
func Stars(rating float64) string {
	full := int(rating + 0.5)
	if full < 0 {
		full = 0
	}
	if full > 5 {
		full = 5
	}
	return lipgloss.NewStyle().Foreground(Warning).Render(strings.Repeat("★", full)) +
		lipgloss.NewStyle().Foreground(Muted).Render(strings.Repeat("☆", 5-full))
}
