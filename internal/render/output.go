// ABOUTME: Output helpers shared by commands: JSON, tables and key/value blocks
// ABOUTME: Tables use lipgloss/table so columns line up with styled badges

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// JSON writes v as indented JSON followed by a newline
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Table renders rows under headers with a rounded border
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Muted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCell
			}
			return Cell
		})
	return t.String()
}

// Field is one line of a key/value block
type Field struct {
	Label string
	Value string
}

// Fields renders aligned key/value lines, skipping empty values
func Fields(fields ...Field) string {
	var lines []string
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		lines = append(lines, Label.Render(f.Label+":")+" "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// Heading renders a section title
func Heading(title string) string {
	return Title.Render(title)
}

// Empty renders the message shown instead of an empty table
func Empty(what string) string {
	return Subtitle.Render(fmt.Sprintf("No %s found.", what))
}
