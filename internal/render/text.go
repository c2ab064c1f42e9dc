// ABOUTME: Plain-text sanitizing and formatting of backend-provided values
// ABOUTME: Strips HTML from descriptions and reviews before they reach the terminal

package render

import (
	"html"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag; vendors write descriptions in a rich-text editor
var strict = bluemonday.StrictPolicy()

// Plain strips HTML tags, decodes entities, drops control characters and
// collapses whitespace. Terminal escape sequences in backend text never
// reach the output.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes, adding an ellipsis when cut
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// Money formats an amount with thousands separators. Whole amounts print
// without decimals.
func Money(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	whole := int64(amount)
	frac := amount - float64(whole)
	digits := strconv.FormatInt(whole, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if cents := int64(frac*100 + 0.5); cents > 0 {
		if cents >= 100 {
			cents = 99
		}
		b.WriteByte('.')
		if cents < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.FormatInt(cents, 10))
	}
	return b.String()
}

// Date trims an ISO timestamp to its date part
func Date(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i > 0 {
		return ts[:i]
	}
	return ts
}
