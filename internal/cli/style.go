package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#6b7280")
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)

	diffAddStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	diffDelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	diffHunkStyle = lipgloss.NewStyle().Foreground(colorInfo)
)

var printer = message.NewPrinter(language.English)

// renderDiff colors a unified diff line by line.
func renderDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		text := strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			b.WriteString(headerStyle.Render(text))
		case strings.HasPrefix(text, "@@"):
			b.WriteString(diffHunkStyle.Render(text))
		case strings.HasPrefix(text, "+"):
			b.WriteString(diffAddStyle.Render(text))
		case strings.HasPrefix(text, "-"):
			b.WriteString(diffDelStyle.Render(text))
		default:
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// plural returns n followed by word, pluralized with a trailing "s".
func plural(n int, word string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, word)
	}
	return printer.Sprintf("%d %ss", n, word)
}
