package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(12)
	urlStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Underline(true)
)

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(stdout, "%s %s\n", successStyle.Render("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Fprintf(stdout, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Fprintf(stdout, "%s %s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", errorStyle.Render("✗"), fmt.Sprintf(format, args...))
}

// field prints an aligned "label value" line.
func field(label string, value any) {
	fmt.Fprintf(stdout, "  %s%v\n", labelStyle.Render(label+":"), value)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
