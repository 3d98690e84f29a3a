//go:build !(js && wasm)

package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	codeStyle   = lipgloss.NewStyle().Bold(true)
	locStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Format returns the error rendered for terminal display.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(headerStyle.Render("ERROR "))
		b.WriteString(codeStyle.Render(e.Code + ": "))
	} else {
		b.WriteString(headerStyle.Render("ERROR: "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")

	if e.Location != nil {
		b.WriteString("  ")
		b.WriteString(locStyle.Render(e.Location.String()))
		b.WriteString("\n\n")

		if len(e.Context) > 0 {
			startLine := e.Location.Line - len(e.Context)/2
			for i, line := range e.Context {
				lineNum := startLine + i
				prefix := "    "
				if lineNum == e.Location.Line {
					prefix = "  " + markStyle.Render("→ ")
				}
				fmt.Fprintf(&b, "%s%4d%s%s\n", prefix, lineNum, gutterStyle.Render(" │ "), line)
				if lineNum == e.Location.Line && e.Location.Column > 0 {
					b.WriteString("       ")
					b.WriteString(gutterStyle.Render("│ "))
					b.WriteString(strings.Repeat(" ", e.Location.Column-1))
					b.WriteString(markStyle.Render("^"))
					b.WriteString("\n")
				}
			}
			b.WriteString("\n")
		}
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	hint := e.Suggestion
	if hint == "" {
		if t, ok := registry[e.Code]; ok {
			hint = t.Hint
		}
	}
	if hint != "" {
		b.WriteString("  ")
		b.WriteString(hintStyle.Render("Hint: "))
		b.WriteString(hint)
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gutterStyle.Render("Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *Error) FormatCompact() string {
	var b strings.Builder

	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())

	return b.String()
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// Fprint writes a formatted error to w.
func Fprint(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", headerStyle.Render("ERROR:"), err.Error())
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
