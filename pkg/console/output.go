package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	// Color definitions for terminal output
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
)

// Styles defines the lipgloss styles used for summaries
var Styles = struct {
	Title      lipgloss.Style
	SummaryBox lipgloss.Style
	ErrorBox   lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),

	SummaryBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("86")).
		Padding(0, 1),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1),
}

// Printer writes status lines and summaries for the analyst
type Printer struct {
	out io.Writer
}

// NewPrinter creates a printer; a nil writer means stdout
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	successColor.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	errorColor.Fprintf(p.out, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	warningColor.Fprintf(p.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	infoColor.Fprintf(p.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Bold prints a bold line
func (p *Printer) Bold(format string, args ...interface{}) {
	boldColor.Fprintln(p.out, fmt.Sprintf(format, args...))
}

// Println prints plain text
func (p *Printer) Println(a ...interface{}) {
	fmt.Fprintln(p.out, a...)
}

// Summary prints a titled box listing the given lines
func (p *Printer) Summary(title string, lines []string) {
	body := "(none)"
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}
	content := Styles.Title.Render(title) + "\n\n" + body
	fmt.Fprintln(p.out, Styles.SummaryBox.Render(content))
}

// ErrorSummary prints a titled box in the error style
func (p *Printer) ErrorSummary(title string, lines []string) {
	content := errorColor.Sprint(title) + "\n\n" + strings.Join(lines, "\n")
	fmt.Fprintln(p.out, Styles.ErrorBox.Render(content))
}
