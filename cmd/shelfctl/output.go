package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/shelf/internal/domain/catalog"
)

// Shelf palette.
var (
	colorAccent  = lipgloss.Color("#C0841A")
	colorSuccess = lipgloss.Color("#2E9E5B")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6B6B6B")
)

var styles = struct { //nolint:gochecknoglobals // shared palette
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
}

// output renders command results. In plain mode nothing is styled.
type output struct {
	w     io.Writer
	plain bool
}

func (o *output) render(s lipgloss.Style, text string) string {
	if o.plain {
		return text
	}
	return s.Render(text)
}

func (o *output) tier(t catalog.Tier) string {
	if o.plain {
		return t.String()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Color())).Render(t.String())
}

func (o *output) title(text string) {
	_, _ = fmt.Fprintln(o.w, o.render(styles.Title, text))
}

func (o *output) line(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format+"\n", args...)
}

func (o *output) box(text string) {
	if o.plain {
		_, _ = fmt.Fprintln(o.w, text)
		return
	}
	_, _ = fmt.Fprintln(o.w, styles.Box.Render(text))
}

// criteria prints a table of criteria with tier-coloured cells.
func (o *output) criteria(cs []catalog.Criterion, extra func(catalog.Criterion) string, extraHeader string) {
	headers := []string{"KEY", "TIER", "REQUIRED", "TITLE"}
	if extra != nil {
		headers = append(headers, extraHeader)
	}
	t := table.New().Headers(headers...)
	if o.plain {
		t = t.Border(lipgloss.HiddenBorder())
	} else {
		t = t.Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return styles.Header
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
	}
	for _, c := range cs {
		row := []string{
			c.Key().String(),
			o.tier(c.Tier),
			fmt.Sprintf("%d", c.RequiredValue),
			c.Title,
		}
		if extra != nil {
			row = append(row, extra(c))
		}
		t = t.Row(row...)
	}
	_, _ = fmt.Fprintln(o.w, t.Render())
}
