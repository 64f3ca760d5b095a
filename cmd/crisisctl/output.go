package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/analysis"
)

var (
	colorLow      = lipgloss.Color("#2CD7C7")
	colorModerate = lipgloss.Color("#F4D03F")
	colorHigh     = lipgloss.Color("#E67E22")
	colorCritical = lipgloss.Color("#E74C3C")
	colorMuted    = lipgloss.Color("#7F8C8D")
)

// styles are bound to one writer; a non-terminal writer renders plain text.
type styles struct {
	renderer *lipgloss.Renderer
	title    lipgloss.Style
	muted    lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	border   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		renderer: r,
		title:    r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(colorMuted),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		border:   r.NewStyle().Foreground(colorMuted),
	}
}

func (s styles) classification(c analysis.Classification) string {
	style := s.renderer.NewStyle()
	switch c {
	case analysis.ClassLow:
		style = style.Foreground(colorLow)
	case analysis.ClassModerate:
		style = style.Foreground(colorModerate)
	case analysis.ClassHigh:
		style = style.Foreground(colorHigh)
	case analysis.ClassCritical:
		style = style.Foreground(colorCritical).Bold(true)
	}
	return style.Render(string(c))
}

// table renders rows with a bold header row.
func (s styles) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		}).
		Render()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func factorList(factors []analysis.Factor) string {
	if len(factors) == 0 {
		return "-"
	}
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = fmt.Sprintf("%s (%.1f)", f.Name, f.Impact)
	}
	return strings.Join(names, ", ")
}
