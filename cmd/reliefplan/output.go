package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/reliefplan/pkg/model"
	"github.com/vanderheijden86/reliefplan/pkg/render"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	colorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	muted lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	head  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1),
		label: lipgloss.NewStyle().Bold(true),
		muted: lipgloss.NewStyle().Foreground(colorMuted),
		ok:    lipgloss.NewStyle().Foreground(colorSuccess),
		err:   lipgloss.NewStyle().Bold(true).Foreground(colorDanger),
		head:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
	}
}

type reportLine struct {
	Label string
	Text  string
}

// report is a command result that can be printed styled, as markdown or as
// plain text for the clipboard.
type report struct {
	Title  string
	Lines  []reportLine
	Header []string
	Rows   [][]string
	Notes  []string
}

func (r report) line(l reportLine) string {
	if l.Label == "" {
		return l.Text
	}
	if l.Text == "" {
		return l.Label
	}
	return l.Label + " " + l.Text
}

// Plain is the unstyled text.
func (r report) Plain() string {
	var b strings.Builder
	for _, l := range r.Lines {
		b.WriteString(r.line(l))
		b.WriteByte('\n')
	}
	if len(r.Header) > 0 {
		b.WriteString(formatTable(r.Header, r.Rows, func(s string) string { return s }))
	}
	for _, n := range r.Notes {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return b.String()
}

// Styled renders r for a terminal.
func (r report) Styled(s styles) string {
	var b strings.Builder
	if r.Title != "" {
		b.WriteString(s.title.Render(r.Title))
		b.WriteByte('\n')
	}
	for _, l := range r.Lines {
		switch {
		case l.Label == "":
			b.WriteString(l.Text)
		case l.Text == "":
			b.WriteString(s.label.Render(l.Label))
		default:
			b.WriteString(s.label.Render(l.Label) + " " + l.Text)
		}
		b.WriteByte('\n')
	}
	if len(r.Header) > 0 {
		b.WriteString(formatTable(r.Header, r.Rows, func(t string) string { return s.head.Render(t) }))
	}
	for _, n := range r.Notes {
		b.WriteString(s.muted.Render(n))
		b.WriteByte('\n')
	}
	return b.String()
}

// Markdown renders r as a markdown document.
func (r report) Markdown() string {
	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
	}
	for _, l := range r.Lines {
		switch {
		case l.Label == "":
			fmt.Fprintf(&b, "- %s\n", l.Text)
		case l.Text == "":
			fmt.Fprintf(&b, "\n**%s**\n\n", l.Label)
		default:
			fmt.Fprintf(&b, "**%s** %s\n\n", l.Label, l.Text)
		}
	}
	if len(r.Header) > 0 {
		b.WriteString("\n| " + strings.Join(r.Header, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(r.Header)) + "\n")
		for _, row := range r.Rows {
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "\n_%s_\n", n)
	}
	return b.String()
}

// formatTable pads columns by display width so names in any script line up.
func formatTable(header []string, rows [][]string, head func(string) string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var b strings.Builder
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = head(runewidth.FillRight(h, widths[i]))
	}
	b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	for _, row := range rows {
		cells = cells[:0]
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i == 0 {
				cells = append(cells, runewidth.FillRight(cell, widths[i]))
			} else {
				cells = append(cells, runewidth.FillLeft(cell, widths[i]))
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")
	}
	return b.String()
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// emit prints r and copies it when asked. A clipboard failure only warns.
func (a *app) emit(r report, f *plannerFlags) error {
	if f.markdown {
		out, err := renderMarkdown(r.Markdown())
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprint(a.stdout, out)
	} else {
		fmt.Fprint(a.stdout, r.Styled(a.styles))
	}

	if f.copy {
		if err := clipboard.WriteAll(r.Plain()); err != nil {
			fmt.Fprintln(a.stderr, a.styles.muted.Render("Clipboard unavailable: "+err.Error()))
		} else {
			fmt.Fprintln(a.stderr, a.styles.ok.Render("Copied to clipboard."))
		}
	}
	return nil
}

// writeGraph draws req to path. A remote planner draws server-side so the
// picture matches the web UI of that server.
func (a *app) writeGraph(ctx context.Context, p *planner, path string, req model.GraphRenderRequest) error {
	if p.remote == nil {
		written, err := render.Save(path, render.NewLayout(req, renderOptions(a.cfg)))
		if err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
		a.wrote(written)
		return nil
	}

	path, format, err := render.FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := p.remote.RenderGraph(ctx, req, string(format))
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return err
	}
	a.wrote(path)
	return nil
}

// writeChart saves the allocation pie as SVG.
func (a *app) writeChart(ctx context.Context, p *planner, path string, rows []model.AllocationRow) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".svg" && ext != "" {
		return fmt.Errorf("allocation chart must be .svg, got %q", ext)
	}
	if filepath.Ext(path) == "" {
		path += ".svg"
	}

	var data []byte
	if p.remote != nil {
		var err error
		data, err = p.remote.RenderAllocation(ctx, model.AllocationRenderRequest{Allocation: rows})
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
	} else {
		var b strings.Builder
		if err := render.AllocationPie(&b, rows, "", renderOptions(a.cfg)); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		data = []byte(b.String())
	}
	if err := writeFile(path, data); err != nil {
		return err
	}
	a.wrote(path)
	return nil
}

func (a *app) wrote(path string) {
	fmt.Fprintln(a.stderr, a.styles.muted.Render("Wrote "+path))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
