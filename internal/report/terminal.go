// Package report renders a finished Snapshot for people (terminal) and for
// machines (JSON export).
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"log-analyzer/internal/models"
)

const (
	separatorWidth = 68
	endpointWidth  = 40
)

// styles groups the lipgloss styles of one renderer.
type styles struct {
	frame   lipgloss.Style
	title   lipgloss.Style
	marker  lipgloss.Style
	source  lipgloss.Style
	dim     lipgloss.Style
	good    lipgloss.Style
	notice  lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	barFill lipgloss.Style
	status  map[byte]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	green := r.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := r.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := r.NewStyle().Foreground(lipgloss.Color("220"))
	red := r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	return styles{
		frame:   cyan.Bold(true),
		title:   r.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
		marker:  cyan,
		source:  yellow,
		dim:     r.NewStyle().Faint(true),
		good:    green.Bold(true),
		notice:  yellow.Bold(true),
		info:    green,
		warn:    yellow,
		err:     red,
		barFill: green,
		status: map[byte]lipgloss.Style{
			'2': green,
			'3': cyan,
			'4': yellow,
			'5': red,
		},
	}
}

// TextRenderer writes a human readable report with ANSI styling when the
// destination supports it.
type TextRenderer struct {
	w     io.Writer
	style styles
}

// NewTextRenderer returns a renderer writing to w. Colour output is chosen
// from w's terminal capabilities.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w, style: newStyles(lipgloss.NewRenderer(w))}
}

// Render prints the full report for a snapshot taken from source.
func (r *TextRenderer) Render(s *models.Snapshot, source string) error {
	var b strings.Builder
	thick := strings.Repeat("═", separatorWidth)

	fmt.Fprintf(&b, "\n%s\n", r.style.frame.Render(thick))
	fmt.Fprintf(&b, "  %s\n", r.style.title.Render("LOG ANALYSIS REPORT"))
	fmt.Fprintf(&b, "%s\n", r.style.frame.Render(thick))
	fmt.Fprintf(&b, "  Source : %s\n\n", r.style.source.Render(source))

	r.overview(&b, s)
	r.levels(&b, s)
	r.statuses(&b, s)
	r.ranked(&b, fmt.Sprintf("TOP %d IP ADDRESSES BY REQUEST COUNT", s.TopN), "IP Address", 17, s.TopIPs)
	r.ranked(&b, fmt.Sprintf("TOP %d ENDPOINTS BY REQUEST FREQUENCY", s.TopN), "Endpoint", endpointWidth, s.TopEndpoints)
	r.flagged(&b, s)

	fmt.Fprintf(&b, "\n%s\n\n", r.style.frame.Render(thick))

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "  %s %s\n", r.style.marker.Render("▶"), r.style.title.Render(title))
	fmt.Fprintf(b, "  %s\n", thin(separatorWidth))
}

func (r *TextRenderer) overview(b *strings.Builder, s *models.Snapshot) {
	r.section(b, "OVERVIEW")
	total := strconv.Itoa(s.TotalEntries)
	width := max(len(total), 6)

	malformed := fmt.Sprintf("%*d", width, s.MalformedEntries)
	if s.MalformedEntries > 0 {
		malformed = r.style.notice.Render(malformed)
	}

	fmt.Fprintf(b, "  %-28s %s\n", "Total entries parsed:", r.style.good.Render(fmt.Sprintf("%*s", width, total)))
	fmt.Fprintf(b, "  %-28s %s\n\n", "Malformed lines:", malformed)
}

func (r *TextRenderer) levels(b *strings.Builder, s *models.Snapshot) {
	r.section(b, "LOG LEVEL BREAKDOWN")
	for _, level := range models.Levels {
		lc := s.LevelCounts[level]
		name := fmt.Sprintf("%-6s", level)
		switch level {
		case models.LevelInfo:
			name = r.style.info.Render(name)
		case models.LevelWarn:
			name = r.style.warn.Render(name)
		case models.LevelError:
			name = r.style.err.Render(name)
		}
		fmt.Fprintf(b, "  %s %6d  (%5.1f%%)  %s\n", name, lc.Count, lc.Percentage, r.bar(lc.Percentage, 30))
	}
	b.WriteString("\n")
}

func (r *TextRenderer) statuses(b *strings.Builder, s *models.Snapshot) {
	r.section(b, "STATUS CODE DISTRIBUTION")

	codes := make([]string, 0, len(s.StatusCodeDistribution))
	for code := range s.StatusCodeDistribution {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if len(codes) == 0 {
		b.WriteString("  (no data)\n")
	}
	for _, code := range codes {
		count := s.StatusCodeDistribution[code]
		pct := share(count, s.TotalEntries)
		styled := code
		if st, ok := r.style.status[code[0]]; ok {
			styled = st.Render(code)
		}
		fmt.Fprintf(b, "  HTTP %s  %6d  (%5.1f%%)  %s\n", styled, count, pct, r.bar(pct, 20))
	}
	b.WriteString("\n")
}

func (r *TextRenderer) ranked(b *strings.Builder, title, header string, width int, items []models.RankedItem) {
	r.section(b, title)
	if len(items) == 0 {
		b.WriteString("  (no data)\n\n")
		return
	}

	fmt.Fprintf(b, "  %-3s  %-*s  %8s  %8s\n", "#", width, header, "Requests", "Share")
	fmt.Fprintf(b, "  %s\n", thin(width+25))
	for i, item := range items {
		value := padRight(truncate(item.Value, width), width)
		fmt.Fprintf(b, "  %s  %s  %8d  %7.1f%%\n",
			r.style.dim.Render(fmt.Sprintf("%-3d", i+1)),
			r.style.marker.Render(value),
			item.Count,
			item.Percentage,
		)
	}
	b.WriteString("\n")
}

func (r *TextRenderer) flagged(b *strings.Builder, s *models.Snapshot) {
	r.section(b, fmt.Sprintf("FLAGGED IPs (ERROR COUNT > %d)", s.ErrorThreshold))
	if len(s.FlaggedIPs) == 0 {
		fmt.Fprintf(b, "  %s No IPs exceeded the error threshold.\n", r.style.good.Render("✓"))
		return
	}

	fmt.Fprintf(b, "  %s IPs flagged!\n\n", r.style.err.Render(strconv.Itoa(len(s.FlaggedIPs))))
	fmt.Fprintf(b, "  %-3s  %-17s  %8s  %8s  %10s\n", "#", "IP Address", "Errors", "Total", "Error Rate")
	fmt.Fprintf(b, "  %s\n", thin(60))
	for i, f := range s.FlaggedIPs {
		fmt.Fprintf(b, "  %s  %s  %s  %8d  %9.1f%%\n",
			r.style.dim.Render(fmt.Sprintf("%-3d", i+1)),
			r.style.err.Render(padRight(f.IP, 17)),
			r.style.err.Render(fmt.Sprintf("%8d", f.ErrorCount)),
			f.TotalRequests,
			f.ErrorRate,
		)
	}
}

// bar draws a fixed-width gauge for pct in [0, 100].
func (r *TextRenderer) bar(pct float64, width int) string {
	filled := int(pct/100*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return r.style.barFill.Render(strings.Repeat("█", filled)) +
		r.style.dim.Render(strings.Repeat("░", width-filled))
}

// ExportNotice confirms a JSON export on the report's writer.
func (r *TextRenderer) ExportNotice(path string) error {
	_, err := fmt.Fprintf(r.w, "%s JSON report saved to %s\n", r.style.good.Render("✓"), r.style.source.Render(path))
	return err
}

func thin(width int) string {
	return strings.Repeat("─", width)
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// share is count/total as a percentage, 0 when total is 0.
func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
