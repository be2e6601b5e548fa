// Package chart renders conversion history as a table and a horizontal bar
// chart for terminals.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/convertkit/unitconv/internal/history"
)

// Table writes records as an aligned table. Failed conversions show their
// error string in the RESULT column.
func Table(w io.Writer, records []history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No conversions recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "VALUE\tFROM\tTO\tRESULT")
	_, _ = fmt.Fprintln(tw, "-----\t----\t--\t------")

	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%g\t%s\t%s\t%s\n", r.Value, r.From, r.To, r.Display())
	}

	return tw.Flush()
}

// BarOptions configures Bars.
type BarOptions struct {
	// Width is the length in cells of the longest bar.
	Width int

	// Color enables per-target-unit colors. Colors are only emitted when the
	// destination supports them.
	Color bool
}

// DefaultBarOptions returns sensible defaults.
func DefaultBarOptions() BarOptions {
	return BarOptions{Width: 40, Color: true}
}

// palette holds ANSI colors assigned to target units in order of first use.
var palette = []string{"12", "2", "11", "13", "14", "9", "10", "5"}

// Bars draws one horizontal bar per numeric record, labelled with the source
// unit and scaled to the largest absolute result. Records without a numeric
// result are skipped and counted in a footer.
func Bars(w io.Writer, records []history.Record, opts BarOptions) error {
	if opts.Width <= 0 {
		opts.Width = DefaultBarOptions().Width
	}

	type row struct {
		label string
		to    string
		value float64
	}

	var (
		rows    []row
		skipped int
		maxAbs  float64
		labelW  int
	)

	for _, r := range records {
		v, ok := r.Numeric()
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			skipped++
			continue
		}

		rows = append(rows, row{label: r.From, to: r.To, value: v})
		maxAbs = math.Max(maxAbs, math.Abs(v))
		labelW = max(labelW, lipgloss.Width(r.From))
	}

	renderer := lipgloss.NewRenderer(w)
	colors := make(map[string]string)

	var b strings.Builder

	if len(rows) == 0 {
		b.WriteString("No numeric results to chart.\n")
	}

	for _, r := range rows {
		n := 0
		if maxAbs > 0 {
			n = int(math.Round(math.Abs(r.value) / maxAbs * float64(opts.Width)))
		}

		bar := strings.Repeat("#", n)

		if opts.Color {
			c, ok := colors[r.to]
			if !ok {
				c = palette[len(colors)%len(palette)]
				colors[r.to] = c
			}

			bar = renderer.NewStyle().Foreground(lipgloss.Color(c)).Render(bar)
		}

		pad := strings.Repeat(" ", labelW-lipgloss.Width(r.label))
		fmt.Fprintf(&b, "%s%s |%s %g %s\n", r.label, pad, bar, r.value, r.to)
	}

	if skipped > 0 {
		fmt.Fprintf(&b, "(%d non-numeric result(s) omitted)\n", skipped)
	}

	_, err := io.WriteString(w, b.String())

	return err
}
