package cli

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/chart"
	"github.com/convertkit/unitconv/internal/config"
	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/history"
	"github.com/convertkit/unitconv/internal/logging"
)

type sessionOptions struct {
	chart      bool
	chartWidth int
}

func newSessionCommand() *cobra.Command {
	opts := &sessionOptions{}

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run a batch of conversions read from stdin",
		Long: `Session reads one conversion per line from stdin, prints each result,
and finishes with a table of the session's conversions and a bar chart
of the numeric results.

Each line is "value from to [category]". Separate fields with commas
when a unit contains spaces:

  1000 meter kilometer
  100, celsius, fahrenheit, Temperature
  2, square meter, square foot

Blank lines and lines starting with '#' are skipped. Malformed lines are
reported on stderr and skipped. The session keeps its own log; with
--history-db every conversion is also appended to that database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.chart, "chart", true, "print a bar chart after the table")
	f.IntVar(&opts.chartWidth, "chart-width", chart.DefaultBarOptions().Width, "length of the longest bar")

	return cmd
}

func runSession(ctx context.Context, cmd *cobra.Command, opts *sessionOptions) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)

	session := history.NewMemoryLog()
	defer session.Close()

	var persistent history.Log
	if rt.cfg.HistoryDB != "" {
		if persistent, err = openHistory(ctx); err != nil {
			return err
		}
		defer persistent.Close()
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := parseSessionLine(line)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "line %d: %v\n", lineNo, err)
			continue
		}

		res := rt.dispatcher.Convert(ctx, req)

		if err := record(ctx, history.NewRecord(req, converter.Resolve(req), res), session, persistent); err != nil {
			logger.Warn("conversion not recorded", slog.Int("line", lineNo), slog.String("error", err.Error()))
		}

		line = fmt.Sprintf("%g %s = %s %s", req.Value, req.From, res, req.To)
		if !res.OK() {
			line = fmt.Sprintf("%g %s -> %s: %s", req.Value, req.From, req.To, res)
		}

		if _, err := fmt.Fprintln(out, line); err != nil {
			return &ExitError{Code: exitWriteFailed, Err: err}
		}
	}

	if err := scanner.Err(); err != nil {
		return &ExitError{Code: exitError, Err: fmt.Errorf("reading input: %w", err)}
	}

	records, err := session.List(ctx)
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	return writeReport(out, records, opts.chart, chartOptions(ctx, opts.chartWidth))
}

// writeReport prints the history table and, optionally, the bar chart.
func writeReport(w io.Writer, records []history.Record, withChart bool, opts chart.BarOptions) error {
	if _, err := fmt.Fprintln(w); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	if err := chart.Table(w, records); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	if !withChart || len(records) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(w)

	if err := chart.Bars(w, records, opts); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	return nil
}

func chartOptions(ctx context.Context, width int) chart.BarOptions {
	return chart.BarOptions{
		Width: width,
		Color: !config.FromContext(ctx).NoColor,
	}
}

// parseSessionLine parses "value from to [category]". Fields are separated
// by commas when the line contains one, otherwise by whitespace.
func parseSessionLine(line string) (converter.Request, error) {
	var fields []string

	if strings.Contains(line, ",") {
		r := csv.NewReader(strings.NewReader(line))
		r.TrimLeadingSpace = true

		rec, err := r.Read()
		if err != nil {
			return converter.Request{}, fmt.Errorf("malformed line: %w", err)
		}

		for _, f := range rec {
			fields = append(fields, strings.TrimSpace(f))
		}
	} else {
		fields = strings.Fields(line)
	}

	if len(fields) < 3 || len(fields) > 4 {
		return converter.Request{}, fmt.Errorf("expected \"value from to [category]\", got %d field(s)", len(fields))
	}

	value, err := parseValue(fields[0])
	if err != nil {
		return converter.Request{}, err
	}

	req := converter.Request{Value: value, From: fields[1], To: fields[2]}
	if len(fields) == 4 {
		req.Category = converter.Category(fields[3])
	}

	return req, nil
}
