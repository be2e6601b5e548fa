package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/chart"
	"github.com/convertkit/unitconv/internal/config"
	"github.com/convertkit/unitconv/internal/history"
	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/output"
)

func newHistoryCommand() *cobra.Command {
	var (
		withChart  bool
		chartWidth int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversions",
		Long: `Show the conversions recorded in the history database given by
--history-db (or history-db in the config file), oldest first.

Failed conversions are listed with their error; the bar chart shows
only numeric results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			records, err := listHistory(ctx)
			if err != nil {
				return err
			}

			if err := chart.Table(cmd.OutOrStdout(), records); err != nil {
				return &ExitError{Code: exitWriteFailed, Err: err}
			}

			if !withChart || len(records) == 0 {
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout())

			if err := chart.Bars(cmd.OutOrStdout(), records, chartOptions(ctx, chartWidth)); err != nil {
				return &ExitError{Code: exitWriteFailed, Err: err}
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&withChart, "chart", false, "print a bar chart after the table")
	f.IntVar(&chartWidth, "chart-width", chart.DefaultBarOptions().Width, "length of the longest bar")

	cmd.AddCommand(newHistoryExportCommand(), newHistoryClearCommand())

	return cmd
}

func newHistoryExportCommand() *cobra.Command {
	var (
		format    string
		outputArg string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded conversions as YAML or JSON",
		Long: `Export the recorded conversions as a document with a record count and
the records, oldest first.

Supported formats:
  yaml  YAML document (default)
  json  JSON with two-space indentation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			records, err := listHistory(ctx)
			if err != nil {
				return err
			}

			data, err := history.Export(records, format)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			writerOpts := []output.FileWriterOption{output.WithLogger(logging.FromContext(ctx))}
			if !force {
				writerOpts = append(writerOpts, output.WithNoClobber())
			}

			if err := output.ForPath(outputArg, cmd.OutOrStdout(), writerOpts...).Write(data); err != nil {
				if errors.Is(err, output.ErrFileExists) {
					err = fmt.Errorf("%w (use --force to overwrite)", err)
				}

				return &ExitError{Code: exitWriteFailed, Err: err}
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&format, "format", "yaml", "export format: yaml, json, jsonl")
	f.StringVarP(&outputArg, "output", "o", "", "output file path (default: stdout)")
	f.BoolVar(&force, "force", false, "overwrite an existing output file")

	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := requireHistoryDB(ctx); err != nil {
				return err
			}

			log, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer log.Close()

			if err := log.Clear(ctx); err != nil {
				return &ExitError{Code: exitError, Err: err}
			}

			if !config.FromContext(ctx).Quiet {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "History cleared.")
			}

			return nil
		},
	}
}

func listHistory(ctx context.Context) ([]history.Record, error) {
	if err := requireHistoryDB(ctx); err != nil {
		return nil, err
	}

	log, err := openHistory(ctx)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	records, err := log.List(ctx)
	if err != nil {
		return nil, &ExitError{Code: exitError, Err: err}
	}

	return records, nil
}

func requireHistoryDB(ctx context.Context) error {
	if config.FromContext(ctx).HistoryDB == "" {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("no history database configured: set --history-db or history-db in the config file")}
	}

	return nil
}
