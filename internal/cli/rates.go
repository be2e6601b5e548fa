package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/config"
	"github.com/convertkit/unitconv/internal/rates"
)

func newRatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Inspect currency exchange rates",
		Long: `Inspect the exchange rates used for currency conversions.

Rates come from --rates-file when set, otherwise from the rate service at
--rates-url. All rates are quoted as units of a currency per one USD.`,
	}

	cmd.AddCommand(newRatesShowCommand(), newRatesDiffCommand())

	return cmd
}

func newRatesShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current rate snapshot",
		Long: `Show the current rate snapshot. The YAML output is a valid snapshot
file and can be passed back with --rates-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			snap, err := currentSnapshot(cmd.Context())
			if err != nil {
				return err
			}

			if format != formatText {
				return writeStructured(cmd, format, snap)
			}

			return writeSnapshotTable(cmd, snap)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json, yaml")

	return cmd
}

func newRatesDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old.yaml> [new.yaml]",
		Short: "Compare two rate snapshots",
		Long: `Diff prints a unified diff between two rate snapshots. When only one
file is given it is compared against the current rates.

Exit codes:
  0  No differences
  1  Error
  2  Invalid arguments
  8  Differences found`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRatesDiff(cmd.Context(), cmd, args)
		},
	}

	return cmd
}

func runRatesDiff(ctx context.Context, cmd *cobra.Command, args []string) error {
	oldSnap, err := rates.LoadFile(args[0])
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	opts := rates.DefaultDiffOptions()
	opts.OldLabel = args[0]

	var newSnap *rates.Snapshot

	if len(args) == 2 {
		if newSnap, err = rates.LoadFile(args[1]); err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		opts.NewLabel = args[1]
	} else {
		if newSnap, err = currentSnapshot(ctx); err != nil {
			return err
		}

		opts.NewLabel = "current"
	}

	result, err := rates.Diff(oldSnap, newSnap, opts)
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	rates.WriteDiff(cmd.OutOrStdout(), result, !config.FromContext(ctx).NoColor)

	if result.HasDifferences {
		return &ExitError{Code: exitDifferences, Err: fmt.Errorf("rate snapshots differ")}
	}

	return nil
}

func currentSnapshot(ctx context.Context) (*rates.Snapshot, error) {
	rt, err := newRuntime(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := rt.provider.Snapshot(ctx)
	if err != nil {
		return nil, &ExitError{Code: exitError, Err: err}
	}

	return snap, nil
}

func writeSnapshotTable(cmd *cobra.Command, snap *rates.Snapshot) error {
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(w, "Base: %s\n", snap.Base)

	if snap.Date != "" {
		_, _ = fmt.Fprintf(w, "Date: %s\n", snap.Date)
	}

	if snap.Source != "" {
		_, _ = fmt.Fprintf(w, "Source: %s\n", snap.Source)
	}

	_, _ = fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "CODE\tRATE")
	_, _ = fmt.Fprintln(tw, "----\t----")

	for _, code := range snap.Codes() {
		r, err := snap.Rate(code)
		if err != nil {
			continue
		}

		_, _ = fmt.Fprintf(tw, "%s\t%g\n", code, r.Value)
	}

	if err := tw.Flush(); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	return nil
}
