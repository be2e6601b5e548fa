package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/output"
)

func newCategoriesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "categories [name]",
		Short: "List conversion categories and their units",
		Long: `List the conversion categories and their units in display order.

With a category name (case-insensitive), list only the units of that
category, one per line.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: completeCategories,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			if len(args) == 1 {
				return runCategory(cmd, args[0], format)
			}

			return runCategories(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json, yaml")

	return cmd
}

func runCategories(cmd *cobra.Command, format string) error {
	table := converter.Table()

	if format != formatText {
		return writeStructured(cmd, format, table)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "CATEGORY\tUNITS")
	_, _ = fmt.Fprintln(tw, "--------\t-----")

	for _, e := range table {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", e.Category, strings.Join(e.Units, ", "))
	}

	if err := tw.Flush(); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	return nil
}

func runCategory(cmd *cobra.Command, name, format string) error {
	category, ok := converter.ParseCategory(name)
	if !ok {
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("unknown category %q", name)}
	}

	units, _ := converter.Units(category)

	if format != formatText {
		return writeStructured(cmd, format, converter.Entry{Category: category, Units: units})
	}

	if err := output.NewStreamWriter(cmd.OutOrStdout()).Write([]byte(strings.Join(units, "\n") + "\n")); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	return nil
}

// writeStructured encodes v in format and writes it to stdout.
func writeStructured(cmd *cobra.Command, format string, v any) error {
	data, err := output.DefaultRegistry().Encode(format, v)
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}

	if err := output.NewStreamWriter(cmd.OutOrStdout()).Write(data); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	return nil
}
