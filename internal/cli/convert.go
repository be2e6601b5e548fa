package cli

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/history"
	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/output"
)

// Output formats accepted by --output on reporting commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type convertOptions struct {
	category string
	format   string
}

// conversionError is the structured form of a failed conversion.
type conversionError struct {
	Kind    converter.Kind `json:"kind"`
	Message string         `json:"message"`
}

// conversionOutput is the structured form of one conversion.
type conversionOutput struct {
	Value    float64          `json:"value"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Category string           `json:"category,omitempty"`
	Result   *float64         `json:"result,omitempty"`
	Error    *conversionError `json:"error,omitempty"`
	Display  string           `json:"display"`
}

func newConversionOutput(req converter.Request, category converter.Category, res converter.Result) conversionOutput {
	out := conversionOutput{
		Value:    req.Value,
		From:     req.From,
		To:       req.To,
		Category: string(category),
		Display:  res.String(),
	}

	if res.OK() {
		v := res.Value
		out.Result = &v
	} else {
		out.Error = &conversionError{Kind: res.Err.Kind, Message: res.Err.Message}
	}

	return out
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <value> <from> <to>",
		Short: "Convert a value from one unit to another",
		Long: `Convert a value between two units of one category.

The category is inferred from the category table when --category is
omitted. Units outside the table are resolved by the unit registry, so
expressions such as "kilometer/hour" or "kWh" are accepted too.

Quote multi-word units:
  unitconv convert 2 "square meter" "square foot"

Exit codes:
  0  Conversion succeeded
  1  Error
  2  Invalid arguments or configuration
  3  Conversion failed (the error is still printed)
  6  Output could not be written`,
		Example: `  unitconv convert 1000 meter kilometer
  unitconv convert 100 celsius fahrenheit
  unitconv convert 20 EUR JPY --category Currency
  unitconv convert 1 mile km -o json`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeConvertArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.category, "category", "c", "", "conversion category (inferred when omitted)")
	f.StringVarP(&opts.format, "output", "o", formatText, "output format: text, json, yaml")

	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)

	return cmd
}

func runConvert(ctx context.Context, cmd *cobra.Command, args []string, opts *convertOptions) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	value, err := parseValue(args[0])
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}

	req := converter.Request{
		Value:    value,
		From:     args[1],
		To:       args[2],
		Category: converter.Category(opts.category),
	}

	category := converter.Resolve(req)
	res := rt.dispatcher.Convert(ctx, req)

	if rt.cfg.HistoryDB != "" {
		recordPersistent(ctx, history.NewRecord(req, category, res))
	}

	if err := writeConversion(cmd, opts.format, newConversionOutput(req, category, res)); err != nil {
		return err
	}

	if !res.OK() {
		return &ExitError{Code: exitConversionFailed}
	}

	return nil
}

// recordPersistent appends r to the configured history database. Failures
// are logged; they never fail the conversion itself.
func recordPersistent(ctx context.Context, r history.Record) {
	logger := logging.FromContext(ctx)

	log, err := openHistory(ctx)
	if err != nil {
		logger.Warn("conversion not recorded", slog.String("error", err.Error()))
		return
	}
	defer log.Close()

	if err := record(ctx, r, log); err != nil {
		logger.Warn("conversion not recorded", slog.String("error", err.Error()))
	}
}

func writeConversion(cmd *cobra.Command, format string, out conversionOutput) error {
	var data []byte

	switch format {
	case formatText:
		data = []byte(out.Display + "\n")
	default:
		var err error

		data, err = output.DefaultRegistry().Encode(format, out)
		if err != nil {
			return &ExitError{Code: exitError, Err: err}
		}
	}

	if err := output.NewStreamWriter(cmd.OutOrStdout()).Write(data); err != nil {
		return &ExitError{Code: exitWriteFailed, Err: err}
	}

	return nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid value %q: must be a number", s)}
	}

	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid value %q: must be a finite number", s)}
	}

	return v, nil
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return &ExitError{Code: exitUsage, Err: fmt.Errorf("invalid output format %q: must be one of text, json, yaml", format)}
	}
}
