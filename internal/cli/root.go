// Package cli implements the unitconv command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/convertkit/unitconv/internal/config"
	"github.com/convertkit/unitconv/internal/logging"
)

// Process exit codes.
const (
	exitError            = 1
	exitUsage            = 2
	exitConversionFailed = 3
	exitWriteFailed      = 6
	exitDifferences      = 8
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs unitconv with the process arguments and returns the exit
// code.
func Execute() int {
	return run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	code, msg := exitCode(err)
	if msg != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", msg)
	}

	return code
}

// exitCode maps a command error to its exit code and the error to print.
// An ExitError without a cause prints nothing.
func exitCode(err error) (int, error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, exitErr.Err
	}

	return exitError, err
}

// NewRootCommand builds the unitconv command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "unitconv",
		Short: "Convert values between units of measurement and currencies",
		Long: `unitconv converts a value from one unit to another within a category:
length, weight, temperature, time, currency, area, volume, speed,
energy, pressure and data.

Physical units are resolved by dimensional analysis, so compound
expressions such as "kilometer/hour" or "square foot" work as well.
Temperatures use exact scale formulas and currencies use live or
file-based exchange rates quoted against USD.

Conversions can be recorded in a history log, charted, exported and
served over a JSON HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadSettings(cmd, cfgFile)
		},
	}

	addGlobalFlags(cmd.PersistentFlags(), &cfgFile)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	cmd.AddCommand(
		newVersionCommand(),
		newConvertCommand(),
		newCategoriesCommand(),
		newSessionCommand(),
		newHistoryCommand(),
		newRatesCommand(),
		newServeCommand(),
		newCompletionCommand(),
	)

	return cmd
}

func addGlobalFlags(pf *pflag.FlagSet, cfgFile *string) {
	def := config.Default()

	pf.StringVar(cfgFile, "config", "", "config file (default: .unitconv.yaml)")
	pf.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", def.LogFormat, "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("rates-url", def.RatesURL, "base URL of the currency rate service")
	pf.String("rates-file", "", "YAML rate snapshot used instead of the rate service")
	pf.Duration("rates-timeout", def.RatesTimeout, "timeout for one currency rate lookup")
	pf.Duration("rates-ttl", def.RatesTTL, "how long fetched rates are reused (0 disables caching)")
	pf.String("history-db", "", "SQLite database for the conversion history")
}

// loadSettings resolves the configuration, installs the logger and stores
// both in the command context.
func loadSettings(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	logger := logging.Setup(cfg)

	ctx := config.NewContext(cmd.Context(), cfg)
	ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
	cmd.SetContext(logging.NewContext(ctx, logger))

	logger.Debug("configuration loaded",
		slog.String("command", cmd.CommandPath()),
		slog.String("configFile", cfg.ConfigFile),
		slog.Bool("ratesFile", cfg.UsesRatesFile()),
		slog.Bool("persistentHistory", cfg.HistoryDB != ""),
	)

	return nil
}
