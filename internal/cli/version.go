package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		format     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, git commit, build date, Go version, platform and the
rate snapshot schema this build reads and writes.`,
		Args: cobra.NoArgs,
		// No configuration is needed, so a broken config file cannot hide
		// the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				format = formatJSON
			}

			if err := validateFormat(format); err != nil {
				return err
			}

			info := version.GetInfo()

			if format != formatText {
				return writeStructured(cmd, format, info)
			}

			line := info.String()
			if !info.IsRelease() {
				line += " [development build]"
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), line)

			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "output", "o", formatText, "output format: text, json, yaml")
	f.BoolVar(&jsonOutput, "json", false, "shorthand for --output json")

	return cmd
}
