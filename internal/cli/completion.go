package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/convertkit/unitconv/internal/converter"
)

func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for bash, zsh, fish or powershell.

Completions cover subcommands, flags, category names and, for convert,
the units of the category table.

  source <(unitconv completion bash)
  unitconv completion zsh > "${fpath[1]}/_unitconv"
  unitconv completion fish > ~/.config/fish/completions/unitconv.fish
  unitconv completion powershell | Out-String | Invoke-Expression`,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}

// completeCategories completes a category name.
func completeCategories(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string

	for _, c := range converter.Categories() {
		if hasPrefixFold(string(c), toComplete) {
			names = append(names, string(c))
		}
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeConvertArgs completes <from> with every table unit (or those of
// --category) and <to> with the units of the category <from> belongs to.
func completeConvertArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 || len(args) > 2 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var categories []converter.Category

	flag, _ := cmd.Flags().GetString("category")

	switch c, ok := converter.ParseCategory(flag); {
	case ok:
		categories = []converter.Category{c}
	case len(args) == 2:
		if c, ok := converter.InferCategory(args[1], args[1]); ok {
			categories = []converter.Category{c}
		}
	}

	if categories == nil {
		categories = converter.Categories()
	}

	var units []string

	for _, c := range categories {
		list, _ := converter.Units(c)
		for _, u := range list {
			if hasPrefixFold(u, toComplete) {
				units = append(units, u)
			}
		}
	}

	return units, cobra.ShellCompDirectiveNoFileComp
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
