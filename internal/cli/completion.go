package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pipeline"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// patternExts are the file extensions offered for pattern arguments.
var patternExts = []string{"pattern", "txt", "crochet"}

// completionCommand prints shell completion scripts. Besides subcommands and
// flags, the scripts complete pattern files, initializers, leniency modes and
// output formats.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <bash|zsh|fish|powershell>",
		Short: "Print a shell completion script",
		Long: `Print a completion script for plushie to stdout.

Pattern arguments complete to .pattern, .txt and .crochet files, and flags
such as --initializer, --leniency and --format complete to their accepted
values.`,
		Example: `  source <(plushie completion bash)
  plushie completion zsh > "${fpath[1]}/_plushie"
  plushie completion fish > ~/.config/fish/completions/plushie.fish
  plushie completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}

// registerCompletions wires value completion for plushie's flags and pattern
// arguments. Commands without a given flag are skipped.
func registerCompletions(root *cobra.Command) {
	_ = root.RegisterFlagCompletionFunc("initializer",
		cobra.FixedCompletions([]string{string(plushie.Cylinder), string(plushie.OneByOne)}, cobra.ShellCompDirectiveNoFileComp))

	leniencies := lo.Map([]hook.Leniency{hook.NoMercy, hook.SkipIncorrect, hook.GeneticFixups},
		func(l hook.Leniency, _ int) string { return l.String() })

	for _, cmd := range root.Commands() {
		if cmd.Flags().Lookup("leniency") != nil {
			_ = cmd.RegisterFlagCompletionFunc("leniency", cobra.FixedCompletions(leniencies, cobra.ShellCompDirectiveNoFileComp))
		}
		switch cmd.Name() {
		case "compile":
			_ = cmd.RegisterFlagCompletionFunc("format", completeFormats(pipeline.GraphFormats))
			cmd.ValidArgsFunction = completePatternFile
		case "relax":
			cmd.ValidArgsFunction = completePatternFile
		}
	}
}

// completeFormats completes the last entry of a comma-separated format list.
func completeFormats(valid map[string]bool) cobra.CompletionFunc {
	names := lo.Keys(valid)
	slices.Sort(names)
	return func(_ *cobra.Command, _ []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		prefix := ""
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			prefix = toComplete[:i+1]
		}
		taken := strings.Split(prefix, ",")
		out := make([]cobra.Completion, 0, len(names))
		for _, name := range names {
			if !slices.Contains(taken, name) {
				out = append(out, prefix+name)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
}

// completePatternFile offers pattern files for the single pattern argument.
func completePatternFile(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return patternExts, cobra.ShellCompDirectiveFilterFileExt
}
