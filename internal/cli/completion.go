package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/render"
)

// flagValues lists the accepted values of the enumerated layout and render
// flags, offered by shell completion.
var flagValues = map[string]map[string][]string{
	"layout": {
		"rankdir":   {string(graph.RankDirTB), string(graph.RankDirBT), string(graph.RankDirLR), string(graph.RankDirRL)},
		"align":     {string(graph.AlignUL), string(graph.AlignUR), string(graph.AlignDL), string(graph.AlignDR)},
		"acyclicer": {"dfs", string(graph.AcyclicerGreedy)},
		"ranker":    {string(graph.RankerNetworkSimplex), string(graph.RankerTightTree), string(graph.RankerLongestPath)},
	},
	"render": {
		"format": render.Formats,
		"engine": {render.EngineGraphviz, render.EngineNative},
	},
}

// registerCompletions teaches the layout and render commands to complete
// their enumerated flags and to offer only JSON documents as arguments.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		flags, ok := flagValues[cmd.Name()]
		if !ok {
			continue
		}
		for name, values := range flags {
			_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		}
		cmd.ValidArgsFunction = func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return []cobra.Completion{"json"}, cobra.ShellCompDirectiveFilterFileExt
		}
	}
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for strata.

Besides subcommands and flags, the scripts complete graph options such as
'strata layout --rankdir <TAB>' (tb, bt, lr, rl), --align, --ranker and
--acyclicer, the --format and --engine of 'strata render', and offer only
.json files as graph and layout documents.

Bash:
  $ source <(strata completion bash)

  # To load completions for each session, execute once:
  $ strata completion bash > /etc/bash_completion.d/strata

Zsh:
  # Completion must be enabled once with "autoload -U compinit; compinit".
  $ strata completion zsh > "${fpath[1]}/_strata"

Fish:
  $ strata completion fish > ~/.config/fish/completions/strata.fish

PowerShell:
  PS> strata completion powershell | Out-String | Invoke-Expression

Then, for example:
  $ strata layout graph.json --rankdir lr
  $ strata render graph.layout.json --format svg,png
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}
