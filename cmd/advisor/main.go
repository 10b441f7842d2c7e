// Command advisor evaluates the weather rule table from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "advisor",
		Short: "Rule-based weather advisories",
		Long:  "advisor lists the weather rule table, evaluates ad-hoc fact sets\nagainst it and prints live advisories for a city.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      version,
	}

	root.AddCommand(newRulesCmd())
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newForecastCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
