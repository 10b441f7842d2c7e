package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"skywise/internal/advisory"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the rule table in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := advisory.NewService(nil, nil, nil, nil, nil, advisory.Options{})

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tRULE\tIF\tTHEN")
			for _, r := range svc.Rules() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\n", r.Index, r.Name, r.Conditions, r.Pictorial, r.Label)
			}
			return tw.Flush()
		},
	}
}
