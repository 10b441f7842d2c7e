package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"skywise/internal/advisory"
	"skywise/internal/types"
)

type evaluateFlags struct {
	file    string
	facts   []string
	explain bool
}

func newEvaluateCmd() *cobra.Command {
	var flags evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a fact set against the rule table",
		Long: "Evaluate loads facts from a YAML mapping (--file) and/or name=value\n" +
			"pairs (--fact). Flag values override file values. Numeric flag values\n" +
			"are read as numbers, anything else as a string.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			facts, err := loadFacts(flags.file, flags.facts)
			if err != nil {
				return err
			}

			svc := advisory.NewService(nil, nil, nil, nil, nil, advisory.Options{})
			out := cmd.OutOrStdout()

			if flags.explain {
				matches := svc.Explain(facts)
				if len(matches) == 0 {
					fmt.Fprintln(out, "No rules fired.")
				}
				for _, m := range matches {
					fmt.Fprintf(out, "%2d %-16s %s %s\n", m.Index, m.Rule, advisory.Pictorial(m.Conclusion), m.Conclusion)
				}
				return nil
			}

			conclusions := svc.Evaluate(facts)
			if len(conclusions) == 0 {
				fmt.Fprintln(out, "No specific conditions triggered the expert rules.")
			}
			for _, c := range conclusions {
				fmt.Fprintf(out, "%s %s\n", c.Pictorial, c.Label)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "YAML file holding a mapping of fact names to values")
	f.StringArrayVar(&flags.facts, "fact", nil, "Fact as name=value (repeatable)")
	f.BoolVar(&flags.explain, "explain", false, "Show the rule that produced each conclusion")
	return cmd
}

// loadFacts merges the YAML file (if any) with name=value pairs.
func loadFacts(path string, pairs []string) (types.FactSet, error) {
	facts := make(types.FactSet)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read facts: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse facts %s: %w", path, err)
		}
		for name, v := range raw {
			facts[name] = v
		}
	}

	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --fact %q: want name=value", p)
		}
		facts[name] = parseFactValue(strings.TrimSpace(value))
	}

	if len(facts) == 0 {
		return nil, fmt.Errorf("no facts given: use --file or --fact")
	}
	return facts, nil
}

func parseFactValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
