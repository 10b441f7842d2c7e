package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"skywise/internal/advisory"
	"skywise/internal/app"
	"skywise/internal/types"
)

// reportFacts are printed in this order, each with its unit.
var reportFacts = []struct {
	label, name, unit string
}{
	{"Temperature", types.FactTemp, "°C"},
	{"Feels Like", types.FactFeelsLike, "°C"},
	{"Humidity", types.FactHumidity, "%"},
	{"Wind Speed", types.FactWindSpeed, " m/s"},
	{"Cloudiness", types.FactClouds, "%"},
	{"Pressure", types.FactPressure, " hPa"},
	{"Visibility", types.FactVisibility, " m"},
	{"Condition", types.FactMainCondition, ""},
}

func newForecastCmd() *cobra.Command {
	var noNarrative bool

	cmd := &cobra.Command{
		Use:   "forecast <city>",
		Short: "Fetch current conditions for a city and print its advisory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := app.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())
			comps, err := app.Build(ctx, cfg, logger, app.Options{DisableNarrative: noNarrative})
			if err != nil {
				return err
			}

			adv, err := comps.Advisory.GetAdvisory(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("error fetching weather data: %w", err)
			}

			printReport(cmd.OutOrStdout(), adv)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noNarrative, "no-narrative", false, "Skip the generated prose forecast")
	return cmd
}

func printReport(out io.Writer, adv *advisory.Advisory) {
	title := adv.City
	if adv.Country != "" {
		title += ", " + adv.Country
	}
	fmt.Fprintf(out, "Weather for %s\n\n", title)

	fmt.Fprintln(out, "Raw Weather Data")
	for _, f := range reportFacts {
		v := advisory.FormatFact(adv.Facts, f.name)
		if v != "N/A" {
			v += f.unit
		}
		fmt.Fprintf(out, "  %-12s %s\n", f.label+":", v)
	}

	fmt.Fprintln(out, "\nExpert System Analysis")
	if len(adv.Conclusions) == 0 {
		fmt.Fprintln(out, "  No specific conditions triggered the expert rules.")
	}
	for _, c := range adv.Conclusions {
		fmt.Fprintf(out, "  %s %s\n", c.Pictorial, c.Label)
	}

	switch {
	case adv.Narrative != "":
		fmt.Fprintf(out, "\nWeather Forecast\n%s\n", adv.Narrative)
	case adv.NarrativeError != "":
		fmt.Fprintf(out, "\nWeather Forecast\n%s\n", adv.NarrativeError)
	}
}
