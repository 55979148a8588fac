package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/disasterscope/internal/app"
	"github.com/okian/disasterscope/internal/domain/reference"
	"github.com/okian/disasterscope/internal/domain/risk"
)

func validateCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the earthquake, flood and wildfire CSV files row by row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			files := dataFiles(s)
			total := 0

			for _, h := range risk.Hazards {
				name := service.Dataset(h)
				t, err := reference.Load(name, files[h])
				if err != nil {
					fmt.Fprintf(out, "%s: cannot read %s: %v\n", name, files[h], err)
					total++
					continue
				}

				issues := reference.Validate(t)
				if len(issues) == 0 {
					fmt.Fprintf(out, "%s: ok (%d rows)\n", name, t.Len())
					continue
				}
				fmt.Fprintf(out, "%s: %d issue(s)\n", name, len(issues))
				for _, i := range issues {
					fmt.Fprintf(out, "  %s\n", i)
				}
				total += len(issues)
			}

			if total > 0 {
				return fmt.Errorf("%d dataset problem(s): %w", total, errIssuesFound)
			}
			return nil
		},
	}
}

func dataFiles(s *settings) map[risk.Hazard]string {
	return map[risk.Hazard]string{
		risk.Earthquake: s.cfg.DataPath(s.cfg.EarthquakeData),
		risk.Flood:      s.cfg.DataPath(s.cfg.FloodData),
		risk.Wildfire:   s.cfg.DataPath(s.cfg.WildfireData),
	}
}

func modelFiles(s *settings) map[risk.Hazard]string {
	return map[risk.Hazard]string{
		risk.Earthquake: s.cfg.ModelPath(s.cfg.EarthquakeModel),
		risk.Flood:      s.cfg.ModelPath(s.cfg.FloodModel),
		risk.Wildfire:   s.cfg.ModelPath(s.cfg.WildfireModel),
	}
}
