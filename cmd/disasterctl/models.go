package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/disasterscope/internal/domain/classifier"
	"github.com/okian/disasterscope/internal/domain/risk"
)

// probeSchemas are the input layouts the bundled models have been trained on.
var probeSchemas = [][]string{
	{"lat", "lon"},
	{"latitude", "longitude"},
	{"latitude", "longitude", "magnitude", "depth"},
}

func modelsCommand(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Load each model artifact and report its schema and capability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			files := modelFiles(s)
			failed := 0

			for _, h := range risk.Hazards {
				m, err := classifier.Load(files[h])
				if err != nil {
					fmt.Fprintf(out, "%s: cannot load %s: %v\n", h, files[h], err)
					failed++
					continue
				}

				names := m.FeatureNames()
				declared := "none"
				if len(names) > 0 {
					declared = strings.Join(names, ",")
				}
				fmt.Fprintf(out, "%s: %s\n", h, files[h])
				fmt.Fprintf(out, "  kind:       %s\n", m.Kind())
				fmt.Fprintf(out, "  capability: %s\n", m.Capability())
				fmt.Fprintf(out, "  features:   %s (%d)\n", declared, m.NFeatures())
				for _, schema := range probeSchemas {
					verdict := "accepts"
					if err := classifier.Probe(m, schema); err != nil {
						verdict = "rejects: " + err.Error()
					}
					fmt.Fprintf(out, "  probe %-40s %s\n", strings.Join(schema, ","), verdict)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d model(s) failed to load: %w", failed, errIssuesFound)
			}
			return nil
		},
	}
}
