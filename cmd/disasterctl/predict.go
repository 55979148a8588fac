package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	service "github.com/okian/disasterscope/internal/app"
	"github.com/okian/disasterscope/pkg/logger"
)

func predictCommand(s *settings) *cobra.Command {
	var (
		lat, lng float64
		output   string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction offline against the configured models and datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unknown output format %q", output)
			}

			ctx := cmd.Context()
			snap, err := service.Load(ctx, s.cfg, logger.Get().Named("disasterctl"))
			if err != nil {
				return err
			}
			svc := service.New(snap,
				service.WithRadius(s.cfg.NearbyRadiusKm),
				service.WithAlertThreshold(s.cfg.AlertThreshold),
			)

			res, err := svc.Predict(ctx, lat, lng)
			if err != nil {
				return err
			}
			data, err := render(res, output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in degrees")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

// render prints the assessment with the same field names the HTTP API uses.
// YAML goes through a node tree so key order and JSON names survive; the
// JSON flow and quoting styles are reset to block style.
func render(res service.Assessment, format string) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return append(data, '\n'), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	plain(&node)
	return yaml.Marshal(&node)
}

func plain(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plain(c)
	}
}
