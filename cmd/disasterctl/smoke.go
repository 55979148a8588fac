package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/disasterscope/internal/smoke"
)

const (
	defaultSmokeRequests = 200
	defaultSmokeTimeout  = 10 * time.Second
	workersPerCPU        = 2
)

func smokeCommand(_ *settings) *cobra.Command {
	cfg := &smoke.Config{}

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Send concurrent random predictions to a live server and verify the answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := smoke.Run(cmd.Context(), cfg)
			if stats == nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "requests:  %d (%d ok, %d failed) in %s\n",
				stats.Requests, stats.Succeeded, stats.Failed, stats.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "rejected:  %d invalid inputs with 400\n", stats.Invalid)
			for _, v := range stats.Violations {
				fmt.Fprintf(out, "  %s\n", v)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:5000", "base URL of the service")
	cmd.Flags().IntVar(&cfg.Requests, "requests", defaultSmokeRequests, "number of random predictions")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*workersPerCPU, "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultSmokeTimeout, "per-request timeout")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "coordinate generator seed (0 picks one)")
	return cmd
}
