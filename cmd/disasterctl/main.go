// Command disasterctl is the operator tool for DisasterScope: it validates
// the reference datasets, inspects model artifacts, runs offline predictions
// and smoke-tests a live server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/disasterscope/internal/config"
	"github.com/okian/disasterscope/pkg/logger"
)

// errIssuesFound makes a command exit non-zero after it printed its findings.
var errIssuesFound = errors.New("issues found")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// settings is shared by every subcommand. It starts from the service config
// so that DISASTERSCOPE_* variables apply here too.
type settings struct {
	cfg      *config.Config
	modelDir string
	dataDir  string
	logLevel string
}

func newRootCommand() *cobra.Command {
	s := &settings{}

	root := &cobra.Command{
		Use:           "disasterctl",
		Short:         "DisasterScope operator tool",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&s.modelDir, "model-dir", "", "directory with model artifacts (overrides config)")
	root.PersistentFlags().StringVar(&s.dataDir, "data-dir", "", "directory with reference CSV files (overrides config)")
	root.PersistentFlags().StringVar(&s.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		validateCommand(s),
		modelsCommand(s),
		predictCommand(s),
		smokeCommand(s),
	)
	return root
}

func (s *settings) init(cmd *cobra.Command) error {
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(s.logLevel); err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if s.modelDir != "" {
		cfg.ModelDir = s.modelDir
	}
	if s.dataDir != "" {
		cfg.DataDir = s.dataDir
	}
	s.cfg = cfg
	return nil
}
