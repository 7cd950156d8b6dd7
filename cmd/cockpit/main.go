package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solardome/strategy-cockpit/internal/config"
	"github.com/solardome/strategy-cockpit/internal/logging"
)

// app carries what every subcommand shares once the root pre-run is done.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	out      io.Writer
	logLevel string
	envFile  string
}

// exitError lets a subcommand pick the process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "cockpit",
		Short: "Marketing strategy cockpit: scores, charts and client briefings",
		Long: `cockpit renders a brand's strategy document into a scored dashboard.

Pillar scores are banded (excellent, good, average, weak, critical), the risk
pillar is read inverted, and breakdowns are drawn as donut and radar charts.
Use "render" for files on disk and "serve" for the HTTP cockpit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var envFiles []string
			if a.envFile != "" {
				envFiles = append(envFiles, a.envFile)
			}
			if err := config.LoadDotEnv(envFiles...); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			cfg, cfgErr := config.Load()
			a.cfg = cfg
			level := a.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			log, err := logging.New(cfg.Env, level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.log = log
			if cfgErr != nil {
				a.log.Warn("configuration issue, using defaults", zap.Error(cfgErr))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Load environment from this file instead of ./.env")

	root.AddCommand(
		newRenderCmd(a),
		newServeCmd(a),
		newClassifyCmd(a),
		newVerifyCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cockpit error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(2)
	}
}
