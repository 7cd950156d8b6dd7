package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solardome/strategy-cockpit/internal/cockpit"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		cfg    cockpit.Config
		noHTML bool
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render report.json and report.html from a strategy file",
		Long: `Reads a strategy YAML (and optional policy YAML), scores every pillar,
lays out the charts and writes report.json, report.html, a checksum manifest
and a JSONL run log. Identical inputs always give identical reports.

Example:
  cockpit render --strategy strategies/acme.yaml --view client`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("view") {
				cfg.View = a.cfg.DefaultView
			}
			if cfg.PolicyPath == "" {
				cfg.PolicyPath = a.cfg.PolicyPath
			}
			cfg.WriteHTML = !noHTML
			cfg.Logger = a.log
			report, err := cockpit.Run(cfg)
			if err != nil {
				return err
			}

			checksums := cfg.ChecksumsPath
			if strings.TrimSpace(checksums) == "" {
				checksums = cockpit.DefaultChecksumsPath(cfg.OutJSONPath)
			}
			runLog := cfg.RunLogPath
			if strings.TrimSpace(runLog) == "" {
				runLog = cockpit.DefaultRunLogPath(cfg.OutJSONPath)
			}
			overall, band := "-", "none"
			if report.Overall != nil {
				overall, band = report.Overall.Display(), string(report.Overall.Band)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s view=%s overall=%s band=%s validation_errors=%d report=%s checksums=%s run_log=%s\n",
				report.RunID, report.View, overall, band, len(report.ValidationErrors), cfg.OutJSONPath, checksums, runLog)

			if strict && len(report.ValidationErrors) > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d validation error(s): %s", len(report.ValidationErrors), strings.Join(report.ValidationErrors, "; "))}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.StrategyPath, "strategy", "", "Path to strategy YAML (required)")
	f.StringVar(&cfg.PolicyPath, "policy", "", "Path to policy YAML (default from POLICY_PATH)")
	f.StringVar(&cfg.View, "view", "client", "Audience: client or internal (default from DEFAULT_VIEW)")
	f.StringVar(&cfg.OutJSONPath, "out-json", "report.json", "Output report.json path")
	f.StringVar(&cfg.OutHTMLPath, "out-html", "report.html", "Output report.html path")
	f.StringVar(&cfg.ChecksumsPath, "checksums", "", "Output checksums.sha256 path (default next to out-json)")
	f.StringVar(&cfg.RunLogPath, "run-log", "", "Output run log path (default next to out-json)")
	f.BoolVar(&noHTML, "no-html", false, "Disable report.html output")
	f.BoolVar(&strict, "strict", false, "Exit 1 when the inputs have validation errors")
	_ = cmd.MarkFlagRequired("strategy")
	return cmd
}
