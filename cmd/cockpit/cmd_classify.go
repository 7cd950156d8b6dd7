package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solardome/strategy-cockpit/internal/scoring"
)

func newClassifyCmd(a *app) *cobra.Command {
	var risk bool
	var th scoring.Thresholds
	cmd := &cobra.Command{
		Use:   "classify [score...]",
		Short: "Print the band of one or more scores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !th.Valid() {
				return &exitError{code: 2, err: fmt.Errorf("thresholds must be strictly descending, got %+v", th)}
			}
			for _, raw := range args {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return &exitError{code: 2, err: fmt.Errorf("not a score: %q", raw)}
				}
				c := th.Classify(v)
				if risk {
					c = th.ClassifyRisk(v)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "score=%s band=%s label=%s color=%s inverted=%t\n", c.Display(), c.Band, c.Label, c.Color, c.Inverted)
			}
			a.log.Debug("classified", zap.Int("count", len(args)), zap.Bool("risk", risk))
			return nil
		},
	}
	def := scoring.DefaultThresholds()
	f := cmd.Flags()
	f.BoolVar(&risk, "risk", false, "Treat the scores as risk (higher is worse)")
	f.Float64Var(&th.Excellent, "excellent", def.Excellent, "Lower bound of the excellent band")
	f.Float64Var(&th.Good, "good", def.Good, "Lower bound of the good band")
	f.Float64Var(&th.Average, "average", def.Average, "Lower bound of the average band")
	f.Float64Var(&th.Weak, "weak", def.Weak, "Lower bound of the weak band")
	return cmd
}
