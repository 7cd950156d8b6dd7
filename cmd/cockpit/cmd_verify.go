package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solardome/strategy-cockpit/internal/cockpit"
	"github.com/solardome/strategy-cockpit/internal/report"
)

func newVerifyCmd(a *app) *cobra.Command {
	var checksums, outJSON string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check rendered artifacts against their checksum manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if checksums == "" {
				checksums = cockpit.DefaultChecksumsPath(outJSON)
			}
			bad, err := report.VerifyChecksums(checksums)
			if err != nil {
				return err
			}
			if len(bad) > 0 {
				return &exitError{code: 1, err: fmt.Errorf("checksum mismatch: %s", strings.Join(bad, ", "))}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok manifest=%s\n", checksums)
			return nil
		},
	}
	cmd.Flags().StringVar(&checksums, "checksums", "", "Checksum manifest (default next to --out-json)")
	cmd.Flags().StringVar(&outJSON, "out-json", "report.json", "report.json the manifest sits next to")
	return cmd
}
