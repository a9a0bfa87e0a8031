package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// exitUnsatisfied is the exit code of check when the server differs from the manifest
const exitUnsatisfied = 2

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the server already matches the manifest",
	Long: `Check reads the server and reports whether every entity of the manifest exists
with the declared definition. Nothing is changed.

Exit status is 0 when the server matches, 2 when it does not and 1 on error.

Examples:
  dbenforce check                    # Check manifest.yaml
  dbenforce check -f prod.toml       # Check another manifest
  dbenforce check --timeout 10s      # Set custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := settings()
		if err != nil {
			return err
		}
		m, err := loadManifest(cfg, log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()
		conn, err := connect(ctx, cfg, log, false)
		if err != nil {
			return err
		}
		defer conn.Close()

		ok, err := newSession(cfg, log, conn).Check(ctx, m)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		if !ok {
			color.Yellow("⚠️  Server does not match %s", cfg.Manifest)
			fmt.Println("   Run 'dbenforce plan' to see the pending statements")
			conn.Close()
			os.Exit(exitUnsatisfied)
		}
		color.Green("✅ Server matches %s", cfg.Manifest)
		return nil
	},
}

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 30*time.Second, "Timeout for the check")
}
