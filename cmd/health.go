package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server connectivity",
	Long: `Check if the server is accessible with the configured transport.

Examples:
  dbenforce health                    # Check the configured server
  dbenforce health --timeout 10s      # Set custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkServerHealth(cmd.Context()); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		color.Green("✅ Server is healthy and accessible")
		return nil
	},
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

func checkServerHealth(parent context.Context) error {
	cfg, log, err := settings()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(parent, healthTimeout)
	defer cancel()

	conn, err := connect(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := conn.exec.Execute(ctx, "SELECT VERSION() AS version, CURRENT_USER() AS account")
	if err != nil {
		return err
	}
	if len(rows) == 1 {
		fmt.Printf("📊 MySQL %s as %s\n", rows[0]["version"], rows[0]["account"])
	}
	return nil
}
