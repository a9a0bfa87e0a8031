package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/dbenforce/runner"
)

var planTimeout time.Duration

var planCmd = &cobra.Command{
	Use:     "plan",
	Aliases: []string{"diff"},
	Short:   "Show the statements apply would execute",
	Long: `Plan classifies the manifest against the server and prints, in execution order,
the statements that would converge it. Nothing is executed.

Examples:
  dbenforce plan                     # Plan manifest.yaml
  dbenforce plan -f prod.toml        # Plan another manifest
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

		ctx, cancel := context.WithTimeout(cmd.Context(), planTimeout)
		defer cancel()
		conn, err := connect(ctx, cfg, log, false)
		if err != nil {
			return err
		}
		defer conn.Close()

		plan, err := newSession(cfg, log, conn).Preview(ctx, m)
		if err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}
		showPlan(plan)
		return nil
	},
}

func showPlan(plan *runner.Plan) {
	if plan.Empty() {
		color.Green("✅ %s", runner.NothingToDo)
		return
	}

	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Println("📋 Planned changes")
	fmt.Println(strings.Repeat("=", 50))
	for _, step := range plan.Steps {
		for _, c := range step.Changes {
			if c.Action == runner.Created {
				green.Printf("  ➕ %s %s\n", c.Category, c.Target)
			} else {
				yellow.Printf("  🔄 %s %s\n", c.Category, c.Target)
			}
		}
		for _, stmt := range step.Statements {
			cyan.Printf("     %s;\n", stmt)
		}
	}
	fmt.Printf("\n📊 %d statements\n", len(plan.Statements()))
}

func init() {
	planCmd.Flags().DurationVarP(&planTimeout, "timeout", "t", 30*time.Second, "Timeout for reading the server")
}
