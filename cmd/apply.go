package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/dbenforce/database"
	"github.com/ridoystarlord/dbenforce/runner"
)

var dryRunApply bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Converge the server to the manifest",
	Long: `Apply creates and corrects every entity of the manifest that is missing or differs
on the server. It stops at the first statement the server rejects; statements
executed before it stay applied.

Examples:
  dbenforce apply                    # Apply manifest.yaml
  dbenforce apply --dry-run          # Print the statements without executing them
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

		ctx := cmd.Context()
		conn, err := connect(ctx, cfg, log, !dryRunApply)
		if err != nil {
			return err
		}
		defer conn.Close()
		session := newSession(cfg, log, conn)

		if dryRunApply {
			plan, err := session.Preview(ctx, m)
			if err != nil {
				return fmt.Errorf("dry run failed: %w", err)
			}
			showPlan(plan)
			return nil
		}

		report, err := session.Apply(ctx, m)
		if report != nil && !report.Empty() {
			fmt.Println(report.String())
		}
		if err != nil {
			var execErr *runner.ExecError
			if errors.As(err, &execErr) {
				color.Red("❌ Server rejected: %s", database.Redact(execErr.Statement))
				return fmt.Errorf("apply stopped after %d statements: %w", len(report.Statements), execErr.Err)
			}
			return fmt.Errorf("apply failed: %w", err)
		}
		if report.Empty() {
			color.Green("✅ %s", runner.NothingToDo)
			return nil
		}
		color.Green("✅ Applied %d statements", len(report.Statements))
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&dryRunApply, "dry-run", false, "Preview the SQL that would be executed without applying it")
}
