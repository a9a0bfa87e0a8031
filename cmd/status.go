package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/dbenforce/diff"
	"github.com/ridoystarlord/dbenforce/introspect"
	"github.com/ridoystarlord/dbenforce/privilege"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show new and modified entities per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := settings()
		if err != nil {
			return err
		}
		m, err := loadManifest(cfg, log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()
		conn, err := connect(ctx, cfg, log, false)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := diff.Classify(ctx, introspect.NewInspector(conn.exec, cfg.PasswordColumn), m)
		if err != nil {
			return fmt.Errorf("status error: %w", err)
		}
		showStatus(c)
		return nil
	},
}

func showStatus(c *diff.Classification) {
	var newGrants, modifiedGrants int
	for _, scope := range privilege.ScopeOrder {
		newGrants += len(c.NewGrants[scope])
		modifiedGrants += len(c.ModifiedGrants[scope])
	}

	rows := []struct {
		name          string
		news, changed int
	}{
		{"Databases", len(c.NewDatabases), len(c.ModifiedDatabases)},
		{"Tables", len(c.NewTables), len(c.ModifiedTables)},
		{"Columns", len(c.NewColumns), len(c.ModifiedColumns)},
		{"Indexes", len(c.NewIndexes), len(c.ModifiedIndexes)},
		{"Grants", newGrants, modifiedGrants},
	}

	fmt.Printf("%-12s %-6s %s\n", "Category", "New", "Modified")
	for _, r := range rows {
		fmt.Printf("%-12s %-6d %d\n", r.name, r.news, r.changed)
	}
	if c.Satisfied() {
		color.Green("\n✅ Server matches the manifest")
	} else {
		color.Yellow("\n🕒 %d entities pending", c.Pending())
	}
}

func init() {
	statusCmd.Flags().DurationVarP(&statusTimeout, "timeout", "t", 30*time.Second, "Timeout for reading the server")
}
