package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/dbenforce/history"
)

var (
	historyLimit    int
	historyDetailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show apply history",
	Long: `Show recorded apply runs with timestamps, execution times and user information.
History is kept only when a postgres or sqlite history backend is configured.

Examples:
  dbenforce history                    # Show all apply history
  dbenforce history --limit 10         # Show last 10 runs
  dbenforce history --detailed         # Show detailed information
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := settings()
		if err != nil {
			return err
		}
		if cfg.History.Type == "" || cfg.History.Type == "none" {
			return errors.New("no history backend configured (set [history] in the config file)")
		}
		rec, err := history.Open(cmd.Context(), history.Config{
			Type:    cfg.History.Type,
			DSN:     cfg.History.DSN,
			Brokers: cfg.History.Brokers,
			Topic:   cfg.History.Topic,
		})
		if err != nil {
			return fmt.Errorf("error opening history: %w", err)
		}
		defer rec.Close()

		records, err := rec.List(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("error getting apply history: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("📋 No apply history found")
			return nil
		}

		fmt.Println("📋 Apply History")
		fmt.Println(strings.Repeat("=", 60))
		if historyDetailed {
			showDetailedHistory(records)
		} else {
			showSummaryHistory(records)
		}
		return nil
	},
}

func statusMark(status string) string {
	switch status {
	case history.StatusSuccess:
		return color.New(color.FgGreen, color.Bold).Sprint("✅")
	case history.StatusFailed:
		return color.New(color.FgRed, color.Bold).Sprint("❌")
	}
	return color.New(color.FgYellow, color.Bold).Sprint("➖")
}

func showDetailedHistory(records []history.Record) {
	red := color.New(color.FgRed, color.Bold)
	blue := color.New(color.FgBlue, color.Bold)
	cyan := color.New(color.FgCyan)

	for i, r := range records {
		fmt.Printf("\n%d. %s ", i+1, statusMark(r.Status))
		blue.Printf("%s\n", r.Manifest)
		cyan.Printf("   📅 Applied: %s\n", r.AppliedAt.Format("2006-01-02 15:04:05"))
		if r.ExecutionTime > 0 {
			cyan.Printf("   ⏱️  Duration: %v\n", r.ExecutionTime)
		}
		if r.ExecutedBy != "" {
			cyan.Printf("   👤 User: %s\n", r.ExecutedBy)
		}
		cyan.Printf("   📊 Status: %s, %d statements\n", r.Status, r.Statements)
		if r.ErrorMessage != "" {
			red.Printf("   💥 Error: %s\n", r.ErrorMessage)
		}
		if len(r.Checksum) >= 8 {
			cyan.Printf("   🔍 Checksum: %s...\n", r.Checksum[:8])
		}
		if r.Summary != "" {
			for _, line := range strings.Split(r.Summary, "\n") {
				fmt.Printf("   %s\n", line)
			}
		}
	}
}

func showSummaryHistory(records []history.Record) {
	fmt.Printf("%-4s %-8s %-25s %-12s %-10s %s\n", "ID", "Status", "Manifest", "Duration", "User", "Date")
	fmt.Println(strings.Repeat("-", 80))

	var success, failed int
	var total time.Duration
	for i, r := range records {
		name := r.Manifest
		if len(name) > 23 {
			name = name[:20] + "..."
		}
		user := r.ExecutedBy
		if user == "" {
			user = "N/A"
		}
		fmt.Printf("%-4d %-8s %-25s %-12s %-10s %s\n",
			i+1, statusMark(r.Status), name, r.ExecutionTime.Round(time.Millisecond), user,
			r.AppliedAt.Format("2006-01-02 15:04"))

		switch r.Status {
		case history.StatusSuccess:
			success++
		case history.StatusFailed:
			failed++
		}
		total += r.ExecutionTime
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("📊 Summary: %d total, %d successful, %d failed\n", len(records), success, failed)
	if total > 0 {
		fmt.Printf("⏱️  Total execution time: %v\n", total.Round(time.Millisecond))
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Limit number of records to show (0 = all)")
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "Show detailed information")
}
