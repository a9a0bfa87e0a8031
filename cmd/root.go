package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	manifestFile string
	dsnFlag      string
	transport    string
	logLevel     string
	noColor      bool
	envFiles     []string
)

var rootCmd = &cobra.Command{
	Use:   "dbenforce",
	Short: "Converge a MySQL server to a declarative manifest",
	Long: `dbenforce reads a manifest of databases, tables, columns, indexes and user
privileges and makes the server match it. Entities the manifest does not name are
left alone.

Examples:

  dbenforce init
  dbenforce validate -f manifest.yaml
  dbenforce check -f manifest.yaml
  dbenforce plan -f manifest.yaml
  dbenforce apply -f manifest.yaml
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "TOML config file")
	flags.StringVarP(&manifestFile, "manifest", "f", "", "Manifest file (.yaml, .yml or .toml)")
	flags.StringVar(&dsnFlag, "dsn", "", "MySQL DSN, e.g. root:pw@tcp(127.0.0.1:3306)/")
	flags.StringVar(&transport, "transport", "", "Transport to the server (sql, cli)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.StringSliceVar(&envFiles, "env-file", []string{".env"}, "Environment files to load")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
}
