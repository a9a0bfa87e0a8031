package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/dbenforce/loader"
	"github.com/ridoystarlord/dbenforce/validator"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a manifest without connecting to the server",
	Long: `Validate reads the manifest and normalizes it the way check and apply do.

This command reports:
- Missing names and qualifiers
- Unknown index types and privilege scopes
- Privileges that are not valid at their scope
- Defaults substituted for invalid values (warnings)

Examples:
  dbenforce validate                        # Validate manifest.yaml
  dbenforce validate -f custom.toml         # Validate another manifest
  dbenforce validate --format json          # Output validation results as JSON
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := settings()
		if err != nil {
			return err
		}
		raw, err := loader.Load(cfg.Manifest)
		if err != nil {
			return fmt.Errorf("failed to load manifest: %w", err)
		}
		result, m := validator.Validate(raw)

		if validateFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				return err
			}
		} else {
			outputText(result)
			if m != nil {
				fmt.Printf("  • Entities: %d databases, %d tables, %d columns, %d indexes, %d grants\n",
					len(m.Databases), len(m.Tables), len(m.Columns), len(m.Indexes), len(m.Grants))
			}
		}
		if !result.Valid {
			return fmt.Errorf("manifest %s is invalid", cfg.Manifest)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format (text, json)")
}

func outputText(result *validator.ValidationResult) {
	if result.Valid {
		color.Green("✅ Manifest validation passed!")
	} else {
		color.Red("❌ Manifest validation failed!")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n🔴 Errors (%d):\n", len(result.Errors))
		for i, err := range result.Errors {
			fmt.Printf("  %d. %s\n", i+1, err.Error())
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\n🟡 Warnings (%d):\n", len(result.Warnings))
		for i, warning := range result.Warnings {
			fmt.Printf("  %d. %s\n", i+1, warning.Error())
		}
	}

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
}
