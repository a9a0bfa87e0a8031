package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var useTOML bool

const sampleManifestYAML = `# Every entity names its database (and table) explicitly.
databases:
  - name: shop
    character_set: utf8mb4
    collation: utf8mb4_general_ci

tables:
  - database: shop
    name: orders
    engine: InnoDB

columns:
  - database: shop
    table: orders
    name: id
    type: INT(10) UNSIGNED
    nullable: NO
    index: primary
    extra: AUTO_INCREMENT
  - database: shop
    table: orders
    name: customer
    type: VARCHAR(128)
    nullable: NO
    index: index
  - database: shop
    table: orders
    name: status
    type: VARCHAR(16)
    nullable: NO
    default_value: new
  - database: shop
    table: orders
    name: created_at
    type: TIMESTAMP
    nullable: NO
    default_value: CURRENT_TIMESTAMP

indexes:
  - database: shop
    table: orders
    name: status_created
    columns: status, created_at

users:
  - name: shop_app
    hosts: [localhost, "10.0.%"]
    password: change-me
    privileges:
      - scope: database
        database: shop
        type: SELECT, INSERT, UPDATE
      - scope: column
        database: shop
        table: orders
        column: status
        type: [UPDATE]
`

const sampleManifestTOML = `# Every entity names its database (and table) explicitly.
[[databases]]
name = "shop"
character_set = "utf8mb4"
collation = "utf8mb4_general_ci"

[[tables]]
database = "shop"
name = "orders"
engine = "InnoDB"

[[columns]]
database = "shop"
table = "orders"
name = "id"
type = "INT(10) UNSIGNED"
null = "NO"
index = "primary"
extra = "AUTO_INCREMENT"

[[columns]]
database = "shop"
table = "orders"
name = "customer"
type = "VARCHAR(128)"
null = "NO"
index = "index"

[[columns]]
database = "shop"
table = "orders"
name = "status"
type = "VARCHAR(16)"
null = "NO"
default_value = "new"

[[columns]]
database = "shop"
table = "orders"
name = "created_at"
type = "TIMESTAMP"
null = "NO"
default_value = "CURRENT_TIMESTAMP"

[[indexes]]
database = "shop"
table = "orders"
name = "status_created"
columns = "status, created_at"

[[users]]
name = "shop_app"
hosts = ["localhost", "10.0.%"]
password = "change-me"

[[users.privileges]]
scope = "database"
database = "shop"
type = "SELECT, INSERT, UPDATE"

[[users.privileges]]
scope = "column"
database = "shop"
table = "orders"
column = "status"
type = ["UPDATE"]
`

const sampleConfig = `# dbenforce configuration; DBENFORCE_* environment variables override these keys.
transport = "sql"
dsn = "root:secret@tcp(127.0.0.1:3306)/"
password_column = "Password"
statements_per_second = 0

[cli]
binary = "mysql"
host = "127.0.0.1"
port = 3306
user = "root"

[log]
level = "info"

[history]
type = "sqlite"
dsn = "dbenforce-history.db"
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample manifest and config file",
	Long: `Initialize a new project with a sample manifest and a dbenforce.toml config.

Examples:
  dbenforce init                  # Write manifest.yaml and dbenforce.toml
  dbenforce init --toml           # Write manifest.toml instead
  dbenforce init -f shop.yaml     # Choose the manifest file name`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, content := "manifest.yaml", sampleManifestYAML
		if useTOML {
			manifest, content = "manifest.toml", sampleManifestTOML
		}
		if manifestFile != "" {
			manifest = manifestFile
		}

		files := []struct{ path, content string }{
			{manifest, content},
			{"dbenforce.toml", sampleConfig},
		}
		for _, f := range files {
			created, err := writeNew(f.path, f.content)
			if err != nil {
				return err
			}
			if created {
				color.Green("✅ Created %s", f.path)
			} else {
				color.Yellow("⚠️  %s already exists, left unchanged", f.path)
			}
		}
		fmt.Println("📝 Edit the manifest to describe your server")
		fmt.Println("🚀 Run 'dbenforce plan' to preview, then 'dbenforce apply'")
		return nil
	},
}

// writeNew writes content to path unless the file exists
func writeNew(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return true, nil
}

func init() {
	initCmd.Flags().BoolVar(&useTOML, "toml", false, "Write the sample manifest as TOML")
}
