package database

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CLI executes statements with the mysql command-line client in batch mode.
// The first output line is the header; any stderr output is an engine error.
type CLI struct {
	Binary   string
	Host     string
	Port     int
	User     string
	Password string
}

func (c *CLI) args(statement string) []string {
	args := []string{"--batch"}
	if c.Host != "" {
		args = append(args, "-h", c.Host)
	}
	if c.Port != 0 {
		args = append(args, "-P", fmt.Sprint(c.Port))
	}
	if c.User != "" {
		args = append(args, "-u", c.User)
	}
	return append(args, "-e", statement)
}

func (c *CLI) Execute(ctx context.Context, statement string) ([]Row, error) {
	binary := c.Binary
	if binary == "" {
		binary = "mysql"
	}

	cmd := exec.CommandContext(ctx, binary, c.args(statement)...)
	// MYSQL_PWD keeps the password off the argument list and avoids the client's
	// insecure-password warning on stderr
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+c.Password)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return nil, fmt.Errorf("%s", msg)
	}
	if runErr != nil {
		return nil, fmt.Errorf("run %s: %w", binary, runErr)
	}
	return ParseBatchOutput(stdout.String()), nil
}

// ParseBatchOutput decodes tab-separated `mysql --batch` output
func ParseBatchOutput(out string) []Row {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil
	}
	header := strings.Split(lines[0], "\t")

	var rows []Row
	for _, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = unescapeBatch(fields[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// unescapeBatch reverses the client's escaping of \n, \t, \0 and backslash
func unescapeBatch(field string) string {
	if !strings.Contains(field, `\`) {
		return field
	}
	var b strings.Builder
	for i := 0; i < len(field); i++ {
		if field[i] != '\\' || i+1 == len(field) {
			b.WriteByte(field[i])
			continue
		}
		i++
		switch field[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(field[i])
		}
	}
	return b.String()
}
