package generator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/dbenforce/schema"
)

func quoteTable(database, table string) string {
	return schema.QuoteIdent(database) + "." + schema.QuoteIdent(table)
}

func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = schema.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// attributes renders the CHARACTER SET / COLLATE (and ENGINE) options that are set
func attributes(engine, charset, collation string) []string {
	var out []string
	if engine != "" {
		out = append(out, "ENGINE = "+engine)
	}
	if charset != "" {
		out = append(out, "CHARACTER SET = "+charset)
	}
	if collation != "" {
		out = append(out, "COLLATE = "+collation)
	}
	return out
}

func CreateDatabase(db schema.Database) string {
	stmt := "CREATE DATABASE " + schema.QuoteIdent(db.Name)
	for _, attr := range attributes("", db.CharacterSet, db.Collation) {
		stmt += " " + attr
	}
	return stmt
}

func AlterDatabase(db schema.Database) string {
	stmt := "ALTER DATABASE " + schema.QuoteIdent(db.Name)
	for _, attr := range attributes("", db.CharacterSet, db.Collation) {
		stmt += " " + attr
	}
	return stmt
}

// ColumnDefinition renders `name` TYPE [NULL|NOT NULL] [DEFAULT ...] [AUTO_INCREMENT].
// The type is the declared one, or the captured live type when none was declared.
func ColumnDefinition(c schema.Column) (string, error) {
	typ := c.EffectiveType()
	if typ == "" {
		return "", fmt.Errorf("column %s has no type", c.Key())
	}

	def := schema.QuoteIdent(c.Name) + " " + typ
	switch c.Null {
	case schema.NullYes:
		def += " NULL"
	case schema.NullNo:
		def += " NOT NULL"
	}
	if c.Default.Set {
		switch {
		case c.Default.Null:
			def += " DEFAULT NULL"
		case strings.EqualFold(c.Default.Value, "CURRENT_TIMESTAMP"):
			def += " DEFAULT CURRENT_TIMESTAMP"
		default:
			def += " DEFAULT " + schema.QuoteString(c.Default.Value)
		}
	}
	if c.Extra == schema.ExtraAutoIncrement {
		def += " AUTO_INCREMENT"
	}
	return def, nil
}

// IndexDefinition renders an index the way CREATE TABLE lists it
func IndexDefinition(idx schema.Index) string {
	cols := "(" + quoteColumns(idx.Columns) + ")"
	switch idx.Type {
	case schema.IndexPrimary:
		return "PRIMARY KEY " + cols
	case schema.IndexUnique:
		return "UNIQUE INDEX " + schema.QuoteIdent(idx.AssignedName) + " " + cols
	default:
		return "INDEX " + schema.QuoteIdent(idx.AssignedName) + " " + cols
	}
}

// CreateTable inlines the table's new columns and indexes
func CreateTable(t schema.Table, columns []schema.Column, indexes []schema.Index) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("table %s has no columns to create", t.Key())
	}

	var defs []string
	for _, c := range columns {
		def, err := ColumnDefinition(c)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	for _, idx := range indexes {
		defs = append(defs, IndexDefinition(idx))
	}

	stmt := "CREATE TABLE " + quoteTable(t.Database, t.Name) + " ( " + strings.Join(defs, ", ") + " )"
	for _, attr := range attributes(t.Engine, t.CharacterSet, t.Collation) {
		stmt += " " + attr
	}
	return stmt, nil
}

func AddColumn(c schema.Column) (string, error) {
	def, err := ColumnDefinition(c)
	if err != nil {
		return "", err
	}
	return "ADD COLUMN " + def, nil
}

// ChangeColumn restates the full definition under the same name
func ChangeColumn(c schema.Column) (string, error) {
	def, err := ColumnDefinition(c)
	if err != nil {
		return "", err
	}
	return "CHANGE COLUMN " + schema.QuoteIdent(c.Name) + " " + def, nil
}

// TableAttributes renders the ENGINE, CHARACTER SET and COLLATE clauses of an ALTER TABLE
func TableAttributes(t schema.Table) []string {
	return attributes(t.Engine, t.CharacterSet, t.Collation)
}

func AlterTable(database, table string, clauses []string) string {
	return "ALTER TABLE " + quoteTable(database, table) + " " + strings.Join(clauses, ", ")
}
