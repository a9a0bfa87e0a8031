package schema

import (
	"fmt"

	"github.com/ridoystarlord/dbenforce/privilege"
)

type Database struct {
	Name         string `yaml:"name"`
	CharacterSet string `yaml:"character_set,omitempty"`
	Collation    string `yaml:"collation,omitempty"`
}

type Table struct {
	Database     string `yaml:"database"`
	Name         string `yaml:"name"`
	Engine       string `yaml:"engine,omitempty"`
	CharacterSet string `yaml:"character_set,omitempty"`
	Collation    string `yaml:"collation,omitempty"`
}

func (t Table) Key() string { return t.Database + "." + t.Name }

// Nullability is tri-state; Unspecified leaves the column's NULL-ness alone
type Nullability string

const (
	NullUnspecified Nullability = ""
	NullYes         Nullability = "YES"
	NullNo          Nullability = "NO"
)

// Default is a column default. Null marks an explicit DEFAULT NULL.
type Default struct {
	Set   bool   `yaml:"set"`
	Null  bool   `yaml:"null,omitempty"`
	Value string `yaml:"value,omitempty"`
}

type Extra string

const (
	ExtraNone          Extra = ""
	ExtraAutoIncrement Extra = "auto_increment"
)

type IndexType string

const (
	IndexPrimary IndexType = "primary"
	IndexUnique  IndexType = "unique"
	IndexPlain   IndexType = "index"
)

type Column struct {
	Database string      `yaml:"database"`
	Table    string      `yaml:"table"`
	Name     string      `yaml:"name"`
	Type     string      `yaml:"type,omitempty"`
	Null     Nullability `yaml:"null,omitempty"`
	Default  Default     `yaml:"default"`
	Extra    Extra       `yaml:"extra,omitempty"`

	// LiveType is the server's COLUMN_TYPE, captured when Type is empty and the
	// column has to be changed.
	LiveType string `yaml:"-"`
}

func (c Column) TableKey() string { return c.Database + "." + c.Table }

func (c Column) Key() string { return c.TableKey() + "." + c.Name }

// EffectiveType is the type a CHANGE COLUMN clause must restate
func (c Column) EffectiveType() string {
	if c.Type != "" {
		return c.Type
	}
	return c.LiveType
}

type Index struct {
	Database string    `yaml:"database"`
	Table    string    `yaml:"table"`
	Type     IndexType `yaml:"type"`
	Columns  []string  `yaml:"columns"`
	// Name is the explicitly requested name, if any
	Name         string `yaml:"name,omitempty"`
	AssignedName string `yaml:"assigned_name"`

	// LiveName is the name of a live index on these columns with the wrong definition.
	LiveName string `yaml:"-"`
	// NameTaken is set when a live index already uses AssignedName.
	NameTaken bool `yaml:"-"`
}

func (i Index) TableKey() string { return i.Database + "." + i.Table }

func (i Index) Key() string { return i.TableKey() + "." + i.AssignedName }

type Grant struct {
	User string `yaml:"user"`
	Host string `yaml:"host"`
	// EscapedHost is Host as a LIKE pattern matching only itself
	EscapedHost  string          `yaml:"escaped_host"`
	Password     string          `yaml:"password,omitempty"`
	PasswordHash string          `yaml:"password_hash,omitempty"`
	Scope        privilege.Scope `yaml:"scope"`
	Database     string          `yaml:"database,omitempty"`
	Table        string          `yaml:"table,omitempty"`
	Column       string          `yaml:"column,omitempty"`
	Procedure    string          `yaml:"procedure,omitempty"`
	Privileges   privilege.Set   `yaml:"privileges"`

	// Live is the privilege set currently held, recorded for modified grants
	Live privilege.Set `yaml:"-"`
}

// Account is the user@host identity of the grant
func (g Grant) Account() string { return g.User + "@" + g.Host }

// SameTable reports whether o targets the same account and table as g
func (g Grant) SameTable(o Grant) bool {
	return g.User == o.User && g.Host == o.Host && g.Database == o.Database && g.Table == o.Table
}

// Describe renders the grant for change reports
func (g Grant) Describe() string {
	switch g.Scope {
	case privilege.Database:
		return fmt.Sprintf("%s (database '%s' %s)", g.Account(), g.Database, g.Privileges)
	case privilege.Table:
		return fmt.Sprintf("%s (table '%s.%s' %s)", g.Account(), g.Database, g.Table, g.Privileges)
	case privilege.Column:
		return fmt.Sprintf("%s (column '%s.%s.%s' %s)", g.Account(), g.Database, g.Table, g.Column, g.Privileges)
	case privilege.Procedure:
		return fmt.Sprintf("%s (procedure '%s.%s' %s)", g.Account(), g.Database, g.Procedure, g.Privileges)
	}
	return fmt.Sprintf("%s (global %s)", g.Account(), g.Privileges)
}
