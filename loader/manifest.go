package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Manifest is the manifest exactly as written, before normalization
type Manifest struct {
	Databases []Database `yaml:"databases" toml:"databases"`
	Tables    []Table    `yaml:"tables" toml:"tables"`
	Columns   []Column   `yaml:"columns" toml:"columns"`
	Indexes   []Index    `yaml:"indexes" toml:"indexes"`
	Users     []User     `yaml:"users" toml:"users"`
}

type Database struct {
	Name         string `yaml:"name" toml:"name"`
	CharacterSet string `yaml:"character_set" toml:"character_set"`
	Collation    string `yaml:"collation" toml:"collation"`
}

type Table struct {
	Database     string `yaml:"database" toml:"database"`
	Name         string `yaml:"name" toml:"name"`
	Engine       string `yaml:"engine" toml:"engine"`
	CharacterSet string `yaml:"character_set" toml:"character_set"`
	Collation    string `yaml:"collation" toml:"collation"`
}

type Column struct {
	Database string `yaml:"database" toml:"database"`
	Table    string `yaml:"table" toml:"table"`
	Name     string `yaml:"name" toml:"name"`
	Type     string `yaml:"type" toml:"type"`
	// Null is read from the `null` key; YAML also accepts `nullable` since a bare
	// null key decodes as a null node.
	Null Scalar `yaml:"nullable" toml:"null"`
	// Default is nil when no default_value was given
	Default *Scalar `yaml:"default_value" toml:"default_value"`
	// DefaultNull is set for an explicit null default
	DefaultNull bool   `yaml:"-" toml:"-"`
	Extra       string `yaml:"extra" toml:"extra"`
	Index       string `yaml:"index" toml:"index"`
}

type Index struct {
	Database string `yaml:"database" toml:"database"`
	Table    string `yaml:"table" toml:"table"`
	Name     string `yaml:"name" toml:"name"`
	Type     string `yaml:"type" toml:"type"`
	Columns  List   `yaml:"columns" toml:"columns"`
	// Column is accepted as a synonym of Columns
	Column List `yaml:"column" toml:"column"`
}

// ColumnList prefers columns over column
func (i Index) ColumnList() []string {
	if len(i.Columns) > 0 {
		return i.Columns
	}
	return i.Column
}

type User struct {
	Name         string      `yaml:"name" toml:"name"`
	Host         List        `yaml:"host" toml:"host"`
	Hosts        List        `yaml:"hosts" toml:"hosts"`
	Password     string      `yaml:"password" toml:"password"`
	PasswordHash string      `yaml:"password_hash" toml:"password_hash"`
	Privileges   []Privilege `yaml:"privileges" toml:"privileges"`
}

// HostList merges hosts and host
func (u User) HostList() []string {
	out := append([]string(nil), u.Hosts...)
	return append(out, u.Host...)
}

type Privilege struct {
	Scope     string `yaml:"scope" toml:"scope"`
	Type      List   `yaml:"type" toml:"type"`
	Database  string `yaml:"database" toml:"database"`
	Table     string `yaml:"table" toml:"table"`
	Column    string `yaml:"column" toml:"column"`
	Procedure string `yaml:"procedure" toml:"procedure"`
}

// Scalar is any scalar value kept as its literal text
type Scalar string

func (s *Scalar) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// List is a string list written either as a sequence or as one comma-separated string
type List []string

var listSep = regexp.MustCompile(`,\s*`)

func splitList(raw string) List {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out List
	for _, part := range listSep.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads a manifest file; the format follows the extension
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	}
	return nil, fmt.Errorf("unsupported manifest format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
}
