package privilege

import (
	"regexp"
	"strings"
)

// Privilege is a lower-case MySQL privilege identifier, e.g. "select" or "lock tables"
type Privilege string

// Capability sentinels. They never map to a single grant-table flag.
const (
	AllPrivileges Privilege = "all privileges"
	Usage         Privilege = "usage"
	GrantOption   Privilege = "grant option"
)

// Scope is the level a grant applies at
type Scope string

const (
	Global    Scope = "global"
	Database  Scope = "database"
	Table     Scope = "table"
	Column    Scope = "column"
	Procedure Scope = "procedure"
)

// Scopes in ascending specificity, the order grants are reconciled in
var ScopeOrder = []Scope{Global, Database, Table, Column, Procedure}

// ParseScope accepts the manifest spelling of a scope
func ParseScope(raw string) (Scope, bool) {
	s := Scope(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ScopeOrder {
		if s == known {
			return s, true
		}
	}
	return "", false
}

type entry struct {
	name   Privilege
	column string
}

// catalog maps every recognized privilege to its mysql.user / mysql.db flag column.
// Privileges without a flag column carry an empty column.
var catalog = []entry{
	{"create", "Create_priv"},
	{"drop", "Drop_priv"},
	{"lock tables", "Lock_tables_priv"},
	{"references", "References_priv"},
	{"event", "Event_priv"},
	{"alter", "Alter_priv"},
	{"delete", "Delete_priv"},
	{"index", "Index_priv"},
	{"insert", "Insert_priv"},
	{"select", "Select_priv"},
	{"update", "Update_priv"},
	{"create temporary tables", "Create_tmp_table_priv"},
	{"trigger", "Trigger_priv"},
	{"create view", "Create_view_priv"},
	{"show view", "Show_view_priv"},
	{"alter routine", "Alter_routine_priv"},
	{"create routine", "Create_routine_priv"},
	{"execute", "Execute_priv"},
	{"file", "File_priv"},
	{"create tablespace", "Create_tablespace_priv"},
	{"create user", "Create_user_priv"},
	{"process", "Process_priv"},
	{"reload", "Reload_priv"},
	{"replication client", "Repl_client_priv"},
	{"replication slave", "Repl_slave_priv"},
	{"show databases", "Show_db_priv"},
	{"shutdown", "Shutdown_priv"},
	{"super", "Super_priv"},
	{"proxy", ""},
	{Usage, ""},
	{AllPrivileges, ""},
	{GrantOption, "Grant_priv"},
}

var (
	byName   = map[Privilege]string{}
	byColumn = map[string]Privilege{}
)

func init() {
	for _, e := range catalog {
		byName[e.name] = e.column
		if e.column != "" {
			byColumn[e.column] = e.name
		}
	}
}

// Known reports whether p is in the catalog
func Known(p Privilege) bool {
	_, ok := byName[p]
	return ok
}

// FlagColumn returns the grant-table column holding p's Y/N flag
func FlagColumn(p Privilege) (string, bool) {
	col, ok := byName[p]
	if !ok || col == "" {
		return "", false
	}
	return col, true
}

// ForFlagColumn is the reverse of FlagColumn
func ForFlagColumn(column string) (Privilege, bool) {
	p, ok := byColumn[column]
	return p, ok
}

// Parse maps one manifest token onto the catalog, collapsing the ALL and GRANT aliases
func Parse(token string) (Privilege, bool) {
	p := Privilege(strings.Join(strings.Fields(strings.ToLower(token)), " "))
	switch p {
	case "all":
		return AllPrivileges, true
	case "grant":
		return GrantOption, true
	}
	if !Known(p) {
		return "", false
	}
	return p, true
}

var listSep = regexp.MustCompile(`,\s*`)

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return listSep.Split(raw, -1)
}

// ParseTokens parses every manifest token, each of which may itself be a comma-separated list.
// Unrecognized tokens are returned separately in their original spelling.
func ParseTokens(tokens []string) (Set, []string) {
	var set Set
	var unknown []string
	for _, tok := range tokens {
		for _, part := range splitList(tok) {
			p, ok := Parse(part)
			if !ok {
				unknown = append(unknown, strings.TrimSpace(part))
				continue
			}
			set = set.Add(p)
		}
	}
	return set, unknown
}
