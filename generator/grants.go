package generator

import (
	"strings"

	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

// Target renders the ON clause object of a grant
func Target(g schema.Grant) string {
	switch g.Scope {
	case privilege.Database:
		return schema.QuoteIdent(g.Database) + ".*"
	case privilege.Table, privilege.Column:
		return quoteTable(g.Database, g.Table)
	case privilege.Procedure:
		return "PROCEDURE " + quoteTable(g.Database, g.Procedure)
	}
	return "*.*"
}

// Account renders 'user'@'host'
func Account(g schema.Grant) string {
	return schema.QuoteString(g.User) + "@" + schema.QuoteString(g.Host)
}

// ColumnPrivileges renders a column grant as `PRIV (col)` clauses. ALL PRIVILEGES is
// expanded against the column scope's allowed set; GRANT OPTION never applies to a column.
func ColumnPrivileges(col schema.Grant, allowed privilege.Set) []string {
	set := privilege.Expand(col.Privileges.Without(privilege.GrantOption), allowed)
	return columnClauses(set, col.Column)
}

func columnClauses(set privilege.Set, column string) []string {
	if len(set) == 0 {
		return nil
	}
	var out []string
	for _, tok := range set.Tokens() {
		out = append(out, tok+" ("+schema.QuoteIdent(column)+")")
	}
	return out
}

func identifiedBy(g schema.Grant) string {
	switch {
	case g.Password != "":
		return " IDENTIFIED BY " + schema.QuoteString(g.Password)
	case g.PasswordHash != "":
		return " IDENTIFIED BY PASSWORD " + schema.QuoteString(g.PasswordHash)
	}
	return ""
}

// Grant renders the GRANT statement of g. Table grants take the column clauses of
// the same table's column grants; they are appended after the table privileges.
// GRANT OPTION is rendered as the WITH GRANT OPTION suffix, never as a token.
func Grant(g schema.Grant, columns []string) string {
	tokens := g.Privileges.Tokens()
	if len(columns) > 0 && len(tokens) == 1 && tokens[0] == "USAGE" {
		tokens = nil
	}
	privs := strings.Join(append(tokens, columns...), ", ")

	stmt := "GRANT " + privs + " ON " + Target(g) + " TO " + Account(g) + identifiedBy(g)
	if g.Privileges.WantsGrantOption() {
		stmt += " WITH GRANT OPTION"
	}
	return stmt
}

// GrantColumns renders a standalone column grant for a table without a table grant
func GrantColumns(col schema.Grant, allowed privilege.Set) string {
	return "GRANT " + strings.Join(ColumnPrivileges(col, allowed), ", ") + " ON " + Target(col) +
		" TO " + Account(col) + identifiedBy(col)
}

func RevokeGrantOption(g schema.Grant) string {
	return "REVOKE GRANT OPTION ON " + Target(g) + " FROM " + Account(g)
}

func RevokeAll(g schema.Grant) string {
	return "REVOKE ALL PRIVILEGES ON " + Target(g) + " FROM " + Account(g)
}

// RevokeColumns revokes the privileges a column currently holds. It returns an empty
// string when live holds nothing.
func RevokeColumns(col schema.Grant, live privilege.Set) string {
	clauses := columnClauses(live.Without(privilege.GrantOption), col.Column)
	if len(clauses) == 0 {
		return ""
	}
	return "REVOKE " + strings.Join(clauses, ", ") + " ON " + Target(col) + " FROM " + Account(col)
}

// Regrant is the corrective sequence for a grant whose live privileges differ:
// grants only add, so everything at that scope is revoked before granting again.
func Regrant(g schema.Grant, columns []string) []string {
	return []string{
		RevokeGrantOption(g),
		RevokeAll(g),
		Grant(g, columns),
	}
}
