package schema

import "strings"

// QuoteIdent quotes a MySQL identifier with backticks
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteString renders a single-quoted MySQL string literal
func QuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike turns s into a LIKE pattern that matches only s itself
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
