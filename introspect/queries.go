package introspect

import (
	"strings"

	"github.com/ridoystarlord/dbenforce/schema"
)

// ShowPrivileges lists every privilege the server supports with its contexts
const ShowPrivileges = "SHOW PRIVILEGES"

// like is an exact, case-insensitive match of column against value
func like(column, value string) string {
	return column + " LIKE " + schema.QuoteString(schema.EscapeLike(value))
}

// likePattern matches column against an already escaped LIKE pattern
func likePattern(column, pattern string) string {
	return column + " LIKE " + schema.QuoteString(pattern)
}

func and(conds ...string) string {
	return strings.Join(conds, " AND ")
}

func anyOf(conds []string) string {
	var b strings.Builder
	b.WriteString("(1 = 0")
	for _, c := range conds {
		b.WriteString(" OR ")
		b.WriteString(c)
	}
	b.WriteString(")")
	return b.String()
}

// existsQuery builds the batched form shared by every category:
//
//	SELECT <cols>, IF(1 = 0 OR (<match1>) OR ..., TRUE, FALSE) AS <flag>
//	FROM <from> WHERE 1 = 0 OR (<where1>) OR ...
//
// Each returned row carries flag = 1 when it satisfies at least one desired entity.
func existsQuery(cols, flag, from string, match, where []string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	if flag != "" {
		b.WriteString(", IF(1 = 0")
		for _, m := range match {
			b.WriteString(" OR (")
			b.WriteString(m)
			b.WriteString(")")
		}
		b.WriteString(", TRUE, FALSE) AS ")
		b.WriteString(flag)
	}
	b.WriteString(" FROM ")
	b.WriteString(from)
	b.WriteString(" WHERE 1 = 0")
	for _, w := range where {
		b.WriteString(" OR (")
		b.WriteString(w)
		b.WriteString(")")
	}
	return b.String()
}

func DatabasesQuery(dbs []schema.Database) string {
	var match, where []string
	for _, db := range dbs {
		conds := []string{like("SCHEMA_NAME", db.Name)}
		if db.CharacterSet != "" {
			conds = append(conds, like("DEFAULT_CHARACTER_SET_NAME", db.CharacterSet))
		}
		if db.Collation != "" {
			conds = append(conds, like("DEFAULT_COLLATION_NAME", db.Collation))
		}
		match = append(match, and(conds...))
		where = append(where, like("SCHEMA_NAME", db.Name))
	}
	return existsQuery("SCHEMA_NAME AS db", "database_exists", "INFORMATION_SCHEMA.SCHEMATA", match, where)
}

func TablesQuery(tables []schema.Table) string {
	var match, where []string
	for _, t := range tables {
		key := and(like("TABLE_SCHEMA", t.Database), like("TABLE_NAME", t.Name))
		conds := []string{key}
		if t.Engine != "" {
			conds = append(conds, like("ENGINE", t.Engine))
		}
		switch {
		case t.Collation != "":
			conds = append(conds, like("TABLE_COLLATION", t.Collation))
		case t.CharacterSet != "":
			// TABLES has no character set column; every collation starts with "<charset>_"
			conds = append(conds, likePattern("TABLE_COLLATION", schema.EscapeLike(t.CharacterSet)+`\_%`))
		}
		match = append(match, and(conds...))
		where = append(where, key)
	}
	return existsQuery("TABLE_SCHEMA AS db, TABLE_NAME AS tb", "table_exists", "INFORMATION_SCHEMA.TABLES", match, where)
}

func ColumnsQuery(cols []schema.Column) string {
	var match, where []string
	for _, c := range cols {
		key := and(like("TABLE_SCHEMA", c.Database), like("TABLE_NAME", c.Table), like("COLUMN_NAME", c.Name))
		conds := []string{key}
		if c.Type != "" {
			conds = append(conds, like("COLUMN_TYPE", c.Type))
		}
		if c.Null != schema.NullUnspecified {
			conds = append(conds, like("IS_NULLABLE", string(c.Null)))
		}
		if c.Default.Set {
			if c.Default.Null {
				conds = append(conds, "COLUMN_DEFAULT IS NULL")
			} else {
				conds = append(conds, like("COLUMN_DEFAULT", c.Default.Value))
			}
		}
		if c.Extra != schema.ExtraNone {
			conds = append(conds, like("EXTRA", string(c.Extra)))
		}
		match = append(match, and(conds...))
		where = append(where, key)
	}
	return existsQuery("TABLE_SCHEMA AS db, TABLE_NAME AS tb, COLUMN_NAME AS col, COLUMN_TYPE AS type",
		"column_exists", "INFORMATION_SCHEMA.COLUMNS", match, where)
}

func indexColumns(idx schema.Index) string {
	conds := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		conds[i] = like("COLUMN_NAME", c)
	}
	return anyOf(conds)
}

func IndexesQuery(indexes []schema.Index) string {
	var match, where []string
	for _, idx := range indexes {
		table := and(like("TABLE_SCHEMA", idx.Database), like("TABLE_NAME", idx.Table))
		conds := []string{table, indexColumns(idx)}
		if idx.Name != "" {
			conds = append(conds, like("INDEX_NAME", idx.Name))
		}
		switch idx.Type {
		case schema.IndexPrimary:
			conds = append(conds, "INDEX_NAME = 'PRIMARY'")
		case schema.IndexUnique:
			conds = append(conds, "INDEX_NAME != 'PRIMARY' AND NON_UNIQUE = 0")
		case schema.IndexPlain:
			conds = append(conds, "INDEX_NAME != 'PRIMARY' AND NON_UNIQUE = 1")
		}
		match = append(match, and(conds...))
		where = append(where,
			and(table, indexColumns(idx)),
			and(table, "INDEX_NAME = 'PRIMARY'"),
			and(table, like("INDEX_NAME", idx.AssignedName)),
		)
	}
	return existsQuery("TABLE_SCHEMA AS db, TABLE_NAME AS tb, COLUMN_NAME AS col, INDEX_NAME AS name, NON_UNIQUE AS non_unique, SEQ_IN_INDEX AS seq",
		"index_exists", "INFORMATION_SCHEMA.STATISTICS", match, where)
}

func account(g schema.Grant) string {
	return and(likePattern("Host", g.EscapedHost), like("User", g.User))
}

// GlobalGrantsQuery reads mysql.user; password_match is 1 when the stored hash equals
// the desired password (or hash), or when no password is desired.
func GlobalGrantsQuery(grants []schema.Grant, passwordColumn string) string {
	col := schema.QuoteIdent(passwordColumn)
	var match, where []string
	for _, g := range grants {
		conds := []string{account(g)}
		switch {
		case g.Password != "":
			conds = append(conds, col+" LIKE PASSWORD("+schema.QuoteString(g.Password)+")")
		case g.PasswordHash != "":
			conds = append(conds, like(col, g.PasswordHash))
		}
		match = append(match, and(conds...))
		where = append(where, account(g))
	}
	return existsQuery("*", "password_match", "mysql.user", match, where)
}

func DatabaseGrantsQuery(grants []schema.Grant) string {
	var where []string
	for _, g := range grants {
		where = append(where, and(account(g), like("Db", g.Database)))
	}
	return existsQuery("*", "", "mysql.db", nil, where)
}

func TableGrantsQuery(grants []schema.Grant) string {
	var where []string
	for _, g := range grants {
		where = append(where, and(account(g), like("Db", g.Database), like("Table_name", g.Table)))
	}
	return existsQuery("*", "", "mysql.tables_priv", nil, where)
}

func ColumnGrantsQuery(grants []schema.Grant) string {
	var where []string
	for _, g := range grants {
		where = append(where, and(account(g), like("Db", g.Database), like("Table_name", g.Table), like("Column_name", g.Column)))
	}
	return existsQuery("*", "", "mysql.columns_priv", nil, where)
}

func ProcedureGrantsQuery(grants []schema.Grant) string {
	var where []string
	for _, g := range grants {
		where = append(where, and(account(g), like("Db", g.Database), like("Routine_name", g.Procedure), "Routine_type = 'PROCEDURE'"))
	}
	return existsQuery("*", "", "mysql.procs_priv", nil, where)
}
