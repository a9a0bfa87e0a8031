package introspect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ridoystarlord/dbenforce/database"
	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

type recorder struct {
	statements []string
	rows       []database.Row
	err        error
}

func (r *recorder) Execute(ctx context.Context, stmt string) ([]database.Row, error) {
	r.statements = append(r.statements, stmt)
	return r.rows, r.err
}

func TestDatabasesQuery(t *testing.T) {
	q := DatabasesQuery([]schema.Database{
		{Name: "testdb"},
		{Name: "my_db", CharacterSet: "utf8", Collation: "utf8_general_ci"},
	})
	for _, want := range []string{
		"SELECT SCHEMA_NAME AS db, IF(1 = 0 OR (SCHEMA_NAME LIKE 'testdb')",
		`OR (SCHEMA_NAME LIKE 'my\\_db' AND DEFAULT_CHARACTER_SET_NAME LIKE 'utf8' AND DEFAULT_COLLATION_NAME LIKE 'utf8\\_general\\_ci')`,
		`, TRUE, FALSE) AS database_exists FROM INFORMATION_SCHEMA.SCHEMATA WHERE 1 = 0 OR (SCHEMA_NAME LIKE 'testdb') OR (SCHEMA_NAME LIKE 'my\\_db')`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("DatabasesQuery missing %q\n%s", want, q)
		}
	}
}

func TestTablesQueryCharsetOnly(t *testing.T) {
	q := TablesQuery([]schema.Table{{Database: "testdb", Name: "t", Engine: "InnoDB", CharacterSet: "utf8"}})
	if !strings.Contains(q, `ENGINE LIKE 'InnoDB' AND TABLE_COLLATION LIKE 'utf8\\_%'`) {
		t.Errorf("TablesQuery = %s", q)
	}
}

func TestColumnsQuery(t *testing.T) {
	q := ColumnsQuery([]schema.Column{
		{Database: "d", Table: "t", Name: "a", Type: "INT(11)", Null: schema.NullNo, Extra: schema.ExtraAutoIncrement},
		{Database: "d", Table: "t", Name: "b", Default: schema.Default{Set: true, Null: true}},
		{Database: "d", Table: "t", Name: "c", Default: schema.Default{Set: true, Value: "it's"}},
	})
	for _, want := range []string{
		`COLUMN_TYPE LIKE 'INT(11)' AND IS_NULLABLE LIKE 'NO' AND EXTRA LIKE 'auto\\_increment'`,
		"COLUMN_NAME LIKE 'b' AND COLUMN_DEFAULT IS NULL",
		`COLUMN_DEFAULT LIKE 'it\'s'`,
		"AS column_exists FROM INFORMATION_SCHEMA.COLUMNS",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("ColumnsQuery missing %q\n%s", want, q)
		}
	}
}

func TestIndexesQuery(t *testing.T) {
	q := IndexesQuery([]schema.Index{{
		Database: "d", Table: "t", Type: schema.IndexUnique, Columns: []string{"a", "b"}, AssignedName: "a_UNIQUE",
	}})
	for _, want := range []string{
		"(1 = 0 OR COLUMN_NAME LIKE 'a' OR COLUMN_NAME LIKE 'b')",
		"INDEX_NAME != 'PRIMARY' AND NON_UNIQUE = 0",
		"INDEX_NAME = 'PRIMARY')",
		`INDEX_NAME LIKE 'a\\_UNIQUE')`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("IndexesQuery missing %q\n%s", want, q)
		}
	}
}

func TestGlobalGrantsQuery(t *testing.T) {
	q := GlobalGrantsQuery([]schema.Grant{
		{User: "u", Host: "%", EscapedHost: `\%`, Password: "secret"},
		{User: "v", Host: "localhost", EscapedHost: "localhost", PasswordHash: "*ABC"},
		{User: "w", Host: "localhost", EscapedHost: "localhost"},
	}, "authentication_string")
	for _, want := range []string{
		"SELECT *, IF(1 = 0",
		"Host LIKE '\\\\%' AND User LIKE 'u' AND `authentication_string` LIKE PASSWORD('secret')",
		"`authentication_string` LIKE '*ABC'",
		"OR (Host LIKE 'localhost' AND User LIKE 'w')",
		"AS password_match FROM mysql.user",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("GlobalGrantsQuery missing %q\n%s", want, q)
		}
	}
}

func TestScopedGrantQueries(t *testing.T) {
	g := schema.Grant{User: "u", Host: "localhost", EscapedHost: "localhost", Database: "d", Table: "t", Column: "c", Procedure: "p"}
	tests := []struct {
		q    string
		want string
	}{
		{DatabaseGrantsQuery([]schema.Grant{g}), "FROM mysql.db WHERE 1 = 0 OR (Host LIKE 'localhost' AND User LIKE 'u' AND Db LIKE 'd')"},
		{TableGrantsQuery([]schema.Grant{g}), "FROM mysql.tables_priv WHERE 1 = 0 OR (Host LIKE 'localhost' AND User LIKE 'u' AND Db LIKE 'd' AND Table_name LIKE 't')"},
		{ColumnGrantsQuery([]schema.Grant{g}), "AND Table_name LIKE 't' AND Column_name LIKE 'c')"},
		{ProcedureGrantsQuery([]schema.Grant{g}), "AND Routine_name LIKE 'p' AND Routine_type = 'PROCEDURE')"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.q, tt.want) {
			t.Errorf("query missing %q\n%s", tt.want, tt.q)
		}
		if strings.Contains(tt.q, "IF(") {
			t.Errorf("scoped grant query should not carry an existence flag: %s", tt.q)
		}
	}
}

func TestInspectorSkipsEmptyCategories(t *testing.T) {
	rec := &recorder{}
	in := NewInspector(rec, "")
	ctx := context.Background()
	if _, err := in.Databases(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := in.Grants(ctx, privilege.Table, nil); err != nil {
		t.Fatal(err)
	}
	if len(rec.statements) != 0 {
		t.Errorf("empty categories issued %d queries", len(rec.statements))
	}
}

func TestInspectorDecodesGrants(t *testing.T) {
	rec := &recorder{rows: []database.Row{{
		"Host": "localhost", "User": "u", "Db": "d", "Table_name": "t",
		"Table_priv": "Select,Grant", "Column_priv": "Update",
	}}}
	in := NewInspector(rec, "")
	got, err := in.Grants(context.Background(), privilege.Table, []schema.Grant{{User: "u", Host: "localhost", EscapedHost: "localhost", Scope: privilege.Table, Database: "d", Table: "t"}})
	if err != nil {
		t.Fatalf("Grants() error: %v", err)
	}
	if len(got) != 1 || !got[0].Privileges.Equal(privilege.Set{"select", privilege.GrantOption}) {
		t.Errorf("Grants() = %+v", got)
	}
}

func TestInspectorScopesCached(t *testing.T) {
	rec := &recorder{rows: []database.Row{{"Privilege": "Select", "Context": "Tables", "Comment": ""}}}
	in := NewInspector(rec, "")
	for i := 0; i < 3; i++ {
		s, err := in.Scopes(context.Background())
		if err != nil {
			t.Fatalf("Scopes() error: %v", err)
		}
		if !s.Table.Equal(privilege.Set{"select"}) {
			t.Errorf("Scopes().Table = %v", s.Table)
		}
	}
	if len(rec.statements) != 1 || rec.statements[0] != ShowPrivileges {
		t.Errorf("statements = %v, want a single SHOW PRIVILEGES", rec.statements)
	}
}

func TestInspectorWrapsErrors(t *testing.T) {
	boom := errors.New("Access denied")
	in := NewInspector(&recorder{err: boom}, "")
	_, err := in.Tables(context.Background(), []schema.Table{{Database: "d", Name: "t"}})
	if !errors.Is(err, boom) {
		t.Fatalf("Tables() error = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "INFORMATION_SCHEMA.TABLES") {
		t.Errorf("error should carry the SQL: %v", err)
	}
}
