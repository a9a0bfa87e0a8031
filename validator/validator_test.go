package validator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ridoystarlord/dbenforce/loader"
	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

func scalar(s string) *loader.Scalar {
	v := loader.Scalar(s)
	return &v
}

func testdbManifest() *loader.Manifest {
	return &loader.Manifest{
		Databases: []loader.Database{{Name: "testdb"}},
		Tables:    []loader.Table{{Database: "testdb", Name: "test"}},
		Columns: []loader.Column{{
			Database: "testdb", Table: "test", Name: "id", Type: "INT(11)",
			Null: "NO", Index: "primary", Extra: "AUTO_INCREMENT",
		}},
	}
}

func mustNormalize(t *testing.T, raw *loader.Manifest) (*schema.Manifest, []ValidationError) {
	t.Helper()
	m, warnings, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	return m, warnings
}

func expectError(t *testing.T, raw *loader.Manifest, typ, contains string) {
	t.Helper()
	_, _, err := Normalize(raw)
	if err == nil {
		t.Fatalf("Normalize() error = nil, want %s error containing %q", typ, contains)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Normalize() error %T is not a *ValidationError", err)
	}
	if ve.Type != typ || !strings.Contains(ve.Message, contains) || ve.Severity != SeverityError {
		t.Errorf("Normalize() error = %+v, want type %s containing %q", ve, typ, contains)
	}
}

func hasWarning(warnings []ValidationError, contains string) bool {
	for _, w := range warnings {
		if strings.Contains(w.Message, contains) {
			return true
		}
	}
	return false
}

func TestNormalizeTestdb(t *testing.T) {
	m, warnings := mustNormalize(t, testdbManifest())
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(m.Indexes) != 1 {
		t.Fatalf("len(Indexes) = %d, want 1 from the column shortcut", len(m.Indexes))
	}
	idx := m.Indexes[0]
	if idx.Type != schema.IndexPrimary || idx.AssignedName != "PRIMARY" || idx.Columns[0] != "id" {
		t.Errorf("shortcut index = %+v", idx)
	}
	col := m.Columns[0]
	if col.Null != schema.NullNo || col.Extra != schema.ExtraAutoIncrement {
		t.Errorf("column = %+v", col)
	}
}

func TestIndexNaming(t *testing.T) {
	raw := testdbManifest()
	raw.Columns = append(raw.Columns,
		loader.Column{Database: "testdb", Table: "test", Name: "a", Type: "INT"},
		loader.Column{Database: "testdb", Table: "test", Name: "b", Type: "INT"},
	)
	raw.Indexes = []loader.Index{
		{Database: "testdb", Table: "test", Columns: loader.List{"a", "b"}, Type: "unique"},
		{Database: "testdb", Table: "test", Columns: loader.List{"b"}},
		{Database: "testdb", Table: "test", Column: loader.List{"a"}, Type: "MUL", Name: "custom"},
		{Database: "testdb", Table: "test", Columns: loader.List{"id"}, Type: "primary key"},
	}
	raw.Columns[0].Index = ""
	m, _ := mustNormalize(t, raw)

	want := []struct {
		name string
		typ  schema.IndexType
	}{
		{"a_UNIQUE", schema.IndexUnique},
		{"b_INDEX", schema.IndexPlain},
		{"custom", schema.IndexPlain},
		{"PRIMARY", schema.IndexPrimary},
	}
	if len(m.Indexes) != len(want) {
		t.Fatalf("len(Indexes) = %d, want %d", len(m.Indexes), len(want))
	}
	for i, w := range want {
		if m.Indexes[i].AssignedName != w.name || m.Indexes[i].Type != w.typ {
			t.Errorf("index %d = (%s, %s), want (%s, %s)", i, m.Indexes[i].AssignedName, m.Indexes[i].Type, w.name, w.typ)
		}
	}
}

func TestShortcutSuppressedByExplicitIndex(t *testing.T) {
	raw := testdbManifest()
	raw.Indexes = []loader.Index{{Database: "testdb", Table: "test", Columns: loader.List{"id"}, Type: "primary"}}
	m, warnings := mustNormalize(t, raw)
	if len(m.Indexes) != 1 {
		t.Errorf("len(Indexes) = %d, want 1", len(m.Indexes))
	}
	if !hasWarning(warnings, "index already defined") {
		t.Errorf("missing duplicate shortcut warning in %v", warnings)
	}
}

func TestFatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*loader.Manifest)
		typ      string
		contains string
	}{
		{"table without columns", func(m *loader.Manifest) {
			m.Tables = append(m.Tables, loader.Table{Database: "testdb", Name: "empty"})
		}, TypeTable, "no columns"},
		{"index without columns", func(m *loader.Manifest) {
			m.Indexes = []loader.Index{{Database: "testdb", Table: "test"}}
		}, TypeIndex, "no 'columns'"},
		{"bad index type", func(m *loader.Manifest) {
			m.Indexes = []loader.Index{{Database: "testdb", Table: "test", Columns: loader.List{"id"}, Type: "fulltext"}}
		}, TypeIndex, "type is wrong"},
		{"bad column index type", func(m *loader.Manifest) {
			m.Columns[0].Index = "spatial"
		}, TypeColumn, "'index' parameter is wrong"},
		{"user without name", func(m *loader.Manifest) {
			m.Users = []loader.User{{Host: loader.List{"localhost"}}}
		}, TypeUser, "no 'name'"},
		{"auto_increment nullable", func(m *loader.Manifest) {
			m.Columns[0].Null = "YES"
		}, TypeColumn, "can not be 'YES'"},
		{"auto_increment with default", func(m *loader.Manifest) {
			m.Columns[0].Default = scalar("1")
		}, TypeColumn, "default_value"},
		{"auto_increment without index", func(m *loader.Manifest) {
			m.Columns[0].Index = ""
		}, TypeColumn, "no index"},
		{"table grant without table", func(m *loader.Manifest) {
			m.Users = []loader.User{{Name: "u", Privileges: []loader.Privilege{{Scope: "table", Database: "testdb", Type: loader.List{"select"}}}}}
		}, TypePrivilege, "'table'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testdbManifest()
			tt.mutate(raw)
			expectError(t, raw, tt.typ, tt.contains)
		})
	}
}

func TestAutoIncrementAcceptedWithUniqueIndex(t *testing.T) {
	raw := testdbManifest()
	raw.Columns[0].Index = "unique"
	m, _ := mustNormalize(t, raw)
	if m.Indexes[0].AssignedName != "id_UNIQUE" {
		t.Errorf("AssignedName = %q, want id_UNIQUE", m.Indexes[0].AssignedName)
	}
}

func TestAutoIncrementNullInferred(t *testing.T) {
	raw := testdbManifest()
	raw.Columns[0].Index = ""
	raw.Columns[0].Null = ""
	raw.Indexes = []loader.Index{{Database: "testdb", Table: "test", Columns: loader.List{"id"}, Type: "pri"}}
	m, _ := mustNormalize(t, raw)
	if m.Columns[0].Null != schema.NullNo {
		t.Errorf("auto_increment column nullability = %q, want inferred NO", m.Columns[0].Null)
	}
}

func TestColumnWarnings(t *testing.T) {
	raw := testdbManifest()
	raw.Columns = append(raw.Columns,
		loader.Column{Database: "testdb", Table: "test", Name: "a", Type: "INT", Null: "maybe"},
		loader.Column{Database: "testdb", Table: "test", Name: "b", Type: "INT", Extra: "on update"},
		loader.Column{Database: "testdb", Table: "test", Name: "c", Type: "INT", Null: "true", Default: scalar("null")},
		loader.Column{Database: "testdb", Table: "test", Name: "d", Type: "INT", DefaultNull: true},
		loader.Column{Database: "testdb", Table: "test", Name: "e", Type: "VARCHAR(8)", Default: scalar("no-name")},
	)
	m, warnings := mustNormalize(t, raw)
	if !hasWarning(warnings, "'null' parameter is wrong") {
		t.Errorf("missing null warning")
	}
	if !hasWarning(warnings, "'extra' parameter") {
		t.Errorf("missing extra warning")
	}
	byName := map[string]schema.Column{}
	for _, c := range m.Columns {
		byName[c.Name] = c
	}
	if byName["a"].Null != schema.NullUnspecified {
		t.Errorf("a.Null = %q, want unspecified", byName["a"].Null)
	}
	if byName["b"].Extra != schema.ExtraNone {
		t.Errorf("b.Extra = %q, want none", byName["b"].Extra)
	}
	if c := byName["c"]; c.Null != schema.NullYes || !c.Default.Set || !c.Default.Null {
		t.Errorf("c = %+v, want nullable with explicit NULL default", c)
	}
	if d := byName["d"]; !d.Default.Set || !d.Default.Null {
		t.Errorf("d.Default = %+v, want explicit NULL", d.Default)
	}
	if e := byName["e"]; !e.Default.Set || e.Default.Null || e.Default.Value != "no-name" {
		t.Errorf("e.Default = %+v", e.Default)
	}
}

func TestCharsetFromCollation(t *testing.T) {
	raw := testdbManifest()
	raw.Databases[0].Collation = "latin1_swedish_ci"
	raw.Tables[0].Collation = "utf8mb4_general_ci"
	m, warnings := mustNormalize(t, raw)
	if m.Databases[0].CharacterSet != "latin1" {
		t.Errorf("database charset = %q, want latin1", m.Databases[0].CharacterSet)
	}
	if m.Tables[0].CharacterSet != "utf8mb4" {
		t.Errorf("table charset = %q, want utf8mb4", m.Tables[0].CharacterSet)
	}
	if len(warnings) != 2 {
		t.Errorf("len(warnings) = %d, want 2", len(warnings))
	}
}

func TestGrantExpansionCardinality(t *testing.T) {
	u := loader.User{
		Name:  "u",
		Hosts: loader.List{"localhost", "10.0.0.1", "%"},
		Privileges: []loader.Privilege{
			{Scope: "global", Type: loader.List{"SELECT"}},
			{Type: loader.List{"ALL"}, Database: "testdb"},
		},
	}
	n := &normalizer{out: &schema.Manifest{}}
	rows, err := n.expandUser(u)
	if err != nil {
		t.Fatalf("expandUser() error: %v", err)
	}
	if len(rows) != 3*2 {
		t.Fatalf("len(rows) = %d, want 6", len(rows))
	}
	if rows[1].Scope != privilege.Database || !rows[1].Privileges.Has(privilege.AllPrivileges) {
		t.Errorf("rows[1] = %+v, want database ALL", rows[1])
	}
	if rows[5].Host != "%" || rows[5].EscapedHost != `\%` {
		t.Errorf("rows[5] host = %q escaped %q", rows[5].Host, rows[5].EscapedHost)
	}
}

func TestScopeInference(t *testing.T) {
	tests := []struct {
		block loader.Privilege
		want  privilege.Scope
	}{
		{loader.Privilege{Database: "d", Procedure: "p", Table: "t"}, privilege.Procedure},
		{loader.Privilege{Database: "d", Table: "t", Column: "c"}, privilege.Column},
		{loader.Privilege{Database: "d", Table: "t"}, privilege.Table},
		{loader.Privilege{Database: "d"}, privilege.Database},
		{loader.Privilege{}, privilege.Global},
	}
	for _, tt := range tests {
		if got := inferScope(tt.block); got != tt.want {
			t.Errorf("inferScope(%+v) = %s, want %s", tt.block, got, tt.want)
		}
	}
}

func grantsOf(m *schema.Manifest, scope privilege.Scope) []schema.Grant {
	return m.GrantsIn(scope)
}

func TestGlobalUsageSynthesized(t *testing.T) {
	raw := testdbManifest()
	raw.Users = []loader.User{{
		Name: "u", Hosts: loader.List{"localhost", "%"}, Password: "secret",
		Privileges: []loader.Privilege{{Type: loader.List{"select"}, Database: "testdb"}},
	}}
	m, _ := mustNormalize(t, raw)
	globals := grantsOf(m, privilege.Global)
	if len(globals) != 2 {
		t.Fatalf("len(globals) = %d, want one per host", len(globals))
	}
	for _, g := range globals {
		if !g.Privileges.Equal(privilege.Set{privilege.Usage}) || g.Password != "secret" {
			t.Errorf("synthesized global = %+v", g)
		}
	}
	if len(grantsOf(m, privilege.Database)) != 2 {
		t.Errorf("database grants = %d, want 2", len(grantsOf(m, privilege.Database)))
	}
}

func TestUserWithoutPrivileges(t *testing.T) {
	raw := testdbManifest()
	raw.Users = []loader.User{{Name: "u"}}
	m, warnings := mustNormalize(t, raw)
	if len(m.Grants) != 1 || m.Grants[0].Scope != privilege.Global || m.Grants[0].Host != "localhost" {
		t.Fatalf("grants = %+v", m.Grants)
	}
	if !hasWarning(warnings, "no 'privileges'") {
		t.Errorf("missing privileges warning")
	}
}

func TestPrivilegeTokenHandling(t *testing.T) {
	raw := testdbManifest()
	raw.Users = []loader.User{{
		Name: "u",
		Privileges: []loader.Privilege{
			{Scope: "global", Type: loader.List{"SELECT", "GRANT", "bogus"}},
			{Scope: "database", Database: "testdb"},
			{Scope: "database", Database: "other", Type: loader.List{"nonsense"}},
		},
	}}
	m, warnings := mustNormalize(t, raw)
	global := grantsOf(m, privilege.Global)
	if len(global) != 1 || !global[0].Privileges.Equal(privilege.Set{"select", privilege.GrantOption}) {
		t.Errorf("global = %+v", global)
	}
	db := grantsOf(m, privilege.Database)
	if len(db) != 1 || db[0].Database != "testdb" || !db[0].Privileges.IsUsage() {
		t.Errorf("database grants = %+v, want the USAGE block only", db)
	}
	for _, want := range []string{"'bogus' is not permitted", "no 'type'", "grants nothing"} {
		if !hasWarning(warnings, want) {
			t.Errorf("missing warning %q in %v", want, warnings)
		}
	}
}

func TestColumnGrantShadowedByTableAll(t *testing.T) {
	raw := testdbManifest()
	raw.Users = []loader.User{{
		Name: "u",
		Privileges: []loader.Privilege{
			{Type: loader.List{"ALL PRIVILEGES"}, Database: "testdb", Table: "test"},
			{Type: loader.List{"SELECT"}, Database: "testdb", Table: "test", Column: "id"},
			{Type: loader.List{"SELECT"}, Database: "testdb", Table: "other", Column: "id"},
		},
	}}
	m, warnings := mustNormalize(t, raw)
	cols := grantsOf(m, privilege.Column)
	if len(cols) != 1 || cols[0].Table != "other" {
		t.Errorf("column grants = %+v, want only testdb.other.id", cols)
	}
	if !hasWarning(warnings, "skipping privileges on column id") {
		t.Errorf("missing shadowing warning")
	}
}

func TestDuplicateGlobalBlocksMerged(t *testing.T) {
	raw := testdbManifest()
	raw.Users = []loader.User{{
		Name: "u",
		Privileges: []loader.Privilege{
			{Scope: "global", Type: loader.List{"select"}},
			{Scope: "global", Type: loader.List{"insert"}},
		},
	}}
	m, warnings := mustNormalize(t, raw)
	global := grantsOf(m, privilege.Global)
	if len(global) != 1 || !global[0].Privileges.Equal(privilege.Set{"select", "insert"}) {
		t.Errorf("global = %+v", global)
	}
	if !hasWarning(warnings, "merging") {
		t.Errorf("missing merge warning")
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	build := func() *loader.Manifest {
		raw := testdbManifest()
		raw.Users = []loader.User{{
			Name: "u", Hosts: loader.List{"a", "b"},
			Privileges: []loader.Privilege{
				{Type: loader.List{"select, insert"}, Database: "testdb", Table: "test"},
				{Type: loader.List{"execute"}, Database: "testdb", Procedure: "p"},
			},
		}}
		return raw
	}
	m1, _ := mustNormalize(t, build())
	m2, _ := mustNormalize(t, build())
	a, err := m1.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	b, _ := m2.Encode()
	if !bytes.Equal(a, b) {
		t.Errorf("normalizing twice produced different output:\n%s\n---\n%s", a, b)
	}
}

func TestValidateResult(t *testing.T) {
	raw := testdbManifest()
	raw.Columns[0].Null = "YES"
	result, m := Validate(raw)
	if result.Valid || m != nil || len(result.Errors) != 1 {
		t.Errorf("Validate() = %+v, want one error", result)
	}
	result, m = Validate(testdbManifest())
	if !result.Valid || m == nil {
		t.Errorf("Validate() = %+v, want valid", result)
	}
}
