package privilege

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		token string
		want  Privilege
		ok    bool
	}{
		{"SELECT", "select", true},
		{"  Lock   Tables ", "lock tables", true},
		{"ALL", AllPrivileges, true},
		{"all privileges", AllPrivileges, true},
		{"GRANT", GrantOption, true},
		{"grant option", GrantOption, true},
		{"usage", Usage, true},
		{"selekt", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = (%q, %v), want (%q, %v)", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseTokens(t *testing.T) {
	set, unknown := ParseTokens([]string{"SELECT, GRANT", "update", "bogus", "select"})
	want := Set{"select", GrantOption, "update"}
	if !set.Equal(want) || len(set) != len(want) {
		t.Fatalf("ParseTokens set = %v, want %v", set, want)
	}
	if len(unknown) != 1 || unknown[0] != "bogus" {
		t.Errorf("ParseTokens unknown = %v, want [bogus]", unknown)
	}
}

func TestFlagColumn(t *testing.T) {
	if col, ok := FlagColumn("select"); !ok || col != "Select_priv" {
		t.Errorf("FlagColumn(select) = (%q, %v)", col, ok)
	}
	if _, ok := FlagColumn(AllPrivileges); ok {
		t.Errorf("FlagColumn(all privileges) should have no column")
	}
	if p, ok := ForFlagColumn("Repl_slave_priv"); !ok || p != "replication slave" {
		t.Errorf("ForFlagColumn(Repl_slave_priv) = (%q, %v)", p, ok)
	}
}

func TestSetTokens(t *testing.T) {
	tests := []struct {
		set  Set
		want string
	}{
		{Set{"select", GrantOption}, "SELECT"},
		{Set{GrantOption}, "USAGE"},
		{nil, "USAGE"},
		{Set{AllPrivileges, GrantOption}, "ALL PRIVILEGES"},
		{Set{"select", "lock tables"}, "SELECT,LOCK TABLES"},
	}
	for _, tt := range tests {
		got := ""
		for i, tok := range tt.set.Tokens() {
			if i > 0 {
				got += ","
			}
			got += tok
		}
		if got != tt.want {
			t.Errorf("%v.Tokens() = %q, want %q", tt.set, got, tt.want)
		}
	}
}

func TestSetEqual(t *testing.T) {
	if !(Set{"select", "insert"}).Equal(Set{"insert", "select"}) {
		t.Errorf("order should not matter")
	}
	if (Set{"select"}).Equal(Set{"select", "insert"}) {
		t.Errorf("subset should not be equal")
	}
	if !(Set{}).Equal(nil) {
		t.Errorf("empty sets should be equal")
	}
}

func userRow(yes ...string) map[string]string {
	row := map[string]string{"Host": "localhost", "User": "u", "password_match": "1"}
	for _, e := range catalog {
		if e.column != "" {
			row[e.column] = "N"
		}
	}
	for _, col := range yes {
		row[col] = "Y"
	}
	return row
}

func allYes() map[string]string {
	row := userRow()
	for k := range row {
		if len(k) > 5 && k[len(k)-5:] == "_priv" {
			row[k] = "Y"
		}
	}
	return row
}

func TestCompareFlags(t *testing.T) {
	tests := []struct {
		name    string
		row     map[string]string
		desired Set
		modify  bool
	}{
		{"select missing", userRow(), Set{"select"}, true},
		{"select present", userRow("Select_priv"), Set{"select"}, false},
		{"excess insert", userRow("Select_priv", "Insert_priv"), Set{"select"}, true},
		{"usage on empty row", userRow(), Set{Usage}, false},
		{"usage with leftovers", userRow("Select_priv"), Set{Usage}, true},
		{"all with grant satisfied", allYes(), Set{AllPrivileges, GrantOption}, false},
		{"all without grant but grant bit set", allYes(), Set{AllPrivileges}, true},
		{"all with grant missing", func() map[string]string { r := allYes(); r["Grant_priv"] = "N"; return r }(), Set{AllPrivileges, GrantOption}, true},
		{"all but one flag off", func() map[string]string { r := allYes(); r["Super_priv"] = "N"; return r }(), Set{AllPrivileges, GrantOption}, true},
		{"select with grant", userRow("Select_priv", "Grant_priv"), Set{"select", GrantOption}, false},
		{"unknown flag set", userRow("Select_priv", "Create_role_priv"), Set{"select"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareFlags(tt.row, tt.desired).Modify(tt.desired)
			if got != tt.modify {
				t.Errorf("Modify = %v, want %v", got, tt.modify)
			}
		})
	}
}

func TestListParsers(t *testing.T) {
	table := ParseTableList("Select,Insert,Grant")
	if !table.Equal(Set{"select", "insert", GrantOption}) {
		t.Errorf("ParseTableList = %v", table)
	}
	col := ParseColumnList("Select, Update")
	if !col.Equal(Set{"select", "update"}) {
		t.Errorf("ParseColumnList = %v", col)
	}
	if got := ParseColumnList("Grant"); !got.Equal(Set{"grant"}) {
		t.Errorf("ParseColumnList must not rewrite grant, got %v", got)
	}
	if got := ParseTableList(""); len(got) != 0 {
		t.Errorf("ParseTableList(\"\") = %v, want empty", got)
	}
}

func TestExpand(t *testing.T) {
	allowed := Set{"select", "insert", "update", "delete", GrantOption}
	tests := []struct {
		name    string
		desired Set
		want    Set
	}{
		{"all", Set{AllPrivileges}, Set{"select", "insert", "update", "delete"}},
		{"all with grant", Set{AllPrivileges, GrantOption}, Set{"select", "insert", "update", "delete", GrantOption}},
		{"usage", Set{Usage}, Set{}},
		{"plain", Set{"select"}, Set{"select"}},
	}
	for _, tt := range tests {
		if got := Expand(tt.desired, allowed); !got.Equal(tt.want) {
			t.Errorf("%s: Expand = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseScopes(t *testing.T) {
	rows := []map[string]string{
		{"Privilege": "Alter", "Context": "Tables", "Comment": ""},
		{"Privilege": "Execute", "Context": "Functions,Procedures", "Comment": ""},
		{"Privilege": "Grant option", "Context": "Databases,Tables,Functions,Procedures", "Comment": ""},
		{"Privilege": "Process", "Context": "Server Admin", "Comment": ""},
		{"Privilege": "Select", "Context": "Tables", "Comment": ""},
	}
	s := ParseScopes(rows)
	if !s.Allowed(Table).Equal(Set{"alter", GrantOption, "select"}) {
		t.Errorf("table scope = %v", s.Table)
	}
	if !s.Allowed(Procedure).Equal(Set{"execute", GrantOption}) {
		t.Errorf("procedure scope = %v", s.Procedure)
	}
	if !s.Allowed(Global).Equal(Set{"process"}) {
		t.Errorf("global scope = %v", s.Global)
	}
	if !s.Allowed(Column).Equal(Set{"select", "insert", "update"}) {
		t.Errorf("column scope = %v", s.Column)
	}
}
