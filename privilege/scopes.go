package privilege

import "strings"

// Scopes holds the privileges the server allows per scope, as reported by SHOW PRIVILEGES.
type Scopes struct {
	Global    Set
	Database  Set
	Table     Set
	Procedure Set
	Column    Set
}

// columnAllowed is fixed: SHOW PRIVILEGES has no column context
var columnAllowed = Set{"select", "insert", "update"}

// ParseScopes decodes SHOW PRIVILEGES rows (Privilege, Context, Comment)
func ParseScopes(rows []map[string]string) *Scopes {
	s := &Scopes{Column: append(Set(nil), columnAllowed...)}
	for _, row := range rows {
		p := Privilege(strings.ToLower(strings.TrimSpace(row["Privilege"])))
		if p == "" {
			continue
		}
		if p == "grant" {
			p = GrantOption
		}
		for _, ctx := range splitList(row["Context"]) {
			switch strings.ToLower(strings.TrimSpace(ctx)) {
			case "server admin":
				s.Global = s.Global.Add(p)
			case "databases":
				s.Database = s.Database.Add(p)
			case "tables":
				s.Table = s.Table.Add(p)
			case "procedures":
				s.Procedure = s.Procedure.Add(p)
			}
		}
	}
	return s
}

// Allowed returns the allowed set of one scope
func (s *Scopes) Allowed(scope Scope) Set {
	switch scope {
	case Global:
		return s.Global
	case Database:
		return s.Database
	case Table:
		return s.Table
	case Procedure:
		return s.Procedure
	case Column:
		return s.Column
	}
	return nil
}
