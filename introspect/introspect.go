package introspect

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/dbenforce/database"
	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

// DefaultPasswordColumn is the mysql.user column holding the password hash
const DefaultPasswordColumn = "Password"

type ExistingDatabase struct {
	Name    string
	Matches bool
}

type ExistingTable struct {
	Database string
	Name     string
	Matches  bool
}

type ExistingColumn struct {
	Database string
	Table    string
	Name     string
	Type     string
	Matches  bool
}

// ExistingIndexColumn is one STATISTICS row: a column's membership in one live index
type ExistingIndexColumn struct {
	Database  string
	Table     string
	Column    string
	IndexName string
	NonUnique bool
	Matches   bool
}

type ExistingGrant struct {
	User      string
	Host      string
	Database  string
	Table     string
	Column    string
	Procedure string
	// PasswordMatch is only meaningful for global grants
	PasswordMatch bool
	// Flags is the raw grant-table row, used for flag comparison
	Flags database.Row
	// Privileges is the decoded privilege list of table, column and procedure grants
	Privileges privilege.Set
}

// Inspector runs the batched read queries against one server. SHOW PRIVILEGES is
// fetched at most once per Inspector.
type Inspector struct {
	exec           database.Executor
	passwordColumn string
	scopes         *privilege.Scopes
}

func NewInspector(exec database.Executor, passwordColumn string) *Inspector {
	if passwordColumn == "" {
		passwordColumn = DefaultPasswordColumn
	}
	return &Inspector{exec: exec, passwordColumn: passwordColumn}
}

func (in *Inspector) query(ctx context.Context, what, stmt string) ([]database.Row, error) {
	rows, err := in.exec.Execute(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w\nSQL: %s", what, err, stmt)
	}
	return rows, nil
}

// Scopes returns the per-scope allowed privilege sets, querying the server on first use
func (in *Inspector) Scopes(ctx context.Context) (*privilege.Scopes, error) {
	if in.scopes != nil {
		return in.scopes, nil
	}
	rows, err := in.query(ctx, "privileges", ShowPrivileges)
	if err != nil {
		return nil, err
	}
	in.scopes = privilege.ParseScopes(rows)
	return in.scopes, nil
}

func (in *Inspector) Databases(ctx context.Context, dbs []schema.Database) ([]ExistingDatabase, error) {
	if len(dbs) == 0 {
		return nil, nil
	}
	rows, err := in.query(ctx, "databases", DatabasesQuery(dbs))
	if err != nil {
		return nil, err
	}
	out := make([]ExistingDatabase, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExistingDatabase{Name: r["db"], Matches: r["database_exists"] == "1"})
	}
	return out, nil
}

func (in *Inspector) Tables(ctx context.Context, tables []schema.Table) ([]ExistingTable, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	rows, err := in.query(ctx, "tables", TablesQuery(tables))
	if err != nil {
		return nil, err
	}
	out := make([]ExistingTable, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExistingTable{Database: r["db"], Name: r["tb"], Matches: r["table_exists"] == "1"})
	}
	return out, nil
}

func (in *Inspector) Columns(ctx context.Context, cols []schema.Column) ([]ExistingColumn, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	rows, err := in.query(ctx, "columns", ColumnsQuery(cols))
	if err != nil {
		return nil, err
	}
	out := make([]ExistingColumn, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExistingColumn{
			Database: r["db"],
			Table:    r["tb"],
			Name:     r["col"],
			Type:     r["type"],
			Matches:  r["column_exists"] == "1",
		})
	}
	return out, nil
}

func (in *Inspector) Indexes(ctx context.Context, indexes []schema.Index) ([]ExistingIndexColumn, error) {
	if len(indexes) == 0 {
		return nil, nil
	}
	rows, err := in.query(ctx, "indexes", IndexesQuery(indexes))
	if err != nil {
		return nil, err
	}
	out := make([]ExistingIndexColumn, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExistingIndexColumn{
			Database:  r["db"],
			Table:     r["tb"],
			Column:    r["col"],
			IndexName: r["name"],
			NonUnique: r["non_unique"] == "1",
			Matches:   r["index_exists"] == "1",
		})
	}
	return out, nil
}

// Grants reads the grant table of one scope for the given grants, which must all
// belong to that scope.
func (in *Inspector) Grants(ctx context.Context, scope privilege.Scope, grants []schema.Grant) ([]ExistingGrant, error) {
	if len(grants) == 0 {
		return nil, nil
	}

	var stmt string
	switch scope {
	case privilege.Global:
		stmt = GlobalGrantsQuery(grants, in.passwordColumn)
	case privilege.Database:
		stmt = DatabaseGrantsQuery(grants)
	case privilege.Table:
		stmt = TableGrantsQuery(grants)
	case privilege.Column:
		stmt = ColumnGrantsQuery(grants)
	case privilege.Procedure:
		stmt = ProcedureGrantsQuery(grants)
	default:
		return nil, fmt.Errorf("unknown privilege scope %q", scope)
	}

	rows, err := in.query(ctx, string(scope)+" grants", stmt)
	if err != nil {
		return nil, err
	}
	out := make([]ExistingGrant, 0, len(rows))
	for _, r := range rows {
		g := ExistingGrant{
			User:      r["User"],
			Host:      r["Host"],
			Database:  r["Db"],
			Table:     r["Table_name"],
			Column:    r["Column_name"],
			Procedure: r["Routine_name"],
			Flags:     r,
		}
		switch scope {
		case privilege.Global:
			g.PasswordMatch = r["password_match"] == "1"
		case privilege.Table:
			g.Privileges = privilege.ParseTableList(r["Table_priv"])
		case privilege.Column:
			g.Privileges = privilege.ParseColumnList(r["Column_priv"])
		case privilege.Procedure:
			g.Privileges = privilege.ParseProcedureList(r["Proc_priv"])
		}
		out = append(out, g)
	}
	return out, nil
}
