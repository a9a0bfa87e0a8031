package runner

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/dbenforce/diff"
	"github.com/ridoystarlord/dbenforce/generator"
	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

// Step is a group of statements that together correct the entities in Changes
type Step struct {
	Changes    []Change
	Statements []string
}

// Plan is the ordered list of steps for one classification
type Plan struct {
	Steps []Step
}

func (p *Plan) Empty() bool { return p == nil || len(p.Steps) == 0 }

// Statements flattens the plan in execution order
func (p *Plan) Statements() []string {
	var out []string
	for _, s := range p.Steps {
		out = append(out, s.Statements...)
	}
	return out
}

type planner struct {
	c    *diff.Classification
	plan *Plan
}

// BuildPlan orders the statements that converge the server to c: database creates,
// database modifies, table creates, one ALTER TABLE per changed existing table, then
// grants from global to procedure scope. Nothing is executed; a plan error means
// no statement would have been safe to run.
func BuildPlan(c *diff.Classification) (*Plan, error) {
	if c.Manifest == nil || c.Scopes == nil {
		filled := *c
		if filled.Manifest == nil {
			filled.Manifest = &schema.Manifest{}
		}
		if filled.Scopes == nil {
			filled.Scopes = privilege.ParseScopes(nil)
		}
		c = &filled
	}
	p := &planner{c: c, plan: &Plan{}}
	steps := []func() error{
		p.createDatabases,
		p.modifyDatabases,
		p.createTables,
		p.modifyTables,
		p.grants,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return p.plan, nil
}

func (p *planner) add(statements []string, changes ...Change) {
	p.plan.Steps = append(p.plan.Steps, Step{Changes: changes, Statements: statements})
}

func (p *planner) createDatabases() error {
	for _, db := range p.c.NewDatabases {
		p.add([]string{generator.CreateDatabase(db)}, Change{Databases, Created, databaseTarget(db)})
	}
	return nil
}

func (p *planner) modifyDatabases() error {
	for _, db := range p.c.ModifiedDatabases {
		p.add([]string{generator.AlterDatabase(db)}, Change{Databases, Modified, databaseTarget(db)})
	}
	return nil
}

func (p *planner) isNewTable(key string) bool {
	for _, t := range p.c.NewTables {
		if t.Key() == key {
			return true
		}
	}
	return false
}

func (p *planner) createTables() error {
	for _, t := range p.c.NewTables {
		var cols []schema.Column
		var idx []schema.Index
		changes := []Change{{Tables, Created, tableTarget(t)}}
		for _, c := range p.c.NewColumns {
			if c.TableKey() == t.Key() {
				cols = append(cols, c)
				changes = append(changes, Change{Columns, Created, columnTarget(c)})
			}
		}
		for _, i := range p.c.NewIndexes {
			if i.TableKey() == t.Key() {
				idx = append(idx, i)
				changes = append(changes, Change{Indexes, Created, indexTarget(i)})
			}
		}
		stmt, err := generator.CreateTable(t, cols, idx)
		if err != nil {
			return fmt.Errorf("planning table %s: %w", t.Key(), err)
		}
		p.add([]string{stmt}, changes...)
	}
	return nil
}

// alterKeys lists, in manifest order, every existing table that needs an ALTER TABLE:
// modified tables and tables with new or modified columns or indexes.
func (p *planner) alterKeys() []string {
	var keys []string
	seen := map[string]bool{}
	add := func(db, table string) {
		key := db + "." + table
		if seen[key] || p.isNewTable(key) {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}
	for _, t := range p.c.Manifest.Tables {
		add(t.Database, t.Name)
	}
	for _, c := range p.c.Manifest.Columns {
		add(c.Database, c.Table)
	}
	for _, i := range p.c.Manifest.Indexes {
		add(i.Database, i.Table)
	}
	for _, t := range p.c.ModifiedTables {
		add(t.Database, t.Name)
	}
	for _, c := range append(append([]schema.Column(nil), p.c.NewColumns...), p.c.ModifiedColumns...) {
		add(c.Database, c.Table)
	}
	for _, i := range append(append([]schema.Index(nil), p.c.NewIndexes...), p.c.ModifiedIndexes...) {
		add(i.Database, i.Table)
	}
	return keys
}

func (p *planner) modifyTables() error {
	for _, key := range p.alterKeys() {
		var database, table string
		var clauses []string
		var changes []Change

		for _, t := range p.c.ModifiedTables {
			if t.Key() == key {
				changes = append(changes, Change{Tables, Modified, tableTarget(t)})
			}
		}
		for _, c := range p.c.NewColumns {
			if c.TableKey() != key {
				continue
			}
			clause, err := generator.AddColumn(c)
			if err != nil {
				return fmt.Errorf("planning column %s: %w", c.Key(), err)
			}
			database, table = c.Database, c.Table
			clauses = append(clauses, clause)
			changes = append(changes, Change{Columns, Created, columnTarget(c)})
		}
		for _, c := range p.c.ModifiedColumns {
			if c.TableKey() != key {
				continue
			}
			clause, err := generator.ChangeColumn(c)
			if err != nil {
				return fmt.Errorf("planning column %s: %w", c.Key(), err)
			}
			database, table = c.Database, c.Table
			clauses = append(clauses, clause)
			changes = append(changes, Change{Columns, Modified, columnTarget(c)})
		}

		dropped := map[string]bool{}
		correct := func(idx schema.Index, action Action) {
			for _, clause := range generator.NewIndexCorrection(idx).Clauses() {
				if strings.HasPrefix(clause, "DROP ") {
					if dropped[strings.ToLower(clause)] {
						continue
					}
					dropped[strings.ToLower(clause)] = true
				}
				clauses = append(clauses, clause)
			}
			database, table = idx.Database, idx.Table
			changes = append(changes, Change{Indexes, action, indexTarget(idx)})
		}
		for _, idx := range p.c.NewIndexes {
			if idx.TableKey() == key {
				correct(idx, Created)
			}
		}
		for _, idx := range p.c.ModifiedIndexes {
			if idx.TableKey() == key {
				correct(idx, Modified)
			}
		}

		for _, t := range p.c.ModifiedTables {
			if t.Key() == key {
				database, table = t.Database, t.Name
				clauses = append(clauses, generator.TableAttributes(t)...)
			}
		}

		if len(clauses) == 0 {
			continue
		}
		p.add([]string{generator.AlterTable(database, table, clauses)}, changes...)
	}
	return nil
}

func (p *planner) grants() error {
	for _, scope := range []privilege.Scope{privilege.Global, privilege.Database} {
		p.simpleGrants(scope)
	}
	p.tableGrants()
	p.columnGrants()
	p.simpleGrants(privilege.Procedure)
	return nil
}

func (p *planner) simpleGrants(scope privilege.Scope) {
	for _, g := range p.c.NewGrants[scope] {
		p.add([]string{generator.Grant(g, nil)}, Change{Grants, Created, g.Describe()})
	}
	for _, g := range p.c.ModifiedGrants[scope] {
		p.add(generator.Regrant(g, nil), Change{Grants, Modified, g.Describe()})
	}
}

func containsGrant(list []schema.Grant, g schema.Grant) bool {
	for _, o := range list {
		if o.SameTable(g) && o.Column == g.Column {
			return true
		}
	}
	return false
}

// pendingColumns returns the new and modified column grants of g's table
func (p *planner) pendingColumns(g schema.Grant) (created, modified []schema.Grant) {
	for _, col := range p.c.NewGrants[privilege.Column] {
		if col.SameTable(g) {
			created = append(created, col)
		}
	}
	for _, col := range p.c.ModifiedGrants[privilege.Column] {
		if col.SameTable(g) {
			modified = append(modified, col)
		}
	}
	return created, modified
}

func (p *planner) columnChanges(created, modified []schema.Grant) []Change {
	var changes []Change
	for _, col := range created {
		changes = append(changes, Change{Grants, Created, col.Describe()})
	}
	for _, col := range modified {
		changes = append(changes, Change{Grants, Modified, col.Describe()})
	}
	return changes
}

func (p *planner) columnClauses(cols []schema.Grant) []string {
	var out []string
	for _, col := range cols {
		out = append(out, generator.ColumnPrivileges(col, p.c.Scopes.Column)...)
	}
	return out
}

// tableGrants handles every table grant that is new or modified, or whose column
// grants are. A regrant revokes the column privileges of the table too, so it lists
// every column grant the manifest declares for that table.
func (p *planner) tableGrants() {
	newTables := p.c.NewGrants[privilege.Table]
	modifiedTables := p.c.ModifiedGrants[privilege.Table]

	for _, g := range p.c.Manifest.GrantsIn(privilege.Table) {
		created, modified := p.pendingColumns(g)
		pending := len(created)+len(modified) > 0
		switch {
		case containsGrant(newTables, g), pending && containsGrant(p.c.AbsentGrants[privilege.Table], g):
			// no live table row, so there is nothing to revoke on the table
			cols := append(append([]schema.Grant(nil), created...), modified...)
			changes := append([]Change{{Grants, Created, g.Describe()}}, p.columnChanges(created, modified)...)
			p.add([]string{generator.Grant(g, p.columnClauses(cols))}, changes...)
		case containsGrant(modifiedTables, g) || pending:
			var cols []schema.Grant
			for _, col := range p.c.Manifest.GrantsIn(privilege.Column) {
				if col.SameTable(g) {
					cols = append(cols, col)
				}
			}
			changes := append([]Change{{Grants, Modified, g.Describe()}}, p.columnChanges(created, modified)...)
			p.add(generator.Regrant(g, p.columnClauses(cols)), changes...)
		}
	}
}

func (p *planner) hasTableGrant(col schema.Grant) bool {
	for _, g := range p.c.Manifest.GrantsIn(privilege.Table) {
		if g.SameTable(col) {
			return true
		}
	}
	return false
}

// columnGrants handles column grants on tables the manifest declares no table grant for
func (p *planner) columnGrants() {
	for _, col := range p.c.NewGrants[privilege.Column] {
		if p.hasTableGrant(col) || len(generator.ColumnPrivileges(col, p.c.Scopes.Column)) == 0 {
			continue
		}
		p.add([]string{generator.GrantColumns(col, p.c.Scopes.Column)}, Change{Grants, Created, col.Describe()})
	}
	for _, col := range p.c.ModifiedGrants[privilege.Column] {
		if p.hasTableGrant(col) {
			continue
		}
		var statements []string
		if revoke := generator.RevokeColumns(col, col.Live); revoke != "" {
			statements = append(statements, revoke)
		}
		if len(generator.ColumnPrivileges(col, p.c.Scopes.Column)) > 0 {
			statements = append(statements, generator.GrantColumns(col, p.c.Scopes.Column))
		}
		if len(statements) > 0 {
			p.add(statements, Change{Grants, Modified, col.Describe()})
		}
	}
}
