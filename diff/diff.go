package diff

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ridoystarlord/dbenforce/introspect"
	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

// Classification partitions a manifest against the live server. Entities in neither
// the New nor the Modified list of their category are satisfied. Every entry is a copy
// of the manifest record; classifier annotations (LiveType, LiveName, NameTaken, Live)
// are only written to these copies.
type Classification struct {
	NewDatabases      []schema.Database
	ModifiedDatabases []schema.Database
	NewTables         []schema.Table
	ModifiedTables    []schema.Table
	NewColumns        []schema.Column
	ModifiedColumns   []schema.Column
	NewIndexes        []schema.Index
	ModifiedIndexes   []schema.Index
	NewGrants         map[privilege.Scope][]schema.Grant
	ModifiedGrants    map[privilege.Scope][]schema.Grant

	// AbsentGrants are USAGE grants below global scope with no live row. They need no
	// statement of their own, but column grants of an absent table grant cannot be
	// corrected by revoking on that table.
	AbsentGrants map[privilege.Scope][]schema.Grant

	// Manifest is the classified manifest, needed to find satisfied entities
	Manifest *schema.Manifest
	// Scopes are the server's allowed privileges per scope
	Scopes *privilege.Scopes
}

// Satisfied reports whether nothing needs to change
func (c *Classification) Satisfied() bool {
	if len(c.NewDatabases)+len(c.ModifiedDatabases)+len(c.NewTables)+len(c.ModifiedTables)+
		len(c.NewColumns)+len(c.ModifiedColumns)+len(c.NewIndexes)+len(c.ModifiedIndexes) > 0 {
		return false
	}
	for _, scope := range privilege.ScopeOrder {
		if len(c.NewGrants[scope])+len(c.ModifiedGrants[scope]) > 0 {
			return false
		}
	}
	return true
}

// Pending counts the entities that need a change
func (c *Classification) Pending() int {
	n := len(c.NewDatabases) + len(c.ModifiedDatabases) + len(c.NewTables) + len(c.ModifiedTables) +
		len(c.NewColumns) + len(c.ModifiedColumns) + len(c.NewIndexes) + len(c.ModifiedIndexes)
	for _, scope := range privilege.ScopeOrder {
		n += len(c.NewGrants[scope]) + len(c.ModifiedGrants[scope])
	}
	return n
}

// Classify reads the live state of every category m declares, one query per category,
// and partitions m's entities into new, modified and satisfied. It never writes.
func Classify(ctx context.Context, in *introspect.Inspector, m *schema.Manifest) (*Classification, error) {
	c := &Classification{
		NewGrants:      map[privilege.Scope][]schema.Grant{},
		ModifiedGrants: map[privilege.Scope][]schema.Grant{},
		AbsentGrants:   map[privilege.Scope][]schema.Grant{},
		Manifest:       m,
	}

	steps := []func(context.Context, *introspect.Inspector, *schema.Manifest) error{
		c.databases,
		c.tables,
		c.columns,
		c.indexes,
		c.grants,
	}
	for _, step := range steps {
		if err := step(ctx, in, m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Names compare case-insensitively, as the LIKE predicates that selected the rows do
func same(a, b string) bool {
	return strings.EqualFold(a, b)
}

func (c *Classification) databases(ctx context.Context, in *introspect.Inspector, m *schema.Manifest) error {
	existing, err := in.Databases(ctx, m.Databases)
	if err != nil {
		return err
	}
	for _, db := range m.Databases {
		found, matches := false, false
		for _, e := range existing {
			if same(e.Name, db.Name) {
				found = true
				matches = matches || e.Matches
			}
		}
		switch {
		case !found:
			c.NewDatabases = append(c.NewDatabases, db)
		case !matches:
			c.ModifiedDatabases = append(c.ModifiedDatabases, db)
		}
	}
	return nil
}

func (c *Classification) tables(ctx context.Context, in *introspect.Inspector, m *schema.Manifest) error {
	existing, err := in.Tables(ctx, m.Tables)
	if err != nil {
		return err
	}
	for _, t := range m.Tables {
		found, matches := false, false
		for _, e := range existing {
			if same(e.Database, t.Database) && same(e.Name, t.Name) {
				found = true
				matches = matches || e.Matches
			}
		}
		switch {
		case !found:
			c.NewTables = append(c.NewTables, t)
		case !matches:
			c.ModifiedTables = append(c.ModifiedTables, t)
		}
	}
	return nil
}

func (c *Classification) columns(ctx context.Context, in *introspect.Inspector, m *schema.Manifest) error {
	existing, err := in.Columns(ctx, m.Columns)
	if err != nil {
		return err
	}
	for _, col := range m.Columns {
		var live *introspect.ExistingColumn
		for i, e := range existing {
			if same(e.Database, col.Database) && same(e.Table, col.Table) && same(e.Name, col.Name) {
				live = &existing[i]
				break
			}
		}
		switch {
		case live == nil:
			c.NewColumns = append(c.NewColumns, col)
		case !live.Matches:
			if col.Type == "" {
				col.LiveType = live.Type
			}
			c.ModifiedColumns = append(c.ModifiedColumns, col)
		}
	}
	return nil
}

// indexMatches reports whether row is part of a live index with idx's definition.
// The row's existence flag only says it matched some desired index, so the type and
// name are checked again for this one.
func indexMatches(idx schema.Index, row introspect.ExistingIndexColumn) bool {
	if !row.Matches {
		return false
	}
	if idx.Name != "" && !same(row.IndexName, idx.Name) {
		return false
	}
	primary := same(row.IndexName, "PRIMARY")
	switch idx.Type {
	case schema.IndexPrimary:
		return primary
	case schema.IndexUnique:
		return !primary && !row.NonUnique
	default:
		return !primary && row.NonUnique
	}
}

func covers(idx schema.Index, column string) bool {
	for _, c := range idx.Columns {
		if same(c, column) {
			return true
		}
	}
	return false
}

// satisfiedBy returns the live index names that hold every column of idx with the
// right definition.
func satisfiedBy(idx schema.Index, rows []introspect.ExistingIndexColumn) map[string]bool {
	held := map[string]map[string]bool{}
	for _, r := range rows {
		if !covers(idx, r.Column) || !indexMatches(idx, r) {
			continue
		}
		name := strings.ToLower(r.IndexName)
		if held[name] == nil {
			held[name] = map[string]bool{}
		}
		held[name][strings.ToLower(r.Column)] = true
	}
	out := map[string]bool{}
	for name, cols := range held {
		if len(cols) == len(idx.Columns) {
			out[name] = true
		}
	}
	return out
}

func (c *Classification) indexes(ctx context.Context, in *introspect.Inspector, m *schema.Manifest) error {
	existing, err := in.Indexes(ctx, m.Indexes)
	if err != nil {
		return err
	}

	// Group rows per table for easier lookup
	byTable := map[string][]introspect.ExistingIndexColumn{}
	for _, r := range existing {
		key := strings.ToLower(r.Database + "." + r.Table)
		byTable[key] = append(byTable[key], r)
	}

	// Live indexes another desired index of the same table relies on are never dropped
	keep := map[string]map[string]bool{}
	for _, idx := range m.Indexes {
		key := strings.ToLower(idx.TableKey())
		if keep[key] == nil {
			keep[key] = map[string]bool{}
		}
		for name := range satisfiedBy(idx, byTable[key]) {
			keep[key][name] = true
		}
	}

	for _, idx := range m.Indexes {
		key := strings.ToLower(idx.TableKey())
		rows := byTable[key]
		if len(satisfiedBy(idx, rows)) > 0 {
			continue
		}

		covered := false
		var candidates []string
		for _, r := range rows {
			if same(r.IndexName, idx.AssignedName) {
				idx.NameTaken = true
			}
			if !covers(idx, r.Column) {
				continue
			}
			covered = true
			if indexMatches(idx, r) || keep[key][strings.ToLower(r.IndexName)] {
				continue
			}
			if same(r.IndexName, "PRIMARY") && idx.Type != schema.IndexPrimary {
				continue
			}
			candidates = append(candidates, r.IndexName)
		}

		if !covered {
			c.NewIndexes = append(c.NewIndexes, idx)
			continue
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			idx.LiveName = candidates[0]
		}
		if idx.NameTaken && keep[key][strings.ToLower(idx.AssignedName)] {
			return fmt.Errorf("index %s: name '%s' is used by a live index another manifest index relies on",
				idx.TableKey(), idx.AssignedName)
		}
		c.ModifiedIndexes = append(c.ModifiedIndexes, idx)
	}
	return nil
}

func (c *Classification) grants(ctx context.Context, in *introspect.Inspector, m *schema.Manifest) error {
	c.Scopes = privilege.ParseScopes(nil)
	if len(m.GrantsIn(privilege.Table))+len(m.GrantsIn(privilege.Procedure)) > 0 {
		scopes, err := in.Scopes(ctx)
		if err != nil {
			return err
		}
		c.Scopes = scopes
	}

	for _, scope := range privilege.ScopeOrder {
		desired := m.GrantsIn(scope)
		existing, err := in.Grants(ctx, scope, desired)
		if err != nil {
			return err
		}
		for _, g := range desired {
			live := findGrant(g, existing)
			if live == nil {
				// Nothing is stored for USAGE below the global level, so there is nothing to create
				if scope != privilege.Global && g.Privileges.IsUsage() {
					c.AbsentGrants[scope] = append(c.AbsentGrants[scope], g)
					continue
				}
				c.NewGrants[scope] = append(c.NewGrants[scope], g)
				continue
			}
			if c.grantModify(scope, g, *live) {
				g.Live = live.Privileges
				c.ModifiedGrants[scope] = append(c.ModifiedGrants[scope], g)
			}
		}
	}
	return nil
}

func (c *Classification) grantModify(scope privilege.Scope, g schema.Grant, live introspect.ExistingGrant) bool {
	switch scope {
	case privilege.Global:
		if !live.PasswordMatch {
			return true
		}
		return privilege.CompareFlags(live.Flags, g.Privileges).Modify(g.Privileges)
	case privilege.Database:
		return privilege.CompareFlags(live.Flags, g.Privileges).Modify(g.Privileges)
	case privilege.Column:
		// GRANT OPTION is a table-level bit; column rows never carry it
		return !privilege.ListMatches(live.Privileges, g.Privileges.Without(privilege.GrantOption), c.Scopes.Column)
	default:
		return !privilege.ListMatches(live.Privileges, g.Privileges, c.Scopes.Allowed(scope))
	}
}

// findGrant matches g to its live row. The user is case-sensitive, the host and object
// names are not.
func findGrant(g schema.Grant, existing []introspect.ExistingGrant) *introspect.ExistingGrant {
	for i, e := range existing {
		if e.User != g.User || !same(e.Host, g.Host) {
			continue
		}
		switch g.Scope {
		case privilege.Database:
			if !same(e.Database, g.Database) {
				continue
			}
		case privilege.Table:
			if !same(e.Database, g.Database) || !same(e.Table, g.Table) {
				continue
			}
		case privilege.Column:
			if !same(e.Database, g.Database) || !same(e.Table, g.Table) || !same(e.Column, g.Column) {
				continue
			}
		case privilege.Procedure:
			if !same(e.Database, g.Database) || !same(e.Procedure, g.Procedure) {
				continue
			}
		}
		return &existing[i]
	}
	return nil
}
