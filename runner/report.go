package runner

import (
	"strings"

	"github.com/ridoystarlord/dbenforce/schema"
)

// Category groups report entries
type Category string

const (
	Databases Category = "Databases"
	Tables    Category = "Tables"
	Columns   Category = "Columns"
	Indexes   Category = "Indexes"
	Grants    Category = "Grants"
)

var categoryOrder = []Category{Databases, Tables, Columns, Indexes, Grants}

// Action is how one entity was changed
type Action string

const (
	Created  Action = "created"
	Modified Action = "modified"
)

// Change names one entity a step touches
type Change struct {
	Category Category
	Action   Action
	Target   string
}

// NothingToDo is the notice for a manifest the server already satisfies
const NothingToDo = "All entities of the manifest already exist in the database. No changes made."

// Report is the outcome of one apply: what was created or modified, and every
// statement executed, in order.
type Report struct {
	Changes    []Change
	Statements []string
}

func (r *Report) Empty() bool {
	return r == nil || len(r.Statements) == 0
}

// Targets lists the entities of one category and action in execution order
func (r *Report) Targets(category Category, action Action) []string {
	var out []string
	for _, c := range r.Changes {
		if c.Category == category && c.Action == action {
			out = append(out, c.Target)
		}
	}
	return out
}

// String renders the notice shown after an apply
func (r *Report) String() string {
	if r.Empty() {
		return NothingToDo
	}
	var b strings.Builder
	for _, category := range categoryOrder {
		for _, action := range []Action{Created, Modified} {
			targets := r.Targets(category, action)
			if len(targets) == 0 {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(string(category) + " " + string(action) + ":")
			for _, t := range targets {
				b.WriteString("\n  " + t)
			}
		}
	}
	return b.String()
}

func databaseTarget(db schema.Database) string { return db.Name }

func tableTarget(t schema.Table) string { return t.Key() }

func columnTarget(c schema.Column) string { return c.Key() }

func indexTarget(idx schema.Index) string {
	return idx.Key() + " (" + strings.Join(idx.Columns, ", ") + ")"
}
