package validator

import (
	"strings"

	"github.com/ridoystarlord/dbenforce/loader"
	"github.com/ridoystarlord/dbenforce/schema"
)

// parseIndexType accepts the pri*, uni*, index and mul spellings
func parseIndexType(raw string) (schema.IndexType, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(t, "pri"):
		return schema.IndexPrimary, true
	case strings.HasPrefix(t, "uni"):
		return schema.IndexUnique, true
	case t == "index" || t == "mul":
		return schema.IndexPlain, true
	}
	return "", false
}

// assignedName is the explicit name, PRIMARY, or <firstColumn>_<TYPE>
func assignedName(typ schema.IndexType, name string, columns []string) string {
	switch {
	case name != "":
		return name
	case typ == schema.IndexPrimary:
		return "PRIMARY"
	}
	return columns[0] + "_" + strings.ToUpper(string(typ))
}

func (n *normalizer) indexes(raw *loader.Manifest) error {
	for _, idx := range raw.Indexes {
		db, table := strings.TrimSpace(idx.Database), strings.TrimSpace(idx.Table)
		entity := db + "." + table + "." + idx.Name
		if db == "" || table == "" {
			return fail(TypeIndex, entity, "index needs both 'database' and 'table'")
		}

		cols := idx.ColumnList()
		if len(cols) == 0 {
			return fail(TypeIndex, entity, "index has no 'columns' parameter defined")
		}

		typ := schema.IndexPlain
		if strings.TrimSpace(idx.Type) != "" {
			var ok bool
			if typ, ok = parseIndexType(idx.Type); !ok {
				return fail(TypeIndex, entity, "index type is wrong: '%s'", idx.Type)
			}
		}

		name := strings.TrimSpace(idx.Name)
		n.out.Indexes = append(n.out.Indexes, schema.Index{
			Database:     db,
			Table:        table,
			Type:         typ,
			Columns:      append([]string(nil), cols...),
			Name:         name,
			AssignedName: assignedName(typ, name, cols),
		})
	}
	return nil
}

// indexCovers reports whether some index on db.table lists column
func (n *normalizer) indexCovers(db, table, column string) bool {
	for _, idx := range n.out.Indexes {
		if idx.Database != db || idx.Table != table {
			continue
		}
		for _, c := range idx.Columns {
			if c == column {
				return true
			}
		}
	}
	return false
}

func (n *normalizer) columns(raw *loader.Manifest) error {
	for _, c := range raw.Columns {
		col := schema.Column{
			Database: strings.TrimSpace(c.Database),
			Table:    strings.TrimSpace(c.Table),
			Name:     strings.TrimSpace(c.Name),
			Type:     strings.TrimSpace(c.Type),
		}
		if col.Database == "" || col.Table == "" || col.Name == "" {
			return fail(TypeColumn, col.Key(), "column needs 'database', 'table' and 'name'")
		}

		switch strings.ToUpper(strings.TrimSpace(string(c.Null))) {
		case "":
		case "YES", "TRUE":
			col.Null = schema.NullYes
		case "NO", "FALSE":
			col.Null = schema.NullNo
		default:
			n.warn(TypeColumn, col.Key(), "'null' parameter is wrong: '%s', omitting", c.Null)
		}

		switch {
		case c.DefaultNull:
			col.Default = schema.Default{Set: true, Null: true}
		case c.Default != nil && strings.EqualFold(strings.TrimSpace(c.Default.String()), "null"):
			col.Default = schema.Default{Set: true, Null: true}
		case c.Default != nil:
			col.Default = schema.Default{Set: true, Value: c.Default.String()}
		}

		switch strings.ToLower(strings.TrimSpace(c.Extra)) {
		case "":
		case string(schema.ExtraAutoIncrement):
			col.Extra = schema.ExtraAutoIncrement
		default:
			n.warn(TypeColumn, col.Key(), "'extra' parameter '%s' is not supported, ignoring", c.Extra)
		}

		if strings.TrimSpace(c.Index) != "" {
			typ, ok := parseIndexType(c.Index)
			if !ok {
				return fail(TypeColumn, col.Key(), "'index' parameter is wrong: '%s'", c.Index)
			}
			if n.indexCovers(col.Database, col.Table, col.Name) {
				n.warn(TypeColumn, col.Key(), "index already defined in indexes, ignoring column's 'index' parameter")
			} else {
				n.out.Indexes = append(n.out.Indexes, schema.Index{
					Database:     col.Database,
					Table:        col.Table,
					Type:         typ,
					Columns:      []string{col.Name},
					AssignedName: assignedName(typ, "", []string{col.Name}),
				})
			}
		}

		n.out.Columns = append(n.out.Columns, col)
	}
	return nil
}

// autoIncrement runs once every index shortcut has been merged
func (n *normalizer) autoIncrement(*loader.Manifest) error {
	for i, col := range n.out.Columns {
		if col.Extra != schema.ExtraAutoIncrement {
			continue
		}
		if col.Null == schema.NullYes {
			return fail(TypeColumn, col.Key(), "column is defined as AUTO_INCREMENT, 'null' parameter can not be 'YES'")
		}
		if col.Default.Set {
			return fail(TypeColumn, col.Key(), "column is defined as AUTO_INCREMENT, it can not have 'default_value'")
		}
		if !n.indexCovers(col.Database, col.Table, col.Name) {
			return fail(TypeColumn, col.Key(), "column is defined as AUTO_INCREMENT, but has no index defined")
		}
		if col.Null == schema.NullUnspecified {
			n.out.Columns[i].Null = schema.NullNo
		}
	}
	return nil
}
