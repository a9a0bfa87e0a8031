package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ridoystarlord/dbenforce/loader"
	"github.com/ridoystarlord/dbenforce/schema"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Entity types a ValidationError can refer to
const (
	TypeDatabase  = "database"
	TypeTable     = "table"
	TypeColumn    = "column"
	TypeIndex     = "index"
	TypeUser      = "user"
	TypePrivilege = "privilege"
)

// ValidationError represents a validation problem with details.
// Errors abort normalization, warnings have a default substituted.
type ValidationError struct {
	Type     string `json:"type"`
	Entity   string `json:"entity,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (e ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s '%s': %s", e.Type, e.Entity, e.Message)
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

// Validate runs Normalize and folds the outcome into a ValidationResult
func Validate(raw *loader.Manifest) (*ValidationResult, *schema.Manifest) {
	m, warnings, err := Normalize(raw)
	result := &ValidationResult{
		Valid:    err == nil,
		Errors:   []ValidationError{},
		Warnings: warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []ValidationError{}
	}
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			result.Errors = append(result.Errors, *ve)
		} else {
			result.Errors = append(result.Errors, ValidationError{Type: "manifest", Message: err.Error(), Severity: SeverityError})
		}
	}
	return result, m
}

type normalizer struct {
	out      *schema.Manifest
	warnings []ValidationError
}

// Normalize validates raw and flattens it into entity records. The returned warnings
// describe every default that was substituted; a non-nil error is a *ValidationError.
func Normalize(raw *loader.Manifest) (*schema.Manifest, []ValidationError, error) {
	n := &normalizer{out: &schema.Manifest{}}
	if raw == nil {
		return n.out, nil, nil
	}

	steps := []func(*loader.Manifest) error{
		n.databases,
		n.tables,
		n.indexes,
		n.columns,
		n.autoIncrement,
		n.tableColumns,
		n.users,
	}
	for _, step := range steps {
		if err := step(raw); err != nil {
			return nil, n.warnings, err
		}
	}
	return n.out, n.warnings, nil
}

func (n *normalizer) warn(typ, entity, format string, args ...any) {
	n.warnings = append(n.warnings, ValidationError{
		Type:     typ,
		Entity:   entity,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

func fail(typ, entity, format string, args ...any) error {
	return &ValidationError{
		Type:     typ,
		Entity:   entity,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	}
}

// charsetOf derives the character set from a collation name prefix
func charsetOf(collation string) string {
	return strings.SplitN(collation, "_", 2)[0]
}

func (n *normalizer) databases(raw *loader.Manifest) error {
	for _, d := range raw.Databases {
		db := schema.Database{
			Name:         strings.TrimSpace(d.Name),
			CharacterSet: strings.TrimSpace(d.CharacterSet),
			Collation:    strings.TrimSpace(d.Collation),
		}
		if db.Name == "" {
			return fail(TypeDatabase, "", "database has no 'name' parameter defined")
		}
		if db.Collation != "" && db.CharacterSet == "" {
			db.CharacterSet = charsetOf(db.Collation)
			n.warn(TypeDatabase, db.Name, "COLLATION defined, but no CHARACTER SET. Assuming '%s'", db.CharacterSet)
		}
		n.out.Databases = append(n.out.Databases, db)
	}
	return nil
}

func (n *normalizer) tables(raw *loader.Manifest) error {
	for _, t := range raw.Tables {
		table := schema.Table{
			Database:     strings.TrimSpace(t.Database),
			Name:         strings.TrimSpace(t.Name),
			Engine:       strings.TrimSpace(t.Engine),
			CharacterSet: strings.TrimSpace(t.CharacterSet),
			Collation:    strings.TrimSpace(t.Collation),
		}
		if table.Database == "" || table.Name == "" {
			return fail(TypeTable, table.Key(), "table needs both 'database' and 'name'")
		}
		if table.Collation != "" && table.CharacterSet == "" {
			table.CharacterSet = charsetOf(table.Collation)
			n.warn(TypeTable, table.Key(), "COLLATION defined, but no CHARACTER SET. Assuming '%s'", table.CharacterSet)
		}
		n.out.Tables = append(n.out.Tables, table)
	}
	return nil
}

// tableColumns enforces that every declared table has at least one column
func (n *normalizer) tableColumns(*loader.Manifest) error {
	for _, t := range n.out.Tables {
		found := false
		for _, c := range n.out.Columns {
			if c.Database == t.Database && c.Table == t.Name {
				found = true
				break
			}
		}
		if !found {
			return fail(TypeTable, t.Key(), "table has no columns defined")
		}
	}
	return nil
}
