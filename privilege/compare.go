package privilege

import "strings"

const grantFlag = "Grant_priv"

// FlagResult summarizes one mysql.user or mysql.db row against a desired set.
type FlagResult struct {
	// All is true when every flag except Grant_priv is Y.
	All bool
	// None is true when no flag is Y.
	None bool
	// Grant is true when Grant_priv is Y.
	Grant bool
	// MustModify is true when a desired privilege is N or an undesired one is Y.
	MustModify bool
}

// CompareFlags reads every *_priv column of row. Flag columns unknown to the catalog
// count as undesired.
func CompareFlags(row map[string]string, desired Set) FlagResult {
	res := FlagResult{All: true, None: true}
	for key, value := range row {
		if !strings.HasSuffix(key, "_priv") {
			continue
		}
		switch value {
		case "N":
			if key != grantFlag {
				res.All = false
			}
		case "Y":
			res.None = false
		}
		if key == grantFlag && value == "Y" {
			res.Grant = true
		}

		p, known := ForFlagColumn(key)
		if known && desired.Has(p) {
			if value == "N" {
				res.MustModify = true
			}
		} else if value == "Y" {
			res.MustModify = true
		}
	}
	return res
}

// Modify decides whether a global or database grant needs correcting
func (r FlagResult) Modify(desired Set) bool {
	switch {
	case desired.IsUsage():
		return !r.None
	case desired.Has(AllPrivileges):
		if !r.All {
			return true
		}
		return desired.WantsGrantOption() != r.Grant
	default:
		return r.MustModify
	}
}

// ParseTableList parses mysql.tables_priv.Table_priv or mysql.procs_priv.Proc_priv.
// Both spellings of the grant privilege become GRANT OPTION.
func ParseTableList(raw string) Set {
	var s Set
	for _, part := range splitList(raw) {
		p := Privilege(strings.ToLower(strings.TrimSpace(part)))
		if p == "grant" {
			p = GrantOption
		}
		s = s.Add(p)
	}
	return s
}

// ParseProcedureList behaves exactly like ParseTableList
func ParseProcedureList(raw string) Set {
	return ParseTableList(raw)
}

// ParseColumnList parses mysql.columns_priv.Column_priv; tokens are only lower-cased
func ParseColumnList(raw string) Set {
	var s Set
	for _, part := range splitList(raw) {
		s = s.Add(Privilege(strings.ToLower(strings.TrimSpace(part))))
	}
	return s
}

// Expand resolves the capability sentinels of desired against a scope's allowed set.
// ALL PRIVILEGES becomes every allowed privilege except GRANT OPTION, plus GRANT OPTION
// when desired; USAGE becomes the empty set.
func Expand(desired Set, allowed Set) Set {
	switch {
	case desired.Has(AllPrivileges):
		out := allowed.Without(GrantOption)
		if desired.WantsGrantOption() {
			out = out.Add(GrantOption)
		}
		return out
	case desired.IsUsage():
		return Set{}
	default:
		return append(Set(nil), desired...)
	}
}

// ListMatches reports whether the live list equals the expanded desired set
func ListMatches(live Set, desired Set, allowed Set) bool {
	return live.Equal(Expand(desired, allowed))
}
