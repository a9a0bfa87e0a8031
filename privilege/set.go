package privilege

import "strings"

// Set is an ordered list of privileges without duplicates
type Set []Privilege

func NewSet(privs ...Privilege) Set {
	var s Set
	for _, p := range privs {
		s = s.Add(p)
	}
	return s
}

func (s Set) Has(p Privilege) bool {
	for _, have := range s {
		if have == p {
			return true
		}
	}
	return false
}

// Add returns s with p appended unless already present
func (s Set) Add(p Privilege) Set {
	if s.Has(p) {
		return s
	}
	return append(s, p)
}

// Union returns s followed by every member of other not already in s
func (s Set) Union(other Set) Set {
	out := append(Set(nil), s...)
	for _, p := range other {
		out = out.Add(p)
	}
	return out
}

// Without returns a copy of s with p removed
func (s Set) Without(p Privilege) Set {
	var out Set
	for _, have := range s {
		if have != p {
			out = append(out, have)
		}
	}
	return out
}

// Equal is order-insensitive set equality
func (s Set) Equal(other Set) bool {
	for _, p := range s {
		if !other.Has(p) {
			return false
		}
	}
	for _, p := range other {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// IsUsage reports whether the set grants nothing beyond USAGE
func (s Set) IsUsage() bool {
	return len(s) == 0 || (len(s) == 1 && s[0] == Usage)
}

// WantsGrantOption reports whether GRANT OPTION is requested
func (s Set) WantsGrantOption() bool {
	return s.Has(GrantOption)
}

// Tokens renders the upper-case SQL privilege tokens, GRANT OPTION excluded.
// An empty result means USAGE.
func (s Set) Tokens() []string {
	var out []string
	for _, p := range s {
		if p == GrantOption {
			continue
		}
		out = append(out, strings.ToUpper(string(p)))
	}
	if len(out) == 0 {
		out = []string{strings.ToUpper(string(Usage))}
	}
	return out
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = strings.ToUpper(string(p))
	}
	return strings.Join(parts, ", ")
}
