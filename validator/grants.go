package validator

import (
	"strings"

	"github.com/ridoystarlord/dbenforce/loader"
	"github.com/ridoystarlord/dbenforce/privilege"
	"github.com/ridoystarlord/dbenforce/schema"
)

const defaultHost = "localhost"

type account struct {
	user, host string
}

func (n *normalizer) users(raw *loader.Manifest) error {
	var (
		grants   []schema.Grant
		accounts []account
		secrets  = map[account]schema.Grant{}
	)
	for _, u := range raw.Users {
		rows, err := n.expandUser(u)
		if err != nil {
			return err
		}
		for _, host := range hostsOf(u) {
			acc := account{strings.TrimSpace(u.Name), host}
			if _, seen := secrets[acc]; !seen {
				accounts = append(accounts, acc)
			}
			secrets[acc] = schema.Grant{Password: u.Password, PasswordHash: passwordHash(u)}
		}
		for _, g := range rows {
			if len(g.Privileges) == 0 {
				n.warn(TypePrivilege, g.Account(), "%s privilege block grants nothing, discarding", g.Scope)
				continue
			}
			grants = append(grants, g)
		}
	}

	grants = n.mergeGlobals(grants)
	grants = n.dropShadowedColumns(grants)

	for _, acc := range accounts {
		if hasGlobal(grants, acc) {
			continue
		}
		secret := secrets[acc]
		grants = append(grants, schema.Grant{
			User:         acc.user,
			Host:         acc.host,
			EscapedHost:  schema.EscapeLike(acc.host),
			Password:     secret.Password,
			PasswordHash: secret.PasswordHash,
			Scope:        privilege.Global,
			Privileges:   privilege.Set{privilege.Usage},
		})
	}

	n.out.Grants = grants
	return nil
}

func hostsOf(u loader.User) []string {
	var hosts []string
	for _, h := range u.HostList() {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		hosts = []string{defaultHost}
	}
	return hosts
}

// passwordHash is only used when no plaintext password is given
func passwordHash(u loader.User) string {
	if u.Password != "" {
		return ""
	}
	return u.PasswordHash
}

// expandUser yields one grant per host and privilege block, len(hosts)*len(blocks) in total.
// Rows whose privilege set ended up empty are kept so the caller decides on them.
func (n *normalizer) expandUser(u loader.User) ([]schema.Grant, error) {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return nil, fail(TypeUser, "", "user has no 'name' parameter defined")
	}
	hosts := hostsOf(u)

	blocks := u.Privileges
	if len(blocks) == 0 {
		n.warn(TypeUser, name, "user has no 'privileges' parameter defined, assuming global USAGE")
		blocks = []loader.Privilege{{Scope: string(privilege.Global), Type: loader.List{string(privilege.Usage)}}}
	}

	var rows []schema.Grant
	for _, host := range hosts {
		for _, b := range blocks {
			g, err := n.expandBlock(u, name, host, b)
			if err != nil {
				return nil, err
			}
			rows = append(rows, g)
		}
	}
	return rows, nil
}

func inferScope(b loader.Privilege) privilege.Scope {
	switch {
	case b.Procedure != "":
		return privilege.Procedure
	case b.Column != "":
		return privilege.Column
	case b.Table != "":
		return privilege.Table
	case b.Database != "":
		return privilege.Database
	}
	return privilege.Global
}

func (n *normalizer) expandBlock(u loader.User, name, host string, b loader.Privilege) (schema.Grant, error) {
	g := schema.Grant{
		User:         name,
		Host:         host,
		EscapedHost:  schema.EscapeLike(host),
		Password:     u.Password,
		PasswordHash: passwordHash(u),
		Database:     strings.TrimSpace(b.Database),
		Table:        strings.TrimSpace(b.Table),
		Column:       strings.TrimSpace(b.Column),
		Procedure:    strings.TrimSpace(b.Procedure),
	}

	if strings.TrimSpace(b.Scope) != "" {
		scope, ok := privilege.ParseScope(b.Scope)
		if ok {
			g.Scope = scope
		} else {
			n.warn(TypePrivilege, g.Account(), "privilege scope '%s' is not recognized, inferring it", b.Scope)
		}
	}
	if g.Scope == "" {
		g.Scope = inferScope(b)
	}
	if err := checkQualifiers(g); err != nil {
		return g, err
	}

	if len(b.Type) == 0 {
		n.warn(TypePrivilege, g.Account(), "%s privilege block has no 'type' parameter defined, assuming USAGE", g.Scope)
		g.Privileges = privilege.Set{privilege.Usage}
		return g, nil
	}

	set, unknown := privilege.ParseTokens(b.Type)
	for _, tok := range unknown {
		n.warn(TypePrivilege, g.Account(), "%s privilege type '%s' is not permitted, ignoring", g.Scope, tok)
	}
	g.Privileges = canonical(set)
	return g, nil
}

func checkQualifiers(g schema.Grant) error {
	var missing []string
	need := func(field, value string) {
		if value == "" {
			missing = append(missing, field)
		}
	}
	switch g.Scope {
	case privilege.Database:
		need("database", g.Database)
	case privilege.Table:
		need("database", g.Database)
		need("table", g.Table)
	case privilege.Column:
		need("database", g.Database)
		need("table", g.Table)
		need("column", g.Column)
	case privilege.Procedure:
		need("database", g.Database)
		need("procedure", g.Procedure)
	}
	if len(missing) > 0 {
		return fail(TypePrivilege, g.Account(), "%s privilege needs '%s'", g.Scope, strings.Join(missing, "', '"))
	}
	return nil
}

// canonical keeps ALL PRIVILEGES alone (besides GRANT OPTION) and drops USAGE
// once a real privilege is present.
func canonical(set privilege.Set) privilege.Set {
	if set.Has(privilege.AllPrivileges) {
		out := privilege.Set{privilege.AllPrivileges}
		if set.WantsGrantOption() {
			out = out.Add(privilege.GrantOption)
		}
		return out
	}
	if set.Has(privilege.Usage) && len(set) > 1 {
		return set.Without(privilege.Usage)
	}
	return set
}

// mergeGlobals folds repeated global blocks of one account into the first one
func (n *normalizer) mergeGlobals(grants []schema.Grant) []schema.Grant {
	first := map[account]int{}
	var out []schema.Grant
	for _, g := range grants {
		if g.Scope != privilege.Global {
			out = append(out, g)
			continue
		}
		acc := account{g.User, g.Host}
		i, seen := first[acc]
		if !seen {
			first[acc] = len(out)
			out = append(out, g)
			continue
		}
		n.warn(TypePrivilege, g.Account(), "more than one global privilege block, merging them")
		out[i].Privileges = canonical(out[i].Privileges.Union(g.Privileges))
	}
	return out
}

// dropShadowedColumns removes column grants already covered by ALL PRIVILEGES on the table
func (n *normalizer) dropShadowedColumns(grants []schema.Grant) []schema.Grant {
	var out []schema.Grant
	for _, g := range grants {
		if g.Scope == privilege.Column && tableHasAll(grants, g) {
			n.warn(TypePrivilege, g.Account(), "user has ALL PRIVILEGES on table %s.%s, skipping privileges on column %s", g.Database, g.Table, g.Column)
			continue
		}
		out = append(out, g)
	}
	return out
}

func tableHasAll(grants []schema.Grant, col schema.Grant) bool {
	for _, t := range grants {
		if t.Scope == privilege.Table && t.SameTable(col) && t.Privileges.Has(privilege.AllPrivileges) {
			return true
		}
	}
	return false
}

func hasGlobal(grants []schema.Grant, acc account) bool {
	for _, g := range grants {
		if g.Scope == privilege.Global && g.User == acc.user && g.Host == acc.host {
			return true
		}
	}
	return false
}
