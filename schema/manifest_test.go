package schema

import (
	"testing"

	"github.com/ridoystarlord/dbenforce/privilege"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Databases: []Database{{Name: "testdb"}},
		Tables:    []Table{{Database: "testdb", Name: "test", Engine: "InnoDB"}},
		Columns: []Column{{
			Database: "testdb", Table: "test", Name: "id", Type: "INT(11)",
			Null: NullNo, Extra: ExtraAutoIncrement,
		}},
		Indexes: []Index{{
			Database: "testdb", Table: "test", Type: IndexPrimary,
			Columns: []string{"id"}, AssignedName: "PRIMARY",
		}},
		Grants: []Grant{{
			User: "u", Host: "localhost", EscapedHost: "localhost",
			Scope: privilege.Global, Privileges: privilege.Set{privilege.Usage},
		}},
	}
}

func TestIdentityIsStable(t *testing.T) {
	a, err := sampleManifest().Identity()
	if err != nil {
		t.Fatalf("Identity() error: %v", err)
	}
	b, err := sampleManifest().Identity()
	if err != nil {
		t.Fatalf("Identity() error: %v", err)
	}
	if a != b {
		t.Errorf("identity differs between equal manifests: %s vs %s", a, b)
	}
}

func TestIdentityIgnoresAnnotations(t *testing.T) {
	plain := sampleManifest()
	annotated := sampleManifest()
	annotated.Columns[0].LiveType = "int(10)"
	annotated.Indexes[0].LiveName = "id"
	annotated.Indexes[0].NameTaken = true
	annotated.Grants[0].Live = privilege.Set{"select"}

	a, _ := plain.Identity()
	b, _ := annotated.Identity()
	if a != b {
		t.Errorf("classifier annotations changed the identity")
	}
}

func TestIdentityTracksContent(t *testing.T) {
	a, _ := sampleManifest().Identity()
	changed := sampleManifest()
	changed.Tables[0].Engine = "MyISAM"
	b, _ := changed.Identity()
	if a == b {
		t.Errorf("identity did not change with table engine")
	}
}

func TestGrantDescribe(t *testing.T) {
	g := Grant{User: "u", Host: "localhost", Scope: privilege.Table, Database: "db", Table: "t",
		Privileges: privilege.Set{"select", privilege.GrantOption}}
	if got, want := g.Describe(), "u@localhost (table 'db.t' SELECT, GRANT OPTION)"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestEffectiveType(t *testing.T) {
	c := Column{LiveType: "varchar(64)"}
	if c.EffectiveType() != "varchar(64)" {
		t.Errorf("EffectiveType should fall back to LiveType")
	}
	c.Type = "TEXT"
	if c.EffectiveType() != "TEXT" {
		t.Errorf("EffectiveType should prefer Type")
	}
}
