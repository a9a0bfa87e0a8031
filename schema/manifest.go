package schema

import (
	"crypto/sha256"
	"fmt"

	"github.com/ridoystarlord/dbenforce/privilege"
	"gopkg.in/yaml.v3"
)

// Manifest is the normalized desired state: flat, ordered entity records.
type Manifest struct {
	Databases []Database `yaml:"databases"`
	Tables    []Table    `yaml:"tables"`
	Columns   []Column   `yaml:"columns"`
	Indexes   []Index    `yaml:"indexes"`
	Grants    []Grant    `yaml:"grants"`
}

// Encode renders the canonical YAML form of m. Classifier annotations are not part of it.
func (m *Manifest) Encode() ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return out, nil
}

// Identity is a content hash of the canonical encoding
func (m *Manifest) Identity() (string, error) {
	data, err := m.Encode()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// GrantsIn returns the grants of one scope in manifest order
func (m *Manifest) GrantsIn(scope privilege.Scope) []Grant {
	var out []Grant
	for _, g := range m.Grants {
		if g.Scope == scope {
			out = append(out, g)
		}
	}
	return out
}

func (m *Manifest) Empty() bool {
	return len(m.Databases) == 0 && len(m.Tables) == 0 && len(m.Columns) == 0 &&
		len(m.Indexes) == 0 && len(m.Grants) == 0
}
