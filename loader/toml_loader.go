package loader

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ParseTOML decodes a TOML manifest ([[databases]], [[users.privileges]] ...).
// Unknown keys are rejected.
func ParseTOML(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown manifest keys: %s", strings.Join(keys, ", "))
	}
	return &m, nil
}

func (s *Scalar) UnmarshalTOML(v any) error {
	switch v.(type) {
	case map[string]any, []any:
		return fmt.Errorf("expected a scalar value, got %T", v)
	}
	*s = Scalar(fmt.Sprint(v))
	return nil
}

func (l *List) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*l = splitList(val)
		return nil
	case []any:
		var out List
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected a list of strings, got %T", item)
			}
			out = append(out, splitList(str)...)
		}
		*l = out
		return nil
	}
	return fmt.Errorf("expected a string or a list of strings, got %T", v)
}
