package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML manifest. Unknown keys are rejected.
func ParseYAML(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	return &m, nil
}

func (s *Scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	*s = Scalar(n.Value)
	return nil
}

func (l *List) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = splitList(n.Value)
		return nil
	case yaml.SequenceNode:
		var out List
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a list of strings", item.Line)
			}
			out = append(out, splitList(item.Value)...)
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
}

// columnKeys are the keys a column entry may use; node decoding does not inherit
// the decoder's KnownFields setting, so they are checked here
var columnKeys = map[string]bool{
	"database": true, "table": true, "name": true, "type": true, "null": true, "nullable": true,
	"default_value": true, "extra": true, "index": true,
}

// UnmarshalYAML notices an explicit `default_value: null`, which plain decoding
// cannot tell apart from an absent key, and reads the `null` key.
func (c *Column) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if key := n.Content[i]; !columnKeys[key.Value] {
				return fmt.Errorf("line %d: field %s not found in column", key.Line, key.Value)
			}
		}
	}

	type plain Column
	var raw plain
	if err := n.Decode(&raw); err != nil {
		return err
	}
	*c = Column(raw)
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, v := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "default_value":
			if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null" {
				c.DefaultNull = true
			}
		case "null":
			if err := c.Null.UnmarshalYAML(v); err != nil {
				return err
			}
		}
	}
	return nil
}
