package generator

import (
	"strings"

	"github.com/ridoystarlord/dbenforce/schema"
)

// IndexState is the position of one index in its correction sequence
type IndexState int

const (
	// Absent: nothing stands in the way of adding the index
	Absent IndexState = iota
	// PresentWrongDefinition: a live index must be dropped first, either the mismatching
	// one found on the same columns or one occupying the assigned name
	PresentWrongDefinition
	// Corrected: the ADD clause has been emitted
	Corrected
)

func (s IndexState) String() string {
	switch s {
	case Absent:
		return "absent"
	case PresentWrongDefinition:
		return "present-wrong-definition"
	case Corrected:
		return "corrected"
	}
	return "unknown"
}

// IndexCorrection yields the ALTER TABLE clauses that bring one index to its desired
// definition: DROP the mismatching live index, DROP the index holding the assigned
// name, then ADD. No name is dropped twice.
type IndexCorrection struct {
	index   schema.Index
	state   IndexState
	pending []string
}

// NewIndexCorrection starts the sequence from the classifier's annotations
func NewIndexCorrection(idx schema.Index) *IndexCorrection {
	c := &IndexCorrection{index: idx}
	if idx.LiveName != "" {
		c.pending = append(c.pending, idx.LiveName)
	}
	if idx.NameTaken && !strings.EqualFold(idx.LiveName, idx.AssignedName) {
		c.pending = append(c.pending, idx.AssignedName)
	}
	if len(c.pending) > 0 {
		c.state = PresentWrongDefinition
	}
	return c
}

func (c *IndexCorrection) State() IndexState { return c.state }

// Next returns the next clause and advances the state; ok is false once Corrected
func (c *IndexCorrection) Next() (clause string, ok bool) {
	switch c.state {
	case PresentWrongDefinition:
		name := c.pending[0]
		c.pending = c.pending[1:]
		if len(c.pending) == 0 {
			c.state = Absent
		}
		return DropIndex(name), true
	case Absent:
		c.state = Corrected
		return "ADD " + IndexDefinition(c.index), true
	}
	return "", false
}

// Clauses runs the sequence to completion
func (c *IndexCorrection) Clauses() []string {
	var out []string
	for {
		clause, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, clause)
	}
}

// DropIndex drops a live index by name; PRIMARY has its own syntax
func DropIndex(name string) string {
	if strings.EqualFold(name, "PRIMARY") {
		return "DROP PRIMARY KEY"
	}
	return "DROP INDEX " + schema.QuoteIdent(name)
}
