// Package knowledge holds the immutable table of conditions the scorer
// ranks. The built-in table is embedded; a YAML file with the same shape
// can replace it.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/medtracker/internal/domain/model"
)

//go:embed conditions.yaml
var defaultConditions []byte

// Base is a validated, read-only set of conditions in declaration order.
type Base struct {
	conditions []model.Condition
	byID       map[string]int
}

// Default returns the built-in knowledge base.
func Default() (*Base, error) {
	return Parse(defaultConditions)
}

// Load reads a knowledge base from a YAML file. An empty path yields Default.
func Load(path string) (*Base, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidKnowledgeBase, path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML list of conditions.
func Parse(raw []byte) (*Base, error) {
	var conditions []model.Condition
	if err := yaml.Unmarshal(raw, &conditions); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidKnowledgeBase, err)
	}
	return New(conditions)
}

// New validates conditions and builds a Base from copies of them.
// Canonical symptoms are lowercased and trimmed.
func New(conditions []model.Condition) (*Base, error) {
	if len(conditions) == 0 {
		return nil, fmt.Errorf("%w: no conditions", ErrInvalidKnowledgeBase)
	}

	b := &Base{
		conditions: make([]model.Condition, 0, len(conditions)),
		byID:       make(map[string]int, len(conditions)),
	}
	for i, c := range conditions {
		c = c.Clone()
		c.ID = strings.TrimSpace(c.ID)
		c.Name = strings.TrimSpace(c.Name)

		switch {
		case c.ID == "":
			return nil, fmt.Errorf("%w: condition %d has no id", ErrInvalidKnowledgeBase, i)
		case c.Name == "":
			return nil, fmt.Errorf("%w: condition %q has no name", ErrInvalidKnowledgeBase, c.ID)
		}
		if _, dup := b.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidKnowledgeBase, c.ID)
		}

		for j, sym := range c.Symptoms {
			sym = strings.ToLower(strings.TrimSpace(sym))
			if sym == "" {
				return nil, fmt.Errorf("%w: condition %q has an empty symptom", ErrInvalidKnowledgeBase, c.ID)
			}
			c.Symptoms[j] = sym
		}

		b.byID[c.ID] = len(b.conditions)
		b.conditions = append(b.conditions, c)
	}
	return b, nil
}

// Conditions returns a deep copy of every condition in declaration order.
func (b *Base) Conditions() []model.Condition {
	out := make([]model.Condition, len(b.conditions))
	for i, c := range b.conditions {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of conditions.
func (b *Base) Len() int { return len(b.conditions) }

// Lookup returns a copy of the condition with the given id.
func (b *Base) Lookup(id string) (model.Condition, bool) {
	i, ok := b.byID[id]
	if !ok {
		return model.Condition{}, false
	}
	return b.conditions[i].Clone(), true
}
