// Package knowledge holds the curated condition table and the plan rules (synonyms,
// supersessions, panels, baselines, stewardship and suppression) that drive the
// differential engine and plan builder.
//
// A Base is validated once at construction and is read-only afterwards, so one instance
// can be shared by concurrent consults.
package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fuo-consult-server/internal/domain"
)

// Base is a validated, read-only knowledge base.
type Base struct {
	conditions []*domain.Condition
	index      map[string]int
	rules      *PlanRules
}

// New validates the conditions and plan rules and returns a Base holding private copies.
// A malformed entry fails the whole load; no partially valid Base is ever returned.
func New(conditions []domain.Condition, rules PlanRules) (*Base, error) {
	if err := Validate(conditions); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	b := &Base{
		conditions: make([]*domain.Condition, len(conditions)),
		index:      make(map[string]int, len(conditions)),
		rules:      rules.clone(),
	}
	for i := range conditions {
		c := cloneCondition(conditions[i])
		b.conditions[i] = &c
		b.index[c.Name] = i
	}
	return b, nil
}

// MustNew is New for the built-in table, which is covered by tests.
func MustNew(conditions []domain.Condition, rules PlanRules) *Base {
	b, err := New(conditions, rules)
	if err != nil {
		panic(fmt.Sprintf("knowledge: built-in table is invalid: %v", err))
	}
	return b
}

// Conditions returns the conditions in declaration order. The returned conditions must
// not be modified.
func (b *Base) Conditions() []*domain.Condition {
	out := make([]*domain.Condition, len(b.conditions))
	copy(out, b.conditions)
	return out
}

// Len returns the number of conditions.
func (b *Base) Len() int {
	return len(b.conditions)
}

// Lookup finds a condition by name.
func (b *Base) Lookup(name string) (*domain.Condition, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.conditions[i], true
}

// Position returns the declaration index of a condition, or -1. Equal scores rank in
// this order.
func (b *Base) Position(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	return -1
}

// Rules returns the plan rules.
func (b *Base) Rules() *PlanRules {
	return b.rules
}

// Validate checks every condition and reports all problems at once.
func Validate(conditions []domain.Condition) error {
	var errs []error
	seen := make(map[string]bool, len(conditions))

	for i, c := range conditions {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, domain.NewConfigError(fmt.Sprintf("#%d", i), "name", "is required"))
			continue
		}
		if seen[name] {
			errs = append(errs, domain.NewConfigError(name, "name", "is duplicated"))
		}
		seen[name] = true

		if !c.Category.IsValid() {
			errs = append(errs, domain.NewConfigError(name, "category", fmt.Sprintf("unknown category %q", c.Category)))
		}
		if len(c.Triggers) == 0 && !hasForceGate(c.Gates) {
			errs = append(errs, domain.NewConfigError(name, "triggers", "at least one trigger or a force-include gate is required"))
		}
		for j, t := range c.Triggers {
			if strings.TrimSpace(string(t.Finding)) == "" {
				errs = append(errs, domain.NewConfigError(name, fmt.Sprintf("triggers[%d].finding", j), "is required"))
			}
			if t.Weight < 0 {
				errs = append(errs, domain.NewConfigError(name, fmt.Sprintf("triggers[%d].weight", j), "must be positive"))
			}
		}
		for j, g := range c.Gates {
			if g == nil {
				errs = append(errs, domain.NewConfigError(name, fmt.Sprintf("gates[%d]", j), "is nil"))
				continue
			}
			if err := g.Validate(); err != nil {
				errs = append(errs, domain.NewConfigError(name, fmt.Sprintf("gates[%d]", j), err.Error()))
			}
		}
		if len(c.Orders) == 0 {
			errs = append(errs, domain.NewConfigError(name, "orders", "at least one order is required"))
		}
		for j, o := range c.Orders {
			if err := o.Validate(); err != nil {
				errs = append(errs, domain.NewConfigError(name, fmt.Sprintf("orders[%d]", j), err.Error()))
			}
		}
	}

	return errors.Join(errs...)
}

func hasForceGate(gates []domain.Gate) bool {
	for _, g := range gates {
		if g != nil && g.Kind() == domain.GateForce {
			return true
		}
	}
	return false
}

// cloneCondition deep-copies the slices so the Base never aliases caller memory. Zero
// trigger weights default to 1.
func cloneCondition(c domain.Condition) domain.Condition {
	out := c
	out.Name = strings.TrimSpace(c.Name)
	out.Triggers = make([]domain.Trigger, len(c.Triggers))
	for i, t := range c.Triggers {
		if t.Weight == 0 {
			t.Weight = 1
		}
		out.Triggers[i] = t
	}
	out.Gates = append([]domain.Gate(nil), c.Gates...)
	out.Orders = append([]domain.Order(nil), c.Orders...)
	return out
}
