package domain

import (
	"fmt"
	"strings"
)

// Trigger maps a finding to the weight it contributes when present.
type Trigger struct {
	Finding Finding `json:"finding" yaml:"finding"`
	Weight  int     `json:"weight" yaml:"weight"`
}

// Order is a diagnostic test attached to a condition, with its urgency tier.
type Order struct {
	Test string `json:"test" yaml:"test"`
	Tier Tier   `json:"tier" yaml:"tier"`
}

// Condition is one knowledge-base entry: a candidate diagnosis with its trigger weights,
// gates and associated orders.
type Condition struct {
	Name     string    `json:"name"`
	Category Category  `json:"category"`
	Triggers []Trigger `json:"triggers"`
	Gates    []Gate    `json:"-"`
	Orders   []Order   `json:"orders"`
	Pearl    string    `json:"pearl,omitempty"`
}

// GateDescriptions returns a human-readable line per gate, for listings.
func (c *Condition) GateDescriptions() []string {
	out := make([]string, 0, len(c.Gates))
	for _, g := range c.Gates {
		out = append(out, g.Describe())
	}
	return out
}

// GateKind tells the engine how a gate affects the score.
type GateKind int

const (
	// GateHard excludes the condition when its predicate fails.
	GateHard GateKind = iota
	// GateSoft adds a fixed bonus when its predicate holds.
	GateSoft
	// GateForce guarantees a minimum score of 1 when the defining risk factor is present.
	GateForce
)

// Gate is a precondition over the full patient context. The set of gate types is closed:
// only the types in this file implement it, and the engine switches over them.
type Gate interface {
	Kind() GateKind
	Describe() string
	Validate() error
	isGate()
}

// AgeAbove requires age strictly greater than Years.
type AgeAbove struct {
	Years int
}

func (AgeAbove) Kind() GateKind     { return GateHard }
func (g AgeAbove) Describe() string { return fmt.Sprintf("requires age > %d", g.Years) }
func (g AgeAbove) Validate() error {
	if g.Years < 0 {
		return fmt.Errorf("age floor must be non-negative, got %d", g.Years)
	}
	return nil
}
func (AgeAbove) isGate() {}

// AgeBelow requires age strictly less than Years.
type AgeBelow struct {
	Years int
}

func (AgeBelow) Kind() GateKind     { return GateHard }
func (g AgeBelow) Describe() string { return fmt.Sprintf("requires age < %d", g.Years) }
func (g AgeBelow) Validate() error {
	if g.Years <= 0 {
		return fmt.Errorf("age ceiling must be positive, got %d", g.Years)
	}
	return nil
}
func (AgeBelow) isGate() {}

// RequireImmune requires the patient's immune kind to be one of Kinds.
type RequireImmune struct {
	Kinds []ImmuneKind
}

func (RequireImmune) Kind() GateKind { return GateHard }
func (g RequireImmune) Describe() string {
	return "requires immune status " + joinKinds(g.Kinds)
}
func (g RequireImmune) Validate() error { return validateKinds(g.Kinds) }
func (RequireImmune) isGate()           {}

// ExcludeImmune excludes the condition when the immune kind is one of Kinds.
type ExcludeImmune struct {
	Kinds []ImmuneKind
}

func (ExcludeImmune) Kind() GateKind { return GateHard }
func (g ExcludeImmune) Describe() string {
	return "not applicable when immune status is " + joinKinds(g.Kinds)
}
func (g ExcludeImmune) Validate() error { return validateKinds(g.Kinds) }
func (ExcludeImmune) isGate()           {}

// CD4Ceiling requires CD4 < Below for HIV patients. It does not apply to other patients.
type CD4Ceiling struct {
	Below int
}

func (CD4Ceiling) Kind() GateKind     { return GateHard }
func (g CD4Ceiling) Describe() string { return fmt.Sprintf("if HIV, requires CD4 < %d", g.Below) }
func (g CD4Ceiling) Validate() error {
	if g.Below <= 0 {
		return fmt.Errorf("CD4 ceiling must be positive, got %d", g.Below)
	}
	return nil
}
func (CD4Ceiling) isGate() {}

// TransplantOrgan requires a transplant recipient's organ to be one of Organs. It does not
// apply to patients who are not transplant recipients.
type TransplantOrgan struct {
	Organs []string
}

func (TransplantOrgan) Kind() GateKind { return GateHard }
func (g TransplantOrgan) Describe() string {
	return "if transplant, requires organ " + strings.Join(g.Organs, "/")
}
func (g TransplantOrgan) Validate() error {
	if len(g.Organs) == 0 {
		return fmt.Errorf("transplant organ gate needs at least one organ")
	}
	return nil
}
func (TransplantOrgan) isGate() {}

// RequireAnyFinding requires at least one of Findings, e.g. a culprit medication exposure.
type RequireAnyFinding struct {
	Findings []Finding
}

func (RequireAnyFinding) Kind() GateKind { return GateHard }
func (g RequireAnyFinding) Describe() string {
	labels := make([]string, len(g.Findings))
	for i, f := range g.Findings {
		labels[i] = string(f)
	}
	return "requires one of: " + strings.Join(labels, ", ")
}
func (g RequireAnyFinding) Validate() error {
	if len(g.Findings) == 0 {
		return fmt.Errorf("required-finding gate needs at least one finding")
	}
	return nil
}
func (RequireAnyFinding) isGate() {}

// TransplantWindowBonus adds Bonus when days since transplant falls in [MinDays, MaxDays].
type TransplantWindowBonus struct {
	MinDays int
	MaxDays int
	Bonus   int
}

func (TransplantWindowBonus) Kind() GateKind { return GateSoft }
func (g TransplantWindowBonus) Describe() string {
	return fmt.Sprintf("+%d if %d-%d days post-transplant", g.Bonus, g.MinDays, g.MaxDays)
}
func (g TransplantWindowBonus) Validate() error {
	if g.MinDays < 0 || g.MaxDays < g.MinDays {
		return fmt.Errorf("invalid transplant window %d-%d", g.MinDays, g.MaxDays)
	}
	if g.Bonus <= 0 {
		return fmt.Errorf("bonus must be positive, got %d", g.Bonus)
	}
	return nil
}
func (TransplantWindowBonus) isGate() {}

// Label is the synthetic evidence line recorded when the bonus applies.
func (g TransplantWindowBonus) Label(days int) string {
	return fmt.Sprintf("Transplant timing window: day %d (+%d)", days, g.Bonus)
}

// EndemicRegionBonus adds Bonus when the patient resides in one of Regions. Residence only
// amplifies a condition that already matched at least one trigger.
type EndemicRegionBonus struct {
	Regions []string
	Bonus   int
}

func (EndemicRegionBonus) Kind() GateKind { return GateSoft }
func (g EndemicRegionBonus) Describe() string {
	return fmt.Sprintf("+%d if residing in %s", g.Bonus, strings.Join(g.Regions, "/"))
}
func (g EndemicRegionBonus) Validate() error {
	if len(g.Regions) == 0 {
		return fmt.Errorf("endemic region gate needs at least one region")
	}
	if g.Bonus <= 0 {
		return fmt.Errorf("bonus must be positive, got %d", g.Bonus)
	}
	return nil
}
func (EndemicRegionBonus) isGate() {}

// Matches reports whether region is one of the endemic regions (case-insensitive).
func (g EndemicRegionBonus) Matches(region string) bool {
	for _, r := range g.Regions {
		if strings.EqualFold(strings.TrimSpace(region), r) {
			return true
		}
	}
	return false
}

// Label is the synthetic evidence line recorded when the bonus applies.
func (g EndemicRegionBonus) Label(region string) string {
	return fmt.Sprintf("Endemic region: %s (+%d)", region, g.Bonus)
}

// ForceInclude guarantees the condition is reported with score >= 1 whenever Finding is
// present. OrderOverride, when non-empty, replaces the condition's orders for that
// candidate only.
type ForceInclude struct {
	Finding       Finding
	OrderOverride []Order
}

func (ForceInclude) Kind() GateKind { return GateForce }
func (g ForceInclude) Describe() string {
	return fmt.Sprintf("always reported when %q is present", g.Finding)
}
func (g ForceInclude) Validate() error {
	if strings.TrimSpace(string(g.Finding)) == "" {
		return fmt.Errorf("force-include gate needs a defining finding")
	}
	for _, o := range g.OrderOverride {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}
func (ForceInclude) isGate() {}

// Label is the synthetic evidence line recorded when inclusion is forced.
func (g ForceInclude) Label() string {
	return fmt.Sprintf("Defining risk factor: %s", g.Finding)
}

// Validate checks that an order names a test and sits in a known tier.
func (o Order) Validate() error {
	if strings.TrimSpace(o.Test) == "" {
		return fmt.Errorf("order has empty test name")
	}
	if !o.Tier.IsValid() {
		return fmt.Errorf("order %q has tier %d outside 0..3", o.Test, int(o.Tier))
	}
	return nil
}

// Candidate is the engine's output for one surviving condition. Orders holds the
// candidate's effective orders: the condition's own, or a per-consult override.
type Candidate struct {
	Condition *Condition `json:"-"`
	Score     int        `json:"score"`
	Evidence  []string   `json:"evidence"`
	Orders    []Order    `json:"orders"`
	Forced    bool       `json:"forced,omitempty"`
}

// Name returns the condition name.
func (c Candidate) Name() string {
	return c.Condition.Name
}

// Category returns the condition category.
func (c Candidate) Category() Category {
	return c.Condition.Category
}

func joinKinds(kinds []ImmuneKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, "/")
}

func validateKinds(kinds []ImmuneKind) error {
	if len(kinds) == 0 {
		return fmt.Errorf("immune gate needs at least one immune kind")
	}
	for _, k := range kinds {
		if !k.IsValid() {
			return fmt.Errorf("unknown immune kind %q", k)
		}
	}
	return nil
}
