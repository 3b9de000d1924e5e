package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fuo-consult-server/internal/domain"
)

// Gate type names used in knowledge-base files.
const (
	gateAgeAbove          = "age_above"
	gateAgeBelow          = "age_below"
	gateRequireImmune     = "require_immune"
	gateExcludeImmune     = "exclude_immune"
	gateCD4Ceiling        = "cd4_ceiling"
	gateTransplantOrgan   = "transplant_organ"
	gateRequireAnyFinding = "require_any_finding"
	gateTransplantWindow  = "transplant_window_bonus"
	gateEndemicRegion     = "endemic_region_bonus"
	gateForceInclude      = "force_include"
)

type fileDoc struct {
	Conditions []conditionDoc `yaml:"conditions"`
	PlanRules  *rulesDoc      `yaml:"plan_rules,omitempty"`
}

type conditionDoc struct {
	Name     string           `yaml:"name"`
	Category string           `yaml:"category"`
	Triggers []domain.Trigger `yaml:"triggers"`
	Gates    []gateDoc        `yaml:"gates,omitempty"`
	Orders   []orderDoc       `yaml:"orders"`
	Pearl    string           `yaml:"pearl,omitempty"`
}

type orderDoc struct {
	Test string `yaml:"test"`
	Tier string `yaml:"tier"`
}

type gateDoc struct {
	Type          string     `yaml:"type"`
	Years         int        `yaml:"years,omitempty"`
	Kinds         []string   `yaml:"kinds,omitempty"`
	Below         int        `yaml:"below,omitempty"`
	Organs        []string   `yaml:"organs,omitempty"`
	Findings      []string   `yaml:"findings,omitempty"`
	MinDays       int        `yaml:"min_days,omitempty"`
	MaxDays       int        `yaml:"max_days,omitempty"`
	Regions       []string   `yaml:"regions,omitempty"`
	Bonus         int        `yaml:"bonus,omitempty"`
	Finding       string     `yaml:"finding,omitempty"`
	OrderOverride []orderDoc `yaml:"order_override,omitempty"`
}

type rulesDoc struct {
	Synonyms             map[string]string   `yaml:"synonyms,omitempty"`
	Supersessions        []supersessionDoc   `yaml:"supersessions,omitempty"`
	Panels               []panelDoc          `yaml:"panels,omitempty"`
	UniversalBaseline    []orderDoc          `yaml:"universal_baseline,omitempty"`
	ConditionalBaselines []conditionalDoc    `yaml:"conditional_baselines,omitempty"`
	Stewardship          map[string][]string `yaml:"stewardship,omitempty"`
	TestClasses          map[string]string   `yaml:"test_classes,omitempty"`
	Suppressions         []suppressionDoc    `yaml:"suppressions,omitempty"`
}

type supersessionDoc struct {
	Broader  string   `yaml:"broader"`
	Narrower []string `yaml:"narrower"`
}

type panelDoc struct {
	Name       string   `yaml:"name"`
	Members    []string `yaml:"members"`
	MinMembers int      `yaml:"min_members"`
}

type conditionalDoc struct {
	Finding string     `yaml:"finding"`
	Orders  []orderDoc `yaml:"orders"`
}

type suppressionDoc struct {
	Name           string   `yaml:"name"`
	Class          string   `yaml:"class"`
	Tiers          []string `yaml:"tiers"`
	Toggle         string   `yaml:"toggle"`
	ExemptCategory string   `yaml:"exempt_category,omitempty"`
	ExemptMinScore int      `yaml:"exempt_min_score,omitempty"`
}

// LoadFile reads a YAML knowledge-base file. When the file has no plan_rules section the
// built-in rules are used.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base %s: %w", path, err)
	}
	defer f.Close()

	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base %s: %w", path, err)
	}
	return b, nil
}

// FromConfig returns the file-backed knowledge base when a path is configured and the
// built-in table otherwise.
func FromConfig(cfg domain.KnowledgeConfig) (*Base, error) {
	if cfg.Path == "" {
		return Default(), nil
	}
	return LoadFile(cfg.Path)
}

// Load decodes and validates a YAML knowledge base.
func Load(r io.Reader) (*Base, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidKnowledgeBase)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKnowledgeBase, err)
	}
	if len(doc.Conditions) == 0 {
		return nil, fmt.Errorf("%w: no conditions defined", domain.ErrInvalidKnowledgeBase)
	}

	var errs []error
	conditions := make([]domain.Condition, 0, len(doc.Conditions))
	for _, cd := range doc.Conditions {
		c, err := cd.toCondition()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		conditions = append(conditions, c)
	}

	rules := DefaultRules()
	if doc.PlanRules != nil {
		r, err := doc.PlanRules.toRules()
		if err != nil {
			errs = append(errs, err)
		} else {
			rules = r
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return New(conditions, rules)
}

// Export encodes a knowledge base as YAML in the format Load accepts.
func Export(b *Base) ([]byte, error) {
	doc := fileDoc{Conditions: make([]conditionDoc, 0, b.Len())}
	for _, c := range b.Conditions() {
		cd, err := conditionToDoc(c)
		if err != nil {
			return nil, err
		}
		doc.Conditions = append(doc.Conditions, cd)
	}
	doc.PlanRules = rulesToDoc(b.Rules())

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode knowledge base: %w", err)
	}
	return buf.Bytes(), nil
}

func (cd conditionDoc) toCondition() (domain.Condition, error) {
	c := domain.Condition{
		Name:     cd.Name,
		Category: domain.Category(cd.Category),
		Triggers: cd.Triggers,
		Pearl:    cd.Pearl,
	}

	orders, err := parseOrders(cd.Orders)
	if err != nil {
		return c, domain.NewConfigError(cd.Name, "orders", err.Error())
	}
	c.Orders = orders

	for i, gd := range cd.Gates {
		g, err := gd.toGate()
		if err != nil {
			return c, domain.NewConfigError(cd.Name, fmt.Sprintf("gates[%d]", i), err.Error())
		}
		c.Gates = append(c.Gates, g)
	}
	return c, nil
}

func (gd gateDoc) toGate() (domain.Gate, error) {
	switch gd.Type {
	case gateAgeAbove:
		return domain.AgeAbove{Years: gd.Years}, nil
	case gateAgeBelow:
		return domain.AgeBelow{Years: gd.Years}, nil
	case gateRequireImmune:
		return domain.RequireImmune{Kinds: toKinds(gd.Kinds)}, nil
	case gateExcludeImmune:
		return domain.ExcludeImmune{Kinds: toKinds(gd.Kinds)}, nil
	case gateCD4Ceiling:
		return domain.CD4Ceiling{Below: gd.Below}, nil
	case gateTransplantOrgan:
		return domain.TransplantOrgan{Organs: gd.Organs}, nil
	case gateRequireAnyFinding:
		return domain.RequireAnyFinding{Findings: toFindings(gd.Findings)}, nil
	case gateTransplantWindow:
		return domain.TransplantWindowBonus{MinDays: gd.MinDays, MaxDays: gd.MaxDays, Bonus: gd.Bonus}, nil
	case gateEndemicRegion:
		return domain.EndemicRegionBonus{Regions: gd.Regions, Bonus: gd.Bonus}, nil
	case gateForceInclude:
		override, err := parseOrders(gd.OrderOverride)
		if err != nil {
			return nil, err
		}
		return domain.ForceInclude{Finding: domain.Finding(gd.Finding), OrderOverride: override}, nil
	default:
		return nil, fmt.Errorf("unknown gate type %q", gd.Type)
	}
}

func conditionToDoc(c *domain.Condition) (conditionDoc, error) {
	cd := conditionDoc{
		Name:     c.Name,
		Category: string(c.Category),
		Triggers: c.Triggers,
		Orders:   ordersToDoc(c.Orders),
		Pearl:    c.Pearl,
	}
	for _, g := range c.Gates {
		var gd gateDoc
		switch g := g.(type) {
		case domain.AgeAbove:
			gd = gateDoc{Type: gateAgeAbove, Years: g.Years}
		case domain.AgeBelow:
			gd = gateDoc{Type: gateAgeBelow, Years: g.Years}
		case domain.RequireImmune:
			gd = gateDoc{Type: gateRequireImmune, Kinds: fromKinds(g.Kinds)}
		case domain.ExcludeImmune:
			gd = gateDoc{Type: gateExcludeImmune, Kinds: fromKinds(g.Kinds)}
		case domain.CD4Ceiling:
			gd = gateDoc{Type: gateCD4Ceiling, Below: g.Below}
		case domain.TransplantOrgan:
			gd = gateDoc{Type: gateTransplantOrgan, Organs: g.Organs}
		case domain.RequireAnyFinding:
			gd = gateDoc{Type: gateRequireAnyFinding, Findings: fromFindings(g.Findings)}
		case domain.TransplantWindowBonus:
			gd = gateDoc{Type: gateTransplantWindow, MinDays: g.MinDays, MaxDays: g.MaxDays, Bonus: g.Bonus}
		case domain.EndemicRegionBonus:
			gd = gateDoc{Type: gateEndemicRegion, Regions: g.Regions, Bonus: g.Bonus}
		case domain.ForceInclude:
			gd = gateDoc{Type: gateForceInclude, Finding: string(g.Finding), OrderOverride: ordersToDoc(g.OrderOverride)}
		default:
			return cd, fmt.Errorf("condition %q: unsupported gate %T", c.Name, g)
		}
		cd.Gates = append(cd.Gates, gd)
	}
	return cd, nil
}

func (rd *rulesDoc) toRules() (PlanRules, error) {
	r := PlanRules{
		Synonyms:    rd.Synonyms,
		Stewardship: rd.Stewardship,
		TestClasses: make(map[string]TestClass, len(rd.TestClasses)),
	}
	for test, class := range rd.TestClasses {
		r.TestClasses[test] = TestClass(class)
	}
	for _, s := range rd.Supersessions {
		r.Supersessions = append(r.Supersessions, Supersession{Broader: s.Broader, Narrower: s.Narrower})
	}
	for _, p := range rd.Panels {
		r.Panels = append(r.Panels, Panel{Name: p.Name, Members: p.Members, MinMembers: p.MinMembers})
	}

	var err error
	if r.UniversalBaseline, err = parseOrders(rd.UniversalBaseline); err != nil {
		return r, domain.NewConfigError("plan rules", "universal_baseline", err.Error())
	}
	for i, cb := range rd.ConditionalBaselines {
		orders, err := parseOrders(cb.Orders)
		if err != nil {
			return r, domain.NewConfigError("plan rules", fmt.Sprintf("conditional_baselines[%d]", i), err.Error())
		}
		r.ConditionalBaselines = append(r.ConditionalBaselines, ConditionalBaseline{Finding: domain.Finding(cb.Finding), Orders: orders})
	}
	for i, s := range rd.Suppressions {
		rule := SuppressionRule{
			Name:           s.Name,
			Class:          TestClass(s.Class),
			Toggle:         s.Toggle,
			ExemptCategory: domain.Category(s.ExemptCategory),
			ExemptMinScore: s.ExemptMinScore,
		}
		for _, t := range s.Tiers {
			tier, err := domain.ParseTier(t)
			if err != nil {
				return r, domain.NewConfigError("plan rules", fmt.Sprintf("suppressions[%d].tiers", i), err.Error())
			}
			rule.Tiers = append(rule.Tiers, tier)
		}
		r.Suppressions = append(r.Suppressions, rule)
	}
	return r, nil
}

func rulesToDoc(r *PlanRules) *rulesDoc {
	rd := &rulesDoc{
		Synonyms:          r.Synonyms,
		Stewardship:       r.Stewardship,
		UniversalBaseline: ordersToDoc(r.UniversalBaseline),
		TestClasses:       make(map[string]string, len(r.TestClasses)),
	}
	for test, class := range r.TestClasses {
		rd.TestClasses[test] = string(class)
	}
	for _, s := range r.Supersessions {
		rd.Supersessions = append(rd.Supersessions, supersessionDoc{Broader: s.Broader, Narrower: s.Narrower})
	}
	for _, p := range r.Panels {
		rd.Panels = append(rd.Panels, panelDoc{Name: p.Name, Members: p.Members, MinMembers: p.MinMembers})
	}
	for _, cb := range r.ConditionalBaselines {
		rd.ConditionalBaselines = append(rd.ConditionalBaselines, conditionalDoc{Finding: string(cb.Finding), Orders: ordersToDoc(cb.Orders)})
	}
	for _, s := range r.Suppressions {
		sd := suppressionDoc{
			Name:           s.Name,
			Class:          string(s.Class),
			Toggle:         s.Toggle,
			ExemptCategory: string(s.ExemptCategory),
			ExemptMinScore: s.ExemptMinScore,
		}
		for _, t := range s.Tiers {
			sd.Tiers = append(sd.Tiers, t.Name())
		}
		rd.Suppressions = append(rd.Suppressions, sd)
	}
	return rd
}

func parseOrders(docs []orderDoc) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(docs))
	for _, od := range docs {
		tier, err := domain.ParseTier(od.Tier)
		if err != nil {
			return nil, fmt.Errorf("order %q: %w", od.Test, err)
		}
		orders = append(orders, domain.Order{Test: od.Test, Tier: tier})
	}
	return orders, nil
}

func ordersToDoc(orders []domain.Order) []orderDoc {
	docs := make([]orderDoc, 0, len(orders))
	for _, o := range orders {
		docs = append(docs, orderDoc{Test: o.Test, Tier: o.Tier.Name()})
	}
	return docs
}

func toKinds(in []string) []domain.ImmuneKind {
	out := make([]domain.ImmuneKind, len(in))
	for i, k := range in {
		out[i] = domain.ImmuneKind(k)
	}
	return out
}

func fromKinds(in []domain.ImmuneKind) []string {
	out := make([]string, len(in))
	for i, k := range in {
		out[i] = string(k)
	}
	return out
}

func toFindings(in []string) []domain.Finding {
	out := make([]domain.Finding, len(in))
	for i, f := range in {
		out[i] = domain.Finding(f)
	}
	return out
}

func fromFindings(in []domain.Finding) []string {
	out := make([]string, len(in))
	for i, f := range in {
		out[i] = string(f)
	}
	return out
}
