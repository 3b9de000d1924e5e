package domain

// Plan maps each tier to its de-duplicated test names, in the order they were first added.
type Plan map[Tier][]string

// NewPlan returns an empty plan.
func NewPlan() Plan {
	return make(Plan, len(AllTiers))
}

// Tests returns the tests in a tier.
func (p Plan) Tests(t Tier) []string {
	return p[t]
}

// Contains reports whether any tier holds the test.
func (p Plan) Contains(test string) bool {
	_, ok := p.TierOf(test)
	return ok
}

// TierOf returns the tier holding the test.
func (p Plan) TierOf(test string) (Tier, bool) {
	for _, t := range AllTiers {
		for _, name := range p[t] {
			if name == test {
				return t, true
			}
		}
	}
	return 0, false
}

// All returns every test in tier order.
func (p Plan) All() []string {
	var out []string
	for _, t := range AllTiers {
		out = append(out, p[t]...)
	}
	return out
}

// Len returns the total number of tests.
func (p Plan) Len() int {
	n := 0
	for _, tests := range p {
		n += len(tests)
	}
	return n
}

// NonEmptyTiers returns the tiers that hold at least one test, in urgency order.
func (p Plan) NonEmptyTiers() []Tier {
	var out []Tier
	for _, t := range AllTiers {
		if len(p[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}
