// Package director picks the camera motion for a single segment.
//
// The Director walks an ordered rule list and applies the first rule whose
// predicate matches. The last rule always matches, so Process is total.
package director

import (
	"sort"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/motion"
)

// Rule is one predicate/action pair. Lower Priority is evaluated first.
type Rule struct {
	Priority int
	Name     string
	Match    func(motion.SegmentContext) bool
	Apply    func(motion.SegmentContext) motion.TransformParams
}

// RuleInfo describes a rule for introspection
type RuleInfo struct {
	Priority int    `json:"priority" yaml:"priority"`
	Name     string `json:"name" yaml:"name"`
}

// Director evaluates the rule table. It is read-only after construction
// and safe for concurrent use.
type Director struct {
	policy config.RulePolicy
	rules  []Rule
}

// NewDirector creates a Director with the canonical rule set
func NewDirector(policy config.RulePolicy) *Director {
	d := &Director{policy: policy}
	d.rules = d.canonicalRules()
	d.sortRules()
	return d
}

// AddRule inserts an extra rule by priority. Rules with equal priority keep
// insertion order. Must not be called once the Director is shared.
func (d *Director) AddRule(r Rule) {
	d.rules = append(d.rules, r)
	d.sortRules()
}

func (d *Director) sortRules() {
	sort.SliceStable(d.rules, func(i, j int) bool {
		return d.rules[i].Priority < d.rules[j].Priority
	})
}

// Process returns the motion for one segment
func (d *Director) Process(ctx motion.SegmentContext) motion.TransformParams {
	eff := ctx.Effective()
	for _, r := range d.rules {
		if r.Match(eff) {
			return r.Apply(eff)
		}
	}
	// only reachable if a caller replaced the catch-all
	return d.catchAll(eff)
}

// ListRules returns the rule table in evaluation order
func (d *Director) ListRules() []RuleInfo {
	infos := make([]RuleInfo, len(d.rules))
	for i, r := range d.rules {
		infos[i] = RuleInfo{Priority: r.Priority, Name: r.Name}
	}
	return infos
}
