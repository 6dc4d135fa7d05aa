// Package sequence rewrites per-segment motion so that a run of segments
// stays varied and calms down after a climax.
//
// Processing is a left fold over the batch. Each step sees only decisions
// that are already final, and the carried state is a small value that never
// outlives one call to Process.
package sequence

import (
	"math"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/motion"
)

// Rule suffixes appended to rule_applied when a result is rewritten
const (
	SuffixCooldown = "+cooldown"
	SuffixVariant  = "+variant_"
)

// Item pairs a rule engine result with the context it came from
type Item struct {
	Params  motion.TransformParams
	Context motion.SegmentContext
}

// Processor applies diversity enforcement and post-climax cool-down
type Processor struct {
	policy      config.SequencePolicy
	classifier  motion.Classifier
	climaxDelta float64
}

// NewProcessor creates a Processor. strongestDelta is the strongest scale
// delta the rule table can produce; it is used when the policy does not
// pin a climax threshold.
func NewProcessor(policy config.SequencePolicy, classifier motion.Classifier, strongestDelta float64) *Processor {
	climax := policy.ClimaxDelta
	if climax <= 0 {
		climax = strongestDelta
	}
	if policy.Window < 1 {
		policy.Window = 1
	}
	return &Processor{
		policy:      policy,
		classifier:  classifier,
		climaxDelta: climax,
	}
}

// state is the accumulator threaded through the batch
type state struct {
	window   []motion.Effect // last k finalized effects, oldest first
	cooldown int             // segments left to dampen
	variants int             // forced variants so far, drives alternation
}

// Process returns one finalized TransformParams per item, in order.
// With enabled false the rule engine output is returned unchanged.
func (p *Processor) Process(items []Item, enabled bool) []motion.TransformParams {
	out := make([]motion.TransformParams, len(items))
	if !enabled {
		for i, it := range items {
			out[i] = it.Params
		}
		return out
	}

	st := state{window: make([]motion.Effect, 0, p.policy.Window)}
	for i, it := range items {
		out[i], st = p.step(st, it)
	}
	return out
}

// step finalizes one segment and returns the next state
func (p *Processor) step(st state, it Item) (motion.TransformParams, state) {
	params := it.Params

	if st.cooldown > 0 {
		params = p.dampen(params)
		st.cooldown--
	}

	if run, ok := p.monotonous(st.window); ok && p.classifier.Classify(params) == run {
		params = p.variant(params, run, st.variants)
		st.variants++
	}

	if p.isClimax(it) {
		st.cooldown = p.policy.CooldownSegments
	}

	st.window = push(st.window, p.classifier.Classify(params), p.policy.Window)
	return params, st
}

// monotonous reports whether the window is full and holds a single effect
func (p *Processor) monotonous(window []motion.Effect) (motion.Effect, bool) {
	if len(window) < p.policy.Window {
		return "", false
	}
	first := window[0]
	for _, e := range window[1:] {
		if e != first {
			return "", false
		}
	}
	return first, true
}

// isClimax looks at the rule output, not the rewritten result
func (p *Processor) isClimax(it Item) bool {
	ctx := it.Context.Effective()
	if ctx.Emotion == motion.EmotionExcited && ctx.Importance == motion.ImportanceHigh {
		return true
	}
	return p.climaxDelta > 0 && it.Params.Magnitude() >= p.climaxDelta-1e-9
}

// dampen halves (or less) the scale delta, or freezes an already small move
func (p *Processor) dampen(params motion.TransformParams) motion.TransformParams {
	out := params
	if params.Magnitude() <= p.policy.CooldownStaticBelow+1e-9 {
		out.EndScale = out.StartScale
	} else {
		out.EndScale = out.StartScale + params.ScaleDelta()*p.policy.CooldownFactor
	}
	if out.EndScale < 1 {
		out.EndScale = 1
	}
	out.RuleApplied = params.RuleApplied + SuffixCooldown
	return out
}

// variant rewrites params so that its effect differs from run. The choice is
// deterministic: strong zooms flip direction, weaker ones alternate between
// flipping and holding.
func (p *Processor) variant(params motion.TransformParams, run motion.Effect, n int) motion.TransformParams {
	out := params

	switch run {
	case motion.EffectZoomIn, motion.EffectZoomOut:
		if params.Magnitude() >= p.policy.FlipMinDelta || n%2 == 0 {
			out.StartScale, out.EndScale = params.EndScale, params.StartScale
		} else {
			out.EndScale = out.StartScale
		}
	case motion.EffectStatic:
		hold := math.Max(math.Max(params.StartScale, params.EndScale), p.policy.PanScale)
		out.StartScale, out.EndScale = hold, hold
		side := 1.0
		if n%2 == 1 {
			side = -1
		}
		out.PositionX = motion.FrameCenter + side*p.policy.PanShift
	case motion.EffectPan:
		out.PositionX = motion.FrameCenter
		out.PositionY = motion.FrameCenter
	}

	out.RuleApplied = params.RuleApplied + SuffixVariant + string(p.classifier.Classify(out))
	return out
}

func push(window []motion.Effect, e motion.Effect, k int) []motion.Effect {
	if len(window) == k {
		copy(window, window[1:])
		window = window[:k-1]
	}
	return append(window, e)
}
