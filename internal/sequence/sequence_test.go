package sequence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/director"
	"github.com/ivlev/camwork/internal/motion"
)

const eps = 1e-9

type fixture struct {
	director  *director.Director
	processor *Processor
	tuning    config.Tuning
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tuning := config.DefaultTuning()
	return fixture{
		director:  director.NewDirector(tuning.Rules),
		processor: NewProcessor(tuning.Sequence, tuning.Classifier, tuning.Rules.StrongestDelta()),
		tuning:    tuning,
	}
}

func (f fixture) items(ctxs ...motion.SegmentContext) []Item {
	items := make([]Item, len(ctxs))
	for i, c := range ctxs {
		items[i] = Item{Params: f.director.Process(c), Context: c}
	}
	return items
}

func face(id string, e motion.Emotion, i motion.Importance) motion.SegmentContext {
	return motion.NewSegmentContext(id, 3000).WithFace(0.5, 0.5, 0.1).WithLabels(e, i)
}

func TestDisabledReturnsRuleOutput(t *testing.T) {
	f := newFixture(t)
	items := f.items(
		face("a", motion.EmotionExcited, motion.ImportanceHigh),
		face("b", motion.EmotionNeutral, motion.ImportanceMedium),
		face("c", motion.EmotionNeutral, motion.ImportanceMedium),
		face("d", motion.EmotionNeutral, motion.ImportanceMedium),
		face("e", motion.EmotionNeutral, motion.ImportanceMedium),
	)

	out := f.processor.Process(items, false)
	require.Len(t, out, len(items))
	for i := range items {
		assert.Equal(t, items[i].Params, out[i])
	}
}

func TestEmptyBatch(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.processor.Process(nil, true))
}

func TestClimaxCooldown(t *testing.T) {
	f := newFixture(t)
	items := f.items(
		face("climax", motion.EmotionExcited, motion.ImportanceHigh),
		face("after", motion.EmotionNeutral, motion.ImportanceMedium),
		face("later", motion.EmotionNeutral, motion.ImportanceMedium),
	)
	isolated := f.director.Process(face("iso", motion.EmotionNeutral, motion.ImportanceMedium))

	out := f.processor.Process(items, true)
	require.Len(t, out, 3)

	assert.Equal(t, items[0].Params, out[0], "climax itself is untouched")
	assert.LessOrEqual(t, out[1].Magnitude(), isolated.Magnitude()/2+eps)
	assert.True(t, strings.HasSuffix(out[1].RuleApplied, SuffixCooldown))

	// default cool-down spans a single segment
	assert.Equal(t, items[2].Params, out[2])
}

func TestConcreteScenario(t *testing.T) {
	f := newFixture(t)
	items := f.items(
		face("s1", motion.EmotionExcited, motion.ImportanceHigh),
		face("s2", motion.EmotionNeutral, motion.ImportanceMedium),
	)
	isolated := f.director.Process(face("s2", motion.EmotionNeutral, motion.ImportanceMedium))

	out := f.processor.Process(items, true)
	assert.Equal(t, "emotion_excited_high", out[0].RuleApplied)
	assert.Equal(t, motion.EffectZoomIn, out[0].Effect())
	assert.Less(t, out[1].Magnitude(), isolated.Magnitude())
}

func TestCooldownFreezesSmallMoves(t *testing.T) {
	f := newFixture(t)
	items := f.items(
		face("climax", motion.EmotionExcited, motion.ImportanceHigh),
		face("serious", motion.EmotionSerious, motion.ImportanceHigh), // delta 0.04
	)

	out := f.processor.Process(items, true)
	assert.Equal(t, out[1].StartScale, out[1].EndScale)
	assert.Equal(t, motion.EffectStatic, out[1].Effect())
}

func TestCooldownSegmentsConfigurable(t *testing.T) {
	f := newFixture(t)
	policy := f.tuning.Sequence
	policy.CooldownSegments = 2
	proc := NewProcessor(policy, f.tuning.Classifier, f.tuning.Rules.StrongestDelta())

	items := f.items(
		face("climax", motion.EmotionExcited, motion.ImportanceHigh),
		face("b", motion.EmotionHappy, motion.ImportanceMedium),
		face("c", motion.EmotionHappy, motion.ImportanceMedium),
		face("d", motion.EmotionHappy, motion.ImportanceMedium),
	)

	out := proc.Process(items, true)
	assert.True(t, strings.HasSuffix(out[1].RuleApplied, SuffixCooldown))
	assert.True(t, strings.HasSuffix(out[2].RuleApplied, SuffixCooldown))
	assert.False(t, strings.Contains(out[3].RuleApplied, SuffixCooldown))
}

func TestBreathIsNeverClimax(t *testing.T) {
	f := newFixture(t)
	breath := face("breath", motion.EmotionExcited, motion.ImportanceHigh)
	breath.IsBreath = true

	items := f.items(breath, face("b", motion.EmotionNeutral, motion.ImportanceMedium))
	out := f.processor.Process(items, true)
	assert.Equal(t, items[1].Params, out[1])
}

func TestDiversityBreaksZoomRuns(t *testing.T) {
	f := newFixture(t)
	var ctxs []motion.SegmentContext
	for n := 0; n < 8; n++ {
		ctxs = append(ctxs, face(fmt.Sprintf("s%d", n), motion.EmotionNeutral, motion.ImportanceMedium))
	}

	out := f.processor.Process(f.items(ctxs...), true)

	assert.Equal(t, motion.EffectZoomIn, out[0].Effect())
	assert.Equal(t, motion.EffectZoomIn, out[1].Effect())
	assert.Equal(t, motion.EffectZoomIn, out[2].Effect())
	assert.NotEqual(t, motion.EffectZoomIn, out[3].Effect())
	assert.Contains(t, out[3].RuleApplied, SuffixVariant)
	assertNoLongRuns(t, out, f.tuning.Sequence.Window, f.tuning.Classifier)
}

func TestDiversityFlipKeepsEnergy(t *testing.T) {
	f := newFixture(t)
	var strong, weak []motion.SegmentContext
	for n := 0; n < 4; n++ {
		strong = append(strong, face(fmt.Sprintf("x%d", n), motion.EmotionExcited, motion.ImportanceMedium))
		weak = append(weak, face(fmt.Sprintf("y%d", n), motion.EmotionSerious, motion.ImportanceHigh))
	}

	strongOut := f.processor.Process(f.items(strong...), true)
	weakOut := f.processor.Process(f.items(weak...), true)

	assert.Equal(t, motion.EffectZoomOut, strongOut[3].Effect(), "strong push-in flips to a pull-out")
	assert.Greater(t, strongOut[3].Magnitude(), weakOut[3].Magnitude())
}

func TestDiversityBreaksStaticRuns(t *testing.T) {
	f := newFixture(t)
	var ctxs []motion.SegmentContext
	for n := 0; n < 6; n++ {
		ctxs = append(ctxs, motion.NewSegmentContext(fmt.Sprintf("short%d", n), 800).WithFace(0.5, 0.5, 0.1).WithLabels(motion.EmotionNeutral, motion.ImportanceLow))
	}

	out := f.processor.Process(f.items(ctxs...), true)
	assert.Equal(t, motion.EffectPan, out[3].Effect())
	for _, p := range out {
		assert.LessOrEqual(t, p.Magnitude(), 0.03+eps, "short clips stay nearly still")
		assert.GreaterOrEqual(t, p.PositionX, 0.2)
		assert.LessOrEqual(t, p.PositionX, 0.8)
	}
	assertNoLongRuns(t, out, f.tuning.Sequence.Window, f.tuning.Classifier)
}

func TestDiversityPropertyOverMixedBatches(t *testing.T) {
	f := newFixture(t)
	emotions := motion.Emotions
	importances := motion.Importances

	for seed := 0; seed < 50; seed++ {
		var ctxs []motion.SegmentContext
		for n := 0; n < 24; n++ {
			v := (seed*31 + n*7) % 97
			c := motion.NewSegmentContext(fmt.Sprintf("b%d-%d", seed, n), 600+(v%5)*900).
				WithLabels(emotions[v%len(emotions)], importances[(v/5)%len(importances)])
			if v%3 != 0 {
				c = c.WithFace(float64(v%10)/10, 0.5, float64(v%6)/10)
			}
			ctxs = append(ctxs, c)
		}

		out := f.processor.Process(f.items(ctxs...), true)
		require.Len(t, out, len(ctxs))
		assertNoLongRuns(t, out, f.tuning.Sequence.Window, f.tuning.Classifier)
		for _, p := range out {
			assert.GreaterOrEqual(t, p.StartScale, 1.0)
			assert.GreaterOrEqual(t, p.EndScale, 1.0)
		}
	}
}

func TestDeterministic(t *testing.T) {
	f := newFixture(t)
	var ctxs []motion.SegmentContext
	for n := 0; n < 10; n++ {
		ctxs = append(ctxs, face(fmt.Sprintf("s%d", n), motion.EmotionHappy, motion.ImportanceMedium))
	}
	items := f.items(ctxs...)

	assert.Equal(t, f.processor.Process(items, true), f.processor.Process(items, true))
}

func TestLargerWindow(t *testing.T) {
	f := newFixture(t)
	policy := f.tuning.Sequence
	policy.Window = 5
	proc := NewProcessor(policy, f.tuning.Classifier, f.tuning.Rules.StrongestDelta())

	var ctxs []motion.SegmentContext
	for n := 0; n < 12; n++ {
		ctxs = append(ctxs, face(fmt.Sprintf("s%d", n), motion.EmotionHappy, motion.ImportanceMedium))
	}
	out := proc.Process(f.items(ctxs...), true)

	for i := 0; i < 5; i++ {
		assert.Equal(t, motion.EffectZoomIn, out[i].Effect())
	}
	assert.NotEqual(t, motion.EffectZoomIn, out[5].Effect())
	assertNoLongRuns(t, out, 5, f.tuning.Classifier)
}

func assertNoLongRuns(t *testing.T, out []motion.TransformParams, k int, c motion.Classifier) {
	t.Helper()
	run := 1
	for i := 1; i < len(out); i++ {
		if c.Classify(out[i]) == c.Classify(out[i-1]) {
			run++
		} else {
			run = 1
		}
		if run > k {
			t.Fatalf("run of %d %s effects ending at %d", run, c.Classify(out[i]), i)
		}
	}
}
