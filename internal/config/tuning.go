// Package config holds the motion tuning table and the runtime settings.
// All numeric motion policy lives here so that changing how a shot "feels"
// never touches rule dispatch.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/camwork/internal/motion"
)

// MotionSpec is one row of the lookup table
type MotionSpec struct {
	StartScale float64       `yaml:"start_scale"`
	EndScale   float64       `yaml:"end_scale"`
	Easing     motion.Easing `yaml:"easing"`
}

// Delta returns end minus start scale
func (m MotionSpec) Delta() float64 {
	return m.EndScale - m.StartScale
}

// NoFaceSpec is a Ken-Burns variant for faceless shots
type NoFaceSpec struct {
	MotionSpec `yaml:",inline"`
	PanX       float64 `yaml:"pan_x"` // horizontal drift of the pan target from center
	PanY       float64 `yaml:"pan_y"` // vertical drift, negative is up
}

// No-face variant keys
const (
	NoFaceExcited = "excited"
	NoFaceSad     = "sad"
	NoFaceDefault = "default"
)

// RulePolicy is the numeric policy behind the rule engine
type RulePolicy struct {
	ShortClipMs       int                           `yaml:"short_clip_ms"`
	ShortClipMaxDelta float64                       `yaml:"short_clip_max_delta"`
	ShortClipDeltas   map[motion.Importance]float64 `yaml:"short_clip_deltas"`

	NoFace map[string]NoFaceSpec `yaml:"no_face"`

	// Table is keyed by PairKey(emotion, importance)
	Table   map[string]MotionSpec `yaml:"table"`
	Default MotionSpec            `yaml:"default"`

	AnchorMin float64 `yaml:"anchor_min"`
	AnchorMax float64 `yaml:"anchor_max"`

	CloseUpFaceRatio float64 `yaml:"close_up_face_ratio"`
	CloseUpDamping   float64 `yaml:"close_up_damping"`
}

// PairKey builds the lookup key for an emotion/importance pair, e.g. "excited/high"
func PairKey(e motion.Emotion, i motion.Importance) string {
	return string(e) + "/" + string(i)
}

// ParsePairKey splits a table key into its labels. Both must be known values.
func ParsePairKey(key string) (motion.Emotion, motion.Importance, bool) {
	e, i, found := strings.Cut(key, "/")
	emotion, importance := motion.Emotion(e), motion.Importance(i)
	if !found || !emotion.Valid() || !importance.Valid() {
		return "", "", false
	}
	return emotion, importance, true
}

// Lookup returns the table row for the pair
func (p RulePolicy) Lookup(e motion.Emotion, i motion.Importance) (MotionSpec, bool) {
	spec, ok := p.Table[PairKey(e, i)]
	return spec, ok
}

// StrongestDelta is the largest absolute scale delta in the main table
func (p RulePolicy) StrongestDelta() float64 {
	strongest := 0.0
	for _, spec := range p.Table {
		d := spec.Delta()
		if d < 0 {
			d = -d
		}
		if d > strongest {
			strongest = d
		}
	}
	return strongest
}

// SequencePolicy tunes the cross-segment pass
type SequencePolicy struct {
	Window              int     `yaml:"window"`                // k last finalized effects
	CooldownSegments    int     `yaml:"cooldown_segments"`     // segments dampened after a climax
	CooldownFactor      float64 `yaml:"cooldown_factor"`       // share of the delta kept during cool-down
	CooldownStaticBelow float64 `yaml:"cooldown_static_below"` // deltas this small become static
	FlipMinDelta        float64 `yaml:"flip_min_delta"`        // zooms at least this strong always flip direction
	PanShift            float64 `yaml:"pan_shift"`             // pan target offset used by forced pans
	PanScale            float64 `yaml:"pan_scale"`             // minimum held scale for forced pans
	ClimaxDelta         float64 `yaml:"climax_delta"`          // 0 means the strongest table delta
}

// Tuning groups every tunable number
type Tuning struct {
	Rules      RulePolicy        `yaml:"rules"`
	Sequence   SequencePolicy    `yaml:"sequence"`
	Classifier motion.Classifier `yaml:"classifier"`
}

// DefaultTuning returns the built-in motion policy
func DefaultTuning() Tuning {
	return Tuning{
		Rules:      DefaultRulePolicy(),
		Sequence:   DefaultSequencePolicy(),
		Classifier: motion.DefaultClassifier(),
	}
}

// DefaultRulePolicy returns the built-in rule table
func DefaultRulePolicy() RulePolicy {
	m := func(start, end float64, easing motion.Easing) MotionSpec {
		return MotionSpec{StartScale: start, EndScale: end, Easing: easing}
	}

	table := map[string]MotionSpec{
		PairKey(motion.EmotionExcited, motion.ImportanceHigh):   m(1.0, 1.25, motion.EasingEaseInOut),
		PairKey(motion.EmotionExcited, motion.ImportanceMedium): m(1.0, 1.15, motion.EasingEaseInOut),
		PairKey(motion.EmotionExcited, motion.ImportanceLow):    m(1.0, 1.08, motion.EasingEaseOut),

		PairKey(motion.EmotionHappy, motion.ImportanceHigh):   m(1.0, 1.14, motion.EasingEaseOut),
		PairKey(motion.EmotionHappy, motion.ImportanceMedium): m(1.0, 1.1, motion.EasingEaseOut),
		PairKey(motion.EmotionHappy, motion.ImportanceLow):    m(1.0, 1.05, motion.EasingEaseOut),

		PairKey(motion.EmotionSerious, motion.ImportanceHigh):   m(1.0, 1.04, motion.EasingEaseOut),
		PairKey(motion.EmotionSerious, motion.ImportanceMedium): m(1.0, 1.06, motion.EasingEaseInOut),
		PairKey(motion.EmotionSerious, motion.ImportanceLow):    m(1.0, 1.02, motion.EasingLinear),

		PairKey(motion.EmotionSad, motion.ImportanceHigh):   m(1.12, 1.0, motion.EasingEaseOut),
		PairKey(motion.EmotionSad, motion.ImportanceMedium): m(1.08, 1.0, motion.EasingEaseOut),
		PairKey(motion.EmotionSad, motion.ImportanceLow):    m(1.0, 1.0, motion.EasingHold),

		PairKey(motion.EmotionNeutral, motion.ImportanceHigh):   m(1.0, 1.12, motion.EasingEaseInOut),
		PairKey(motion.EmotionNeutral, motion.ImportanceMedium): m(1.0, 1.08, motion.EasingEaseInOut),
		PairKey(motion.EmotionNeutral, motion.ImportanceLow):    m(1.0, 1.0, motion.EasingHold),
	}

	return RulePolicy{
		ShortClipMs:       1500,
		ShortClipMaxDelta: 0.03,
		ShortClipDeltas: map[motion.Importance]float64{
			motion.ImportanceLow:    0,
			motion.ImportanceMedium: 0.015,
			motion.ImportanceHigh:   0.03,
		},
		NoFace: map[string]NoFaceSpec{
			NoFaceExcited: {MotionSpec: m(1.0, 1.15, motion.EasingEaseInOut), PanX: 0.06, PanY: -0.04},
			NoFaceSad:     {MotionSpec: m(1.06, 1.0, motion.EasingLinear)},
			NoFaceDefault: {MotionSpec: m(1.0, 1.06, motion.EasingEaseInOut), PanX: 0.05},
		},
		Table:            table,
		Default:          table[PairKey(motion.EmotionNeutral, motion.ImportanceMedium)],
		AnchorMin:        0.2,
		AnchorMax:        0.8,
		CloseUpFaceRatio: 0.35,
		CloseUpDamping:   0.6,
	}
}

// DefaultSequencePolicy returns the built-in sequence pass settings
func DefaultSequencePolicy() SequencePolicy {
	return SequencePolicy{
		Window:              3,
		CooldownSegments:    1,
		CooldownFactor:      0.5,
		CooldownStaticBelow: 0.04,
		FlipMinDelta:        0.06,
		PanShift:            0.15,
		PanScale:            1.05,
	}
}

// LoadTuning reads a YAML tuning file on top of the defaults.
// Table entries present in the file replace the matching default rows only.
// Unless the file sets rules.default, the catch-all follows the
// neutral/medium table row.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}

	var explicit struct {
		Rules struct {
			Default *MotionSpec `yaml:"default"`
		} `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if explicit.Rules.Default == nil {
		if spec, ok := tuning.Rules.Lookup(motion.EmotionNeutral, motion.ImportanceMedium); ok {
			tuning.Rules.Default = spec
		}
	}

	if err := tuning.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return tuning, nil
}

// Validate checks that the policy can only produce legal transforms
func (t Tuning) Validate() error {
	r := t.Rules
	if r.ShortClipMs <= 0 {
		return fmt.Errorf("rules.short_clip_ms must be positive")
	}
	if r.ShortClipMaxDelta < 0 || r.ShortClipMaxDelta > t.Classifier.StaticDelta {
		return fmt.Errorf("rules.short_clip_max_delta must be within [0, %.3f]", t.Classifier.StaticDelta)
	}
	for imp, d := range r.ShortClipDeltas {
		if !imp.Valid() {
			return fmt.Errorf("rules.short_clip_deltas: unknown importance %q", imp)
		}
		if d < 0 {
			return fmt.Errorf("rules.short_clip_deltas.%s must not be negative", imp)
		}
	}
	for _, key := range []string{NoFaceExcited, NoFaceSad, NoFaceDefault} {
		spec, ok := r.NoFace[key]
		if !ok {
			return fmt.Errorf("rules.no_face.%s is missing", key)
		}
		if err := spec.MotionSpec.validate("rules.no_face." + key); err != nil {
			return err
		}
	}
	for key, spec := range r.Table {
		if _, _, ok := ParsePairKey(key); !ok {
			return fmt.Errorf("rules.table: %q is not an emotion/importance pair", key)
		}
		if err := spec.validate("rules.table." + key); err != nil {
			return err
		}
	}
	if err := r.Default.validate("rules.default"); err != nil {
		return err
	}
	if r.AnchorMin < 0 || r.AnchorMax > 1 || r.AnchorMin >= r.AnchorMax {
		return fmt.Errorf("rules.anchor_min/anchor_max must satisfy 0 <= min < max <= 1")
	}
	if r.CloseUpDamping < 0 || r.CloseUpDamping > 1 {
		return fmt.Errorf("rules.close_up_damping must be within [0, 1]")
	}

	s := t.Sequence
	if s.Window < 1 {
		return fmt.Errorf("sequence.window must be at least 1")
	}
	if s.CooldownSegments < 0 {
		return fmt.Errorf("sequence.cooldown_segments must not be negative")
	}
	if s.CooldownStaticBelow < 0 {
		return fmt.Errorf("sequence.cooldown_static_below must not be negative")
	}
	if s.FlipMinDelta < 0 {
		return fmt.Errorf("sequence.flip_min_delta must not be negative")
	}
	if s.ClimaxDelta < 0 {
		return fmt.Errorf("sequence.climax_delta must not be negative")
	}
	if s.CooldownFactor <= 0 || s.CooldownFactor > 0.5 {
		return fmt.Errorf("sequence.cooldown_factor must be within (0, 0.5]")
	}
	if s.PanShift <= t.Classifier.PanOffset || s.PanShift > 0.3 {
		return fmt.Errorf("sequence.pan_shift must be within (%.3f, 0.3]", t.Classifier.PanOffset)
	}
	if s.PanScale < 1 {
		return fmt.Errorf("sequence.pan_scale must be at least 1.0")
	}

	if t.Classifier.StaticDelta <= 0 || t.Classifier.PanOffset <= 0 {
		return fmt.Errorf("classifier thresholds must be positive")
	}
	return nil
}

func (m MotionSpec) validate(field string) error {
	if m.StartScale < 1 || m.EndScale < 1 {
		return fmt.Errorf("%s: scales must be at least 1.0", field)
	}
	if !m.Easing.Valid() {
		return fmt.Errorf("%s: unknown easing %q", field, m.Easing)
	}
	return nil
}
