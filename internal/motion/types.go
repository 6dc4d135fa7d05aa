// Package motion holds the value types shared by the rule engine, the
// sequence processor and everything that consumes their output.
package motion

import "strings"

// Emotion is the emotional tone label supplied for a segment
type Emotion string

const (
	EmotionNeutral Emotion = "neutral"
	EmotionExcited Emotion = "excited"
	EmotionSerious Emotion = "serious"
	EmotionHappy   Emotion = "happy"
	EmotionSad     Emotion = "sad"
)

// Emotions lists every known emotion in a stable order
var Emotions = []Emotion{EmotionNeutral, EmotionExcited, EmotionSerious, EmotionHappy, EmotionSad}

// Valid reports whether e is one of the known emotions
func (e Emotion) Valid() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

// ParseEmotion normalizes a caller supplied label. Unknown values fall back to neutral.
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return EmotionNeutral
	}
	return e
}

// Importance is the narrative importance label supplied for a segment
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// Importances lists every known importance in ascending order
var Importances = []Importance{ImportanceLow, ImportanceMedium, ImportanceHigh}

// Valid reports whether i is one of the known importance levels
func (i Importance) Valid() bool {
	for _, known := range Importances {
		if i == known {
			return true
		}
	}
	return false
}

// ParseImportance normalizes a caller supplied label. Unknown values fall back to medium.
func ParseImportance(s string) Importance {
	i := Importance(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return ImportanceMedium
	}
	return i
}

// Easing identifies the interpolation curve between two keyframes
type Easing string

const (
	EasingLinear    Easing = "linear"
	EasingEaseIn    Easing = "ease_in"
	EasingEaseOut   Easing = "ease_out"
	EasingEaseInOut Easing = "ease_in_out"
	EasingHold      Easing = "hold"
	EasingBezier    Easing = "bezier"
)

// Easings lists every easing identifier
var Easings = []Easing{EasingLinear, EasingEaseIn, EasingEaseOut, EasingEaseInOut, EasingHold, EasingBezier}

// Valid reports whether e is one of the six easing identifiers
func (e Easing) Valid() bool {
	for _, known := range Easings {
		if e == known {
			return true
		}
	}
	return false
}

// Effect is the coarse motion class used for diversity bookkeeping
type Effect string

const (
	EffectStatic  Effect = "static"
	EffectZoomIn  Effect = "zoom_in"
	EffectZoomOut Effect = "zoom_out"
	EffectPan     Effect = "pan"
)

// Property is the animated camera property a keyframe describes
type Property string

const (
	PropertyScale    Property = "scale"
	PropertyPosition Property = "position"
	PropertyRotation Property = "rotation"
)
