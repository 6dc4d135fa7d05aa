package motion

import "math"

// TransformParams is the camera motion chosen for one segment
type TransformParams struct {
	StartScale  float64 `json:"start_scale" yaml:"start_scale"`
	EndScale    float64 `json:"end_scale" yaml:"end_scale"`
	PositionX   float64 `json:"position_x" yaml:"position_x"`
	PositionY   float64 `json:"position_y" yaml:"position_y"`
	Rotation    float64 `json:"rotation" yaml:"rotation"`
	Easing      Easing  `json:"easing" yaml:"easing"`
	RuleApplied string  `json:"rule_applied" yaml:"rule_applied"`
}

// ScaleDelta is end scale minus start scale
func (p TransformParams) ScaleDelta() float64 {
	return p.EndScale - p.StartScale
}

// Magnitude is the absolute scale delta
func (p TransformParams) Magnitude() float64 {
	return math.Abs(p.ScaleDelta())
}

// Effect classifies p with the default thresholds
func (p TransformParams) Effect() Effect {
	return DefaultClassifier().Classify(p)
}

// Classifier maps transform parameters onto an Effect
type Classifier struct {
	// StaticDelta is the largest scale delta still considered static
	StaticDelta float64 `json:"static_delta" yaml:"static_delta"`
	// PanOffset is the distance from frame center beyond which a near-static shot is a pan
	PanOffset float64 `json:"pan_offset" yaml:"pan_offset"`
}

// DefaultClassifier returns the standard classification thresholds
func DefaultClassifier() Classifier {
	return Classifier{StaticDelta: 0.03, PanOffset: 0.1}
}

// Classify returns the effect class of p
func (c Classifier) Classify(p TransformParams) Effect {
	delta := p.ScaleDelta()
	// small epsilon so values written as 1.03 - 1.0 land on the static side
	if math.Abs(delta) <= c.StaticDelta+1e-9 {
		if math.Abs(p.PositionX-FrameCenter) > c.PanOffset || math.Abs(p.PositionY-FrameCenter) > c.PanOffset {
			return EffectPan
		}
		return EffectStatic
	}
	if delta > 0 {
		return EffectZoomIn
	}
	return EffectZoomOut
}

// Point is a normalized position value
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Keyframe is one persisted animation record for a clip
type Keyframe struct {
	ClipID   string   `json:"clip_id" yaml:"clip_id"`
	Property Property `json:"property" yaml:"property"`
	Offset   float64  `json:"offset" yaml:"offset"` // 0 = clip start, 1 = clip end
	TimeMs   int      `json:"time_ms" yaml:"time_ms"`
	Value    any      `json:"value" yaml:"value"` // float64 for scale/rotation, Point for position
	Easing   Easing   `json:"easing" yaml:"easing"`
}

// Keyframes expands p into boundary keyframes for a clip of the given duration.
// Rotation is emitted only when non-zero.
func (p TransformParams) Keyframes(clipID string, durationMs int) []Keyframe {
	offsets := []float64{0, 1}
	pos := Point{X: Round(p.PositionX), Y: Round(p.PositionY)}

	keyframes := make([]Keyframe, 0, 6)
	for i, off := range offsets {
		scale := p.StartScale
		if i == len(offsets)-1 {
			scale = p.EndScale
		}
		keyframes = append(keyframes, Keyframe{
			ClipID:   clipID,
			Property: PropertyScale,
			Offset:   off,
			TimeMs:   int(math.Round(off * float64(durationMs))),
			Value:    Round(scale),
			Easing:   p.Easing,
		})
	}
	for _, off := range offsets {
		keyframes = append(keyframes, Keyframe{
			ClipID:   clipID,
			Property: PropertyPosition,
			Offset:   off,
			TimeMs:   int(math.Round(off * float64(durationMs))),
			Value:    pos,
			Easing:   p.Easing,
		})
	}
	if p.Rotation != 0 {
		for _, off := range offsets {
			keyframes = append(keyframes, Keyframe{
				ClipID:   clipID,
				Property: PropertyRotation,
				Offset:   off,
				TimeMs:   int(math.Round(off * float64(durationMs))),
				Value:    Round(p.Rotation),
				Easing:   p.Easing,
			})
		}
	}
	return keyframes
}

// Round trims v to four decimals
func Round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
