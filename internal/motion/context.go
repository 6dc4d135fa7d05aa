package motion

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration marks a segment whose duration is not positive.
// Callers filter such segments before synthesis.
var ErrInvalidDuration = errors.New("segment duration must be positive")

// FrameCenter is the normalized center of the frame on both axes
const FrameCenter = 0.5

// SegmentContext carries the semantic signals for one video segment
type SegmentContext struct {
	SegmentID   string     `json:"segment_id" yaml:"segment_id"`
	DurationMs  int        `json:"duration_ms" yaml:"duration_ms"`
	HasFace     bool       `json:"has_face" yaml:"has_face"`
	FaceCenterX float64    `json:"face_center_x" yaml:"face_center_x"`
	FaceCenterY float64    `json:"face_center_y" yaml:"face_center_y"`
	FaceRatio   float64    `json:"face_ratio" yaml:"face_ratio"`
	Emotion     Emotion    `json:"emotion" yaml:"emotion"`
	Importance  Importance `json:"importance" yaml:"importance"`
	IsBreath    bool       `json:"is_breath,omitempty" yaml:"is_breath,omitempty"`
}

// NewSegmentContext returns a faceless neutral/medium context for the given segment
func NewSegmentContext(id string, durationMs int) SegmentContext {
	return SegmentContext{
		SegmentID:   id,
		DurationMs:  durationMs,
		FaceCenterX: FrameCenter,
		FaceCenterY: FrameCenter,
		Emotion:     EmotionNeutral,
		Importance:  ImportanceMedium,
	}
}

// WithFace returns a copy of c anchored on a detected face
func (c SegmentContext) WithFace(x, y, ratio float64) SegmentContext {
	c.HasFace = true
	c.FaceCenterX = clamp01(x)
	c.FaceCenterY = clamp01(y)
	c.FaceRatio = clamp01(ratio)
	return c
}

// WithLabels returns a copy of c with the given emotion and importance
func (c SegmentContext) WithLabels(e Emotion, i Importance) SegmentContext {
	c.Emotion = e
	c.Importance = i
	return c
}

// Effective returns the context the rules actually see. Breath segments are
// neutral/low regardless of their labels and faceless segments carry the
// default face geometry. Unknown labels are passed through untouched.
func (c SegmentContext) Effective() SegmentContext {
	if c.IsBreath {
		c.Emotion = EmotionNeutral
		c.Importance = ImportanceLow
	}
	if !c.HasFace {
		c.FaceCenterX = FrameCenter
		c.FaceCenterY = FrameCenter
		c.FaceRatio = 0
	} else {
		c.FaceCenterX = clamp01(c.FaceCenterX)
		c.FaceCenterY = clamp01(c.FaceCenterY)
		c.FaceRatio = clamp01(c.FaceRatio)
	}
	return c
}

// Validate checks the caller precondition on duration
func (c SegmentContext) Validate() error {
	if c.DurationMs <= 0 {
		return fmt.Errorf("segment %q: %w (got %d ms)", c.SegmentID, ErrInvalidDuration, c.DurationMs)
	}
	return nil
}

func clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
