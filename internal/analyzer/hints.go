package analyzer

import (
	"context"
	"log/slog"

	"github.com/ivlev/camwork/internal/motion"
)

// Hint is the per-segment input as supplied by a caller. Labels are raw
// strings; a Face supplied inline wins over the detector.
type Hint struct {
	SegmentID  string      `json:"segment_id" yaml:"segment_id"`
	DurationMs int         `json:"duration_ms" yaml:"duration_ms"`
	Emotion    string      `json:"emotion,omitempty" yaml:"emotion,omitempty"`
	Importance string      `json:"importance,omitempty" yaml:"importance,omitempty"`
	IsBreath   bool        `json:"is_breath,omitempty" yaml:"is_breath,omitempty"`
	Face       *FaceResult `json:"face,omitempty" yaml:"face,omitempty"`
}

// Contextualize builds one SegmentContext per hint, in order. Unknown labels
// become neutral/medium. Durations are copied as-is; callers filter
// malformed segments afterwards.
func Contextualize(ctx context.Context, det Detector, hints []Hint, logger *slog.Logger) []motion.SegmentContext {
	out := make([]motion.SegmentContext, len(hints))
	for i, h := range hints {
		var face FaceResult
		if h.Face != nil {
			face = h.Face.Normalize()
		} else {
			face = Resolve(ctx, det, h.SegmentID, logger)
		}

		emotion := motion.ParseEmotion(h.Emotion)
		importance := motion.ParseImportance(h.Importance)
		if logger != nil && (string(emotion) != h.Emotion || string(importance) != h.Importance) {
			logger.Debug("normalized segment labels",
				"segment_id", h.SegmentID,
				"emotion", emotion,
				"importance", importance,
			)
		}

		c := motion.NewSegmentContext(h.SegmentID, h.DurationMs).WithLabels(emotion, importance)
		if face.HasFace {
			c = c.WithFace(face.CenterX, face.CenterY, face.Ratio)
		}
		c.IsBreath = h.IsBreath
		out[i] = c
	}
	return out
}
