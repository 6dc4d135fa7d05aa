// Package analyzer turns collaborator signals (face detection, caller hints)
// into motion.SegmentContext values. It never touches pixels.
package analyzer

import (
	"context"
	"log/slog"

	"github.com/ivlev/camwork/internal/motion"
)

// FaceResult is what a vision detector reports for one segment
type FaceResult struct {
	HasFace bool    `json:"has_face" yaml:"has_face"`
	CenterX float64 `json:"center_x" yaml:"center_x"`
	CenterY float64 `json:"center_y" yaml:"center_y"`
	Ratio   float64 `json:"ratio" yaml:"ratio"` // share of frame area covered by the face
}

// DefaultFace is used when detection is unavailable or fails
func DefaultFace() FaceResult {
	return FaceResult{HasFace: false, CenterX: motion.FrameCenter, CenterY: motion.FrameCenter, Ratio: 0}
}

// Normalize clamps coordinates to [0,1]. A result without a face collapses to DefaultFace.
func (f FaceResult) Normalize() FaceResult {
	if !f.HasFace {
		return DefaultFace()
	}
	return FaceResult{
		HasFace: true,
		CenterX: motion.Clamp(f.CenterX, 0, 1),
		CenterY: motion.Clamp(f.CenterY, 0, 1),
		Ratio:   motion.Clamp(f.Ratio, 0, 1),
	}
}

// Detector is the interface for face detection collaborators
type Detector interface {
	Detect(ctx context.Context, segmentID string) (FaceResult, error)
}

// Resolve asks det for a face and falls back to DefaultFace on any failure.
// Detection problems are logged and never abort synthesis.
func Resolve(ctx context.Context, det Detector, segmentID string, logger *slog.Logger) FaceResult {
	if det == nil {
		return DefaultFace()
	}
	face, err := det.Detect(ctx, segmentID)
	if err != nil {
		if logger != nil {
			logger.Warn("face detection failed, using default framing", "segment_id", segmentID, "error", err)
		}
		return DefaultFace()
	}
	return face.Normalize()
}

// NoFaceDetector reports no face for every segment
type NoFaceDetector struct{}

func (NoFaceDetector) Detect(context.Context, string) (FaceResult, error) {
	return DefaultFace(), nil
}

// MapDetector serves precomputed results, e.g. from a sidecar file
type MapDetector struct {
	Faces map[string]FaceResult
}

func (d *MapDetector) Detect(_ context.Context, segmentID string) (FaceResult, error) {
	face, ok := d.Faces[segmentID]
	if !ok {
		return DefaultFace(), nil
	}
	return face, nil
}
