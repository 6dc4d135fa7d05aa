package renderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/camwork/internal/motion"
)

// FrameCount is the number of output frames for a clip, at least one
func FrameCount(durationMs, fps int) int {
	n := int(math.Round(float64(durationMs) * float64(fps) / 1000))
	if n < 1 {
		return 1
	}
	return n
}

// ZoomPanFilter creates an FFmpeg zoompan filter that plays p over a clip of
// durationMs. The easing curve is written into the zoom expression so the
// filter and Sample agree frame by frame.
func ZoomPanFilter(p motion.TransformParams, durationMs, fps, width, height int) string {
	frames := FrameCount(durationMs, fps)

	zoomExpr := buildZoomExpression(p, frames)
	xExpr := buildPanExpression(p.PositionX, "iw")
	yExpr := buildPanExpression(p.PositionY, "ih")

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		zoomExpr, xExpr, yExpr, frames, width, height, fps)
}

// buildZoomExpression interpolates start to end scale over the output frame index
func buildZoomExpression(p motion.TransformParams, frames int) string {
	if frames == 1 || p.StartScale == p.EndScale {
		return fmt.Sprintf("%.6f", p.StartScale)
	}

	progress := fmt.Sprintf("(on/%d)", frames-1)
	curve := easingExpression(p.Easing, progress)
	return fmt.Sprintf("%.6f+(%.6f)*%s", p.StartScale, p.EndScale-p.StartScale, curve)
}

// easingExpression mirrors Ease in ffmpeg expression syntax
func easingExpression(e motion.Easing, t string) string {
	var expr string
	switch e {
	case motion.EasingEaseIn:
		expr = "pow(T,3)"
	case motion.EasingEaseOut:
		expr = "(1-pow(1-T,3))"
	case motion.EasingEaseInOut:
		expr = "if(lt(T,0.5),4*pow(T,3),1-pow(-2*T+2,3)/2)"
	case motion.EasingHold:
		expr = "gte(T,1)"
	case motion.EasingBezier:
		expr = "(T*T*(3-2*T))"
	default:
		expr = "T"
	}
	return strings.ReplaceAll(expr, "T", t)
}

// buildPanExpression keeps the normalized center in view.
// x = center*iw - visible_width/2, clamped to the frame
func buildPanExpression(center float64, dimension string) string {
	expr := fmt.Sprintf("max(0,min(D-D/zoom,%.6f*D-D/zoom/2))", center)
	return strings.ReplaceAll(expr, "D", dimension)
}
