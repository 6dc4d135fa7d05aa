// Package renderer turns synthesized motion into something a video pipeline
// can consume: sampled camera states, ffmpeg zoompan filters and still
// previews of a framing.
package renderer

import (
	"math"

	"github.com/ivlev/camwork/internal/motion"
)

// CameraState represents the camera at a specific moment. X and Y are the
// normalized frame center the camera looks at.
type CameraState struct {
	X        float64
	Y        float64
	Zoom     float64 // 1.0 = no zoom
	Rotation float64
}

// Ease maps linear progress t in [0,1] through the named curve.
// Unknown easings behave like linear.
func Ease(e motion.Easing, t float64) float64 {
	t = motion.Clamp(t, 0, 1)
	switch e {
	case motion.EasingEaseIn:
		return t * t * t
	case motion.EasingEaseOut:
		return 1 - math.Pow(1-t, 3)
	case motion.EasingEaseInOut:
		return easeInOutCubic(t)
	case motion.EasingHold:
		if t >= 1 {
			return 1
		}
		return 0
	case motion.EasingBezier:
		// cubic bezier with control values 0 and 1
		return t * t * (3 - 2*t)
	default:
		return t
	}
}

// Sample returns the camera state at offset (0 = clip start, 1 = clip end)
func Sample(p motion.TransformParams, offset float64) CameraState {
	t := Ease(p.Easing, offset)
	return CameraState{
		X:        p.PositionX,
		Y:        p.PositionY,
		Zoom:     lerp(p.StartScale, p.EndScale, t),
		Rotation: p.Rotation,
	}
}

// InterpolateKeyframes calculates the camera state at timeMs from a clip's
// keyframe records, easing between neighbouring keyframes of each property.
func InterpolateKeyframes(keyframes []motion.Keyframe, timeMs float64) CameraState {
	state := CameraState{X: motion.FrameCenter, Y: motion.FrameCenter, Zoom: 1.0}

	var scale, position, rotation []motion.Keyframe
	for _, kf := range keyframes {
		switch kf.Property {
		case motion.PropertyScale:
			scale = append(scale, kf)
		case motion.PropertyPosition:
			position = append(position, kf)
		case motion.PropertyRotation:
			rotation = append(rotation, kf)
		}
	}

	if v, ok := interpolate(scale, timeMs, scalarValue); ok {
		state.Zoom = v.X
	}
	if v, ok := interpolate(position, timeMs, pointValue); ok {
		state.X, state.Y = v.X, v.Y
	}
	if v, ok := interpolate(rotation, timeMs, scalarValue); ok {
		state.Rotation = v.X
	}
	return state
}

func interpolate(keyframes []motion.Keyframe, timeMs float64, value func(any) motion.Point) (motion.Point, bool) {
	if len(keyframes) == 0 {
		return motion.Point{}, false
	}

	// before first / after last keyframe
	if timeMs <= float64(keyframes[0].TimeMs) {
		return value(keyframes[0].Value), true
	}
	last := keyframes[len(keyframes)-1]
	if timeMs >= float64(last.TimeMs) {
		return value(last.Value), true
	}

	prev, next := keyframes[0], last
	for i := 0; i < len(keyframes)-1; i++ {
		if timeMs >= float64(keyframes[i].TimeMs) && timeMs < float64(keyframes[i+1].TimeMs) {
			prev, next = keyframes[i], keyframes[i+1]
			break
		}
	}

	span := float64(next.TimeMs - prev.TimeMs)
	if span == 0 {
		return value(next.Value), true
	}
	t := Ease(prev.Easing, (timeMs-float64(prev.TimeMs))/span)

	a, b := value(prev.Value), value(next.Value)
	return motion.Point{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}, true
}

// scalarValue reads a scale or rotation value into Point.X
func scalarValue(v any) motion.Point {
	switch n := v.(type) {
	case float64:
		return motion.Point{X: n}
	case int:
		return motion.Point{X: float64(n)}
	}
	return motion.Point{X: 1}
}

// pointValue accepts a Point or its decoded JSON map form
func pointValue(v any) motion.Point {
	switch p := v.(type) {
	case motion.Point:
		return p
	case map[string]any:
		x, _ := p["x"].(float64)
		y, _ := p["y"].(float64)
		return motion.Point{X: x, Y: y}
	}
	return motion.Point{X: motion.FrameCenter, Y: motion.FrameCenter}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
