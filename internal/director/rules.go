package director

import (
	"hash/fnv"
	"math"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/motion"
)

// Canonical rule names and priorities
const (
	RuleShortClip         = "short_clip"
	RuleNoFace            = "no_face"
	RuleEmotionImportance = "emotion_importance"
	RuleCatchAll          = "catch_all"

	PriorityShortClip         = 10
	PriorityNoFace            = 20
	PriorityEmotionImportance = 30
	PriorityCatchAll          = 1000
)

func (d *Director) canonicalRules() []Rule {
	return []Rule{
		{
			Priority: PriorityShortClip,
			Name:     RuleShortClip,
			Match: func(c motion.SegmentContext) bool {
				return c.DurationMs < d.policy.ShortClipMs
			},
			Apply: d.shortClip,
		},
		{
			Priority: PriorityNoFace,
			Name:     RuleNoFace,
			Match: func(c motion.SegmentContext) bool {
				return !c.HasFace
			},
			Apply: d.noFace,
		},
		{
			Priority: PriorityEmotionImportance,
			Name:     RuleEmotionImportance,
			Match: func(c motion.SegmentContext) bool {
				if !c.HasFace || c.DurationMs < d.policy.ShortClipMs {
					return false
				}
				_, ok := d.policy.Lookup(c.Emotion, c.Importance)
				return ok
			},
			Apply: d.emotionImportance,
		},
		{
			Priority: PriorityCatchAll,
			Name:     RuleCatchAll,
			Match:    func(motion.SegmentContext) bool { return true },
			Apply:    d.catchAll,
		},
	}
}

// shortClip keeps clips under the threshold nearly still
func (d *Director) shortClip(c motion.SegmentContext) motion.TransformParams {
	delta := d.policy.ShortClipDeltas[c.Importance]
	delta = math.Min(math.Max(delta, 0), d.policy.ShortClipMaxDelta)

	easing := motion.EasingLinear
	if delta == 0 {
		easing = motion.EasingHold
	}

	x, y := d.anchor(c)
	return motion.TransformParams{
		StartScale:  1.0,
		EndScale:    1.0 + delta,
		PositionX:   x,
		PositionY:   y,
		Easing:      easing,
		RuleApplied: RuleShortClip,
	}
}

// noFace is a Ken-Burns move that ignores face geometry
func (d *Director) noFace(c motion.SegmentContext) motion.TransformParams {
	key := config.NoFaceDefault
	switch c.Emotion {
	case motion.EmotionExcited:
		key = config.NoFaceExcited
	case motion.EmotionSad:
		key = config.NoFaceSad
	}
	spec := d.policy.NoFace[key]

	side := panSide(c.SegmentID)
	return motion.TransformParams{
		StartScale:  math.Max(spec.StartScale, 1.0),
		EndScale:    math.Max(spec.EndScale, 1.0),
		PositionX:   motion.Clamp(motion.FrameCenter+side*spec.PanX, 0, 1),
		PositionY:   motion.Clamp(motion.FrameCenter+spec.PanY, 0, 1),
		Easing:      easingOr(spec.Easing, motion.EasingEaseInOut),
		RuleApplied: RuleNoFace + "_" + key,
	}
}

// emotionImportance reads the lookup table and frames the face
func (d *Director) emotionImportance(c motion.SegmentContext) motion.TransformParams {
	spec, ok := d.policy.Lookup(c.Emotion, c.Importance)
	if !ok {
		return d.catchAll(c)
	}

	end := spec.EndScale
	if d.policy.CloseUpFaceRatio > 0 && c.FaceRatio >= d.policy.CloseUpFaceRatio {
		end = spec.StartScale + spec.Delta()*d.policy.CloseUpDamping
	}

	x, y := d.anchor(c)
	return motion.TransformParams{
		StartScale:  math.Max(spec.StartScale, 1.0),
		EndScale:    math.Max(end, 1.0),
		PositionX:   x,
		PositionY:   y,
		Easing:      easingOr(spec.Easing, motion.EasingEaseInOut),
		RuleApplied: "emotion_" + string(c.Emotion) + "_" + string(c.Importance),
	}
}

// catchAll is the neutral/medium default
func (d *Director) catchAll(c motion.SegmentContext) motion.TransformParams {
	spec := d.policy.Default
	x, y := d.anchor(c)
	return motion.TransformParams{
		StartScale:  math.Max(spec.StartScale, 1.0),
		EndScale:    math.Max(spec.EndScale, 1.0),
		PositionX:   x,
		PositionY:   y,
		Easing:      easingOr(spec.Easing, motion.EasingEaseInOut),
		RuleApplied: RuleCatchAll,
	}
}

// anchor returns the pan target. Faces are clamped so they stay in frame.
func (d *Director) anchor(c motion.SegmentContext) (float64, float64) {
	if !c.HasFace {
		return motion.FrameCenter, motion.FrameCenter
	}
	return motion.Clamp(c.FaceCenterX, d.policy.AnchorMin, d.policy.AnchorMax),
		motion.Clamp(c.FaceCenterY, d.policy.AnchorMin, d.policy.AnchorMax)
}

// panSide alternates Ken-Burns drift between left and right by segment id
func panSide(segmentID string) float64 {
	h := fnv.New32a()
	h.Write([]byte(segmentID))
	if h.Sum32()%2 == 0 {
		return 1
	}
	return -1
}

func easingOr(e, fallback motion.Easing) motion.Easing {
	if e.Valid() {
		return e
	}
	return fallback
}
