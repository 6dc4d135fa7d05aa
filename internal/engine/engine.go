// Package engine runs a full batch: the rule engine fans out across
// segments, then the sequence processor walks the batch in timeline order.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/director"
	"github.com/ivlev/camwork/internal/logging"
	"github.com/ivlev/camwork/internal/motion"
	"github.com/ivlev/camwork/internal/sequence"
	"github.com/ivlev/camwork/internal/system"
)

// Options configures a Synthesizer. Zero Workers sizes the pool from the host.
type Options struct {
	Tuning  config.Tuning
	Workers int
	Logger  *slog.Logger
}

// Synthesizer holds no per-batch state; concurrent batches are independent.
type Synthesizer struct {
	director   *director.Director
	sequencer  *sequence.Processor
	classifier motion.Classifier
	workers    int
	logger     *slog.Logger
}

// NewSynthesizer wires the rule engine and the sequence processor
func NewSynthesizer(opts Options) *Synthesizer {
	workers := opts.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Synthesizer{
		director:   director.NewDirector(opts.Tuning.Rules),
		sequencer:  sequence.NewProcessor(opts.Tuning.Sequence, opts.Tuning.Classifier, opts.Tuning.Rules.StrongestDelta()),
		classifier: opts.Tuning.Classifier,
		workers:    system.ClampWorkers(workers),
		logger:     logging.WithComponent(logger, "engine"),
	}
}

// Director exposes the rule engine, e.g. for ListRules
func (s *Synthesizer) Director() *director.Director {
	return s.director
}

// Synthesize returns the final motion for each segment, in input order.
// Every segment must have a positive duration; use Partition to filter first.
func (s *Synthesizer) Synthesize(ctx context.Context, segments []motion.SegmentContext, sequenceAware bool) ([]motion.TransformParams, error) {
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	logger := logging.WithBatchID(s.logger, uuid.NewString())

	raw := make([]motion.TransformParams, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range segments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw[i] = s.director.Process(segments[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rule evaluation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]sequence.Item, len(segments))
	for i := range segments {
		items[i] = sequence.Item{Params: raw[i], Context: segments[i]}
	}
	final := s.sequencer.Process(items, sequenceAware)

	rewritten := 0
	for i := range final {
		if final[i] != raw[i] {
			rewritten++
		}
	}
	logger.Debug("synthesized batch",
		"segments", len(segments),
		"sequence_aware", sequenceAware,
		"rewritten", rewritten,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return final, nil
}

// Rejection reports a segment that was filtered out before synthesis
type Rejection struct {
	SegmentID string `json:"segment_id" yaml:"segment_id"`
	Reason    string `json:"reason" yaml:"reason"`
}

// Partition splits segments into valid ones and individually rejected ones,
// keeping the order of the valid segments.
func Partition(segments []motion.SegmentContext) ([]motion.SegmentContext, []Rejection) {
	valid := make([]motion.SegmentContext, 0, len(segments))
	var rejected []Rejection
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			rejected = append(rejected, Rejection{SegmentID: seg.SegmentID, Reason: err.Error()})
			continue
		}
		valid = append(valid, seg)
	}
	return valid, rejected
}

// Result is the per-segment output handed to callers and persistence
type Result struct {
	SegmentID   string                 `json:"segment_id" yaml:"segment_id"`
	RuleApplied string                 `json:"rule_applied" yaml:"rule_applied"`
	Effect      motion.Effect          `json:"effect" yaml:"effect"`
	Params      motion.TransformParams `json:"params" yaml:"params"`
	Keyframes   []motion.Keyframe      `json:"keyframes" yaml:"keyframes"`
}

// Timeline converts final params into keyframe records. segments and params
// must be the same length and in the same order.
func (s *Synthesizer) Timeline(segments []motion.SegmentContext, params []motion.TransformParams) []Result {
	results := make([]Result, len(params))
	for i, p := range params {
		seg := segments[i]
		results[i] = Result{
			SegmentID:   seg.SegmentID,
			RuleApplied: p.RuleApplied,
			Effect:      s.classifier.Classify(p),
			Params:      p,
			Keyframes:   p.Keyframes(seg.SegmentID, seg.DurationMs),
		}
	}
	return results
}
