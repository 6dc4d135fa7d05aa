package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/camwork/internal/analyzer"
	"github.com/ivlev/camwork/internal/engine"
	"github.com/ivlev/camwork/internal/store"
)

// DefaultScenarioDir is searched when no scenario file is given
const DefaultScenarioDir = "scenarios"

type synthesizeOptions struct {
	noSequence   bool
	out          string
	dbPath       string
	timelineID   string
	faces        string
	saveScenario string
}

// NewSynthesizeCommand creates the synthesize command.
func NewSynthesizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &synthesizeOptions{}

	cmd := &cobra.Command{
		Use:   "synthesize [scenario]",
		Short: "Synthesize camera keyframes for a scenario file",
		Long: `Reads a YAML scenario of segments, runs the rule engine and the sequence
processor and prints (or writes) the resulting keyframe plan.

Without an argument the most recent scenario in ./scenarios is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runSynthesize(cmd.Context(), rootOpts, opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.noSequence, "no-sequence", false, "disable diversity and cool-down rewriting")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the plan to a file (.yaml or .json), or a timestamped file in a directory, instead of stdout")
	cmd.Flags().StringVar(&opts.dbPath, "db", rootOpts.Runtime.DBPath, "persist keyframes into this SQLite database")
	cmd.Flags().StringVar(&opts.timelineID, "timeline", "", "timeline id (overrides the scenario)")
	cmd.Flags().StringVar(&opts.faces, "faces", "", "sidecar file of face detection results keyed by segment id")
	cmd.Flags().StringVar(&opts.saveScenario, "save-scenario", "", "write the normalized scenario that was synthesized to this file")

	return cmd
}

func runSynthesize(ctx context.Context, rootOpts *RootOptions, opts *synthesizeOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := rootOpts.logger(cmd.ErrOrStderr())

	scenario, err := loadScenario(path)
	if err != nil {
		return err
	}
	if opts.timelineID != "" {
		scenario.TimelineID = opts.timelineID
	}
	sequenceAware := scenario.SequenceEnabled() && !opts.noSequence

	if opts.saveScenario != "" {
		normalized := scenario.Normalized()
		*normalized.SequenceAware = sequenceAware
		if err := engine.WriteScenario(normalized, opts.saveScenario); err != nil {
			return WrapExitError(ExitFailure, "failed to write scenario", err)
		}
		logger.Info("saved scenario", "path", opts.saveScenario)
	}

	detector, err := detectorFor(opts.faces)
	if err != nil {
		return err
	}

	plan, err := buildPlan(ctx, rootOpts, scenario, detector, sequenceAware, logger)
	if err != nil {
		return err
	}

	if opts.dbPath != "" {
		if err := persistPlan(ctx, opts.dbPath, plan, logger); err != nil {
			return err
		}
	}

	if opts.out != "" {
		planPath := resolvePlanPath(opts.out)
		if err := engine.WritePlan(plan, planPath); err != nil {
			return WrapExitError(ExitFailure, "failed to write plan", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan written: %s (%d clips, %d rejected)\n", planPath, len(plan.Clips), len(plan.Rejected))
		return nil
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Encode(plan, func(w io.Writer) { printPlan(w, plan) })
}

// resolvePlanPath picks a timestamped file name when out is a directory
func resolvePlanPath(out string) string {
	if strings.HasSuffix(out, string(os.PathSeparator)) || strings.HasSuffix(out, "/") {
		return engine.GeneratePlanPath(out)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return engine.GeneratePlanPath(out)
	}
	return out
}

// loadScenario reads path, or the newest scenario in DefaultScenarioDir
func loadScenario(path string) (*engine.Scenario, error) {
	if path == "" {
		latest, err := engine.FindLatestScenario(DefaultScenarioDir)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "no scenario given", err)
		}
		path = latest
	}

	scenario, err := engine.ReadScenario(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read scenario", err)
	}
	return scenario, nil
}

// detectorFor serves faces from a sidecar file, or reports no face
func detectorFor(facesPath string) (analyzer.Detector, error) {
	if facesPath == "" {
		return analyzer.NewDetector("none", nil)
	}
	faces, err := analyzer.LoadFaces(facesPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load faces", err)
	}
	return analyzer.NewDetector("sidecar", faces)
}

// buildPlan runs a scenario through the engine. Malformed segments are
// reported in the plan instead of failing the batch.
func buildPlan(ctx context.Context, rootOpts *RootOptions, scenario *engine.Scenario, detector analyzer.Detector, sequenceAware bool, logger *slog.Logger) (*engine.Plan, error) {
	synth, err := rootOpts.synthesizer(logger)
	if err != nil {
		return nil, err
	}

	contexts := analyzer.Contextualize(ctx, detector, scenario.Segments, logger)
	valid, rejected := engine.Partition(contexts)
	for _, rej := range rejected {
		logger.Warn("rejected segment", "segment_id", rej.SegmentID, "reason", rej.Reason)
	}

	params, err := synth.Synthesize(ctx, valid, sequenceAware)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "synthesis failed", err)
	}

	return &engine.Plan{
		Version:    engine.ScenarioVersion,
		TimelineID: scenario.TimelineID,
		Clips:      synth.Timeline(valid, params),
		Rejected:   rejected,
	}, nil
}

func persistPlan(ctx context.Context, dbPath string, plan *engine.Plan, logger *slog.Logger) error {
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer st.Close()

	clips := make([]store.Clip, 0, len(plan.Clips))
	for _, clip := range plan.Clips {
		clips = append(clips, store.Clip{ID: clip.SegmentID, RuleApplied: clip.RuleApplied, Keyframes: clip.Keyframes})
	}
	if err := st.SaveTimeline(ctx, plan.TimelineID, clips); err != nil {
		return WrapExitError(ExitFailure, "failed to persist keyframes", err)
	}
	logger.Info("persisted plan", "clips", len(plan.Clips), "db", dbPath)
	return nil
}

func printPlan(w io.Writer, plan *engine.Plan) {
	for _, clip := range plan.Clips {
		p := clip.Params
		fmt.Fprintf(w, "%-12s %-9s %.3f -> %.3f  at (%.2f, %.2f)  %-11s %s\n",
			clip.SegmentID, clip.Effect, p.StartScale, p.EndScale, p.PositionX, p.PositionY, p.Easing, clip.RuleApplied)
	}
	for _, rej := range plan.Rejected {
		fmt.Fprintf(w, "%-12s rejected: %s\n", rej.SegmentID, rej.Reason)
	}
}

// motionSummary is used by preview for one-line clip headers
func motionSummary(clip engine.Result) string {
	return fmt.Sprintf("%s %s (%s, %s)", clip.SegmentID, clip.Effect, clip.Params.Easing, clip.RuleApplied)
}
