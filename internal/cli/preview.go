package cli

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/camwork/internal/engine"
	"github.com/ivlev/camwork/internal/renderer"
)

type previewOptions struct {
	segment    string
	frame      string
	out        string
	fps        int
	width      int
	height     int
	noSequence bool
	faces      string
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview <scenario>",
		Short: "Print ffmpeg zoompan filters and render framing previews",
		Long: `Synthesizes a scenario and prints one ffmpeg zoompan filter per clip.

With --frame, the given still image is cropped to each clip's first and
last camera state and written as PNG files under --out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.segment, "segment", "", "only preview this segment id")
	cmd.Flags().StringVar(&opts.frame, "frame", "", "still image (png or jpeg) to render previews from")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "preview", "directory for preview images")
	cmd.Flags().IntVar(&opts.fps, "fps", 30, "output frame rate")
	cmd.Flags().IntVar(&opts.width, "width", 1280, "output width")
	cmd.Flags().IntVar(&opts.height, "height", 720, "output height")
	cmd.Flags().BoolVar(&opts.noSequence, "no-sequence", false, "disable diversity and cool-down rewriting")
	cmd.Flags().StringVar(&opts.faces, "faces", "", "sidecar file of face detection results keyed by segment id")

	return cmd
}

func runPreview(rootOpts *RootOptions, opts *previewOptions, path string, cmd *cobra.Command) error {
	if opts.fps <= 0 || opts.width <= 0 || opts.height <= 0 {
		return NewExitError(ExitCommandError, "fps, width and height must be positive")
	}
	logger := rootOpts.logger(cmd.ErrOrStderr())

	scenario, err := loadScenario(path)
	if err != nil {
		return err
	}
	detector, err := detectorFor(opts.faces)
	if err != nil {
		return err
	}
	plan, err := buildPlan(cmd.Context(), rootOpts, scenario, detector, scenario.SequenceEnabled() && !opts.noSequence, logger)
	if err != nil {
		return err
	}

	var src image.Image
	if opts.frame != "" {
		src, err = loadImage(opts.frame)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load frame", err)
		}
		if err := os.MkdirAll(opts.out, 0755); err != nil {
			return WrapExitError(ExitFailure, "failed to create output directory", err)
		}
	}

	w := cmd.OutOrStdout()
	found := false
	for _, clip := range plan.Clips {
		if opts.segment != "" && clip.SegmentID != opts.segment {
			continue
		}
		found = true

		durationMs := clipDuration(clip)
		fmt.Fprintf(w, "# %s\n", motionSummary(clip))
		fmt.Fprintln(w, renderer.ZoomPanFilter(clip.Params, durationMs, opts.fps, opts.width, opts.height))

		if src == nil {
			continue
		}
		for _, at := range []struct {
			name   string
			timeMs float64
		}{{"start", 0}, {"end", float64(durationMs)}} {
			state := renderer.InterpolateKeyframes(clip.Keyframes, at.timeMs)
			file := filepath.Join(opts.out, fmt.Sprintf("%s_%s.png", clip.SegmentID, at.name))
			if err := writeFrame(file, renderer.RenderFrame(src, state, opts.width, opts.height)); err != nil {
				return WrapExitError(ExitFailure, "failed to write preview", err)
			}
			fmt.Fprintf(w, "  %s: zoom %.3f at (%.2f, %.2f) -> %s\n", at.name, state.Zoom, state.X, state.Y, file)
		}
	}

	if opts.segment != "" && !found {
		return NewExitError(ExitCommandError, fmt.Sprintf("segment %q not found in plan", opts.segment))
	}
	return nil
}

// clipDuration reads the clip length back from its last keyframe
func clipDuration(clip engine.Result) int {
	duration := 0
	for _, kf := range clip.Keyframes {
		if kf.TimeMs > duration {
			duration = kf.TimeMs
		}
	}
	return duration
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func writeFrame(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderer.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
