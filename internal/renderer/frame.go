package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
)

// CropRect returns the region of bounds visible at state, keeping the
// camera center inside the frame the same way the zoompan filter does.
func CropRect(bounds image.Rectangle, state CameraState) image.Rectangle {
	zoom := state.Zoom
	if zoom < 1 {
		zoom = 1
	}
	srcW := float64(bounds.Dx())
	srcH := float64(bounds.Dy())
	w := srcW / zoom
	h := srcH / zoom

	x := math.Max(0, math.Min(srcW-w, state.X*srcW-w/2))
	y := math.Max(0, math.Min(srcH-h, state.Y*srcH-h/2))

	origin := image.Pt(bounds.Min.X+int(math.Round(x)), bounds.Min.Y+int(math.Round(y)))
	return image.Rectangle{
		Min: origin,
		Max: image.Pt(origin.X+int(math.Round(w)), origin.Y+int(math.Round(h))),
	}.Intersect(bounds)
}

// RenderFrame previews a framing of src at the given output size.
// Rotation is not previewed.
func RenderFrame(src image.Image, state CameraState, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	crop := CropRect(src.Bounds(), state)
	if crop.Empty() {
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// WritePNG encodes a rendered frame
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}
