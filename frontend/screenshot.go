package frontend

import (
	"image"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/ezrec/chip8/display"
)

// WriteScreenshot encodes frame as a BMP image, each pixel scale x scale.
func WriteScreenshot(w io.Writer, frame *display.Frame, scale int) (err error) {
	scale = max(1, scale)

	src := frame.Image()
	dst := image.NewPaletted(image.Rect(0, 0, display.WIDTH*scale, display.HEIGHT*scale), display.Palette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	err = bmp.Encode(w, dst)

	return
}
