package watermark

import (
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
)

// bannerFont is a bold proportional face for the ENTRADA/SALIDA banner;
// bodyFont is a bold monospace face for the info band.
var (
	bannerFont *truetype.Font
	bodyFont   *truetype.Font
)

func init() {
	bannerFont, _ = truetype.Parse(gobold.TTF)
	bodyFont, _ = truetype.Parse(gomonobold.TTF)
}

// newFace builds a face at the given pixel size. Faces carry per-size glyph
// caches and are not safe for concurrent use, so each compose call makes its
// own and closes it when done.
func newFace(f *truetype.Font, px float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: px, DPI: 72})
}

// textWidth measures s with the same face that will draw it.
func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}
