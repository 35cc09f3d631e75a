package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Mode selects the attendance action rendered in the banner.
type Mode string

const (
	ModeEntry Mode = "entry"
	ModeExit  Mode = "exit"
)

// Banner returns the banner caption for the mode.
func (m Mode) Banner() string {
	if m == ModeExit {
		return "SALIDA"
	}
	return "ENTRADA"
}

// Info carries the context values baked into the composited image.
type Info struct {
	EmployeeID string
	Timestamp  string
	Coords     string
	Place      string
	Mode       Mode
}

// ErrBadFrame reports a nil or zero-dimension source frame.
var ErrBadFrame = errors.New("bad source frame")

const (
	jpegQuality = 80
	margin      = 20
	bannerPad   = 20
	bandPad     = 20
	logoScale   = 0.15
	lineSpacing = 1.4
)

var (
	entryColor = color.NRGBA{R: 34, G: 197, B: 94, A: 217}
	exitColor  = color.NRGBA{R: 239, G: 68, B: 68, A: 217}
	bandColor  = color.NRGBA{A: 179}
	textColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Stamper composites attendance evidence onto captured frames. The logo mark
// is best-effort: a nil or zero-sized logo is simply omitted.
type Stamper struct {
	logo image.Image
}

// NewStamper creates a stamper with the given logo mark (may be nil).
func NewStamper(logo image.Image) *Stamper {
	return &Stamper{logo: logo}
}

// Stamp composites info onto src and returns the encoded JPEG. The output
// always has the same pixel dimensions as the input, and identical inputs
// produce identical bytes.
func (s *Stamper) Stamp(src image.Image, info Info) ([]byte, error) {
	img, err := s.Compose(src, info)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose renders the frame, banner, logo and info band onto a fresh canvas
// sized to the source frame.
func (s *Stamper) Compose(src image.Image, info Info) (*image.RGBA, error) {
	if src == nil {
		return nil, ErrBadFrame
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrBadFrame
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)

	s.drawBanner(canvas, info.Mode, w)
	s.drawLogo(canvas, w)
	s.drawInfoBand(canvas, info, w, h)
	return canvas, nil
}

func (s *Stamper) drawBanner(canvas *image.RGBA, mode Mode, w int) {
	text := mode.Banner()
	size := math.Max(40, float64(w)*0.08)
	face := newFace(bannerFont, size)
	defer face.Close()

	tw := textWidth(face, text)
	boxW := tw + bannerPad*2
	boxH := int(size) + bannerPad*2
	boxX := (w - boxW) / 2
	boxY := margin

	bg := entryColor
	if mode == ModeExit {
		bg = exitColor
	}
	fillRect(canvas, image.Rect(boxX, boxY, boxX+boxW, boxY+boxH), bg)
	drawString(canvas, face, text, (w-tw)/2, boxY+bannerPad)
}

func (s *Stamper) drawLogo(canvas *image.RGBA, w int) {
	if s.logo == nil {
		return
	}
	lb := s.logo.Bounds()
	if lb.Dx() <= 0 || lb.Dy() <= 0 {
		return
	}
	lw := int(float64(w) * logoScale)
	lh := int(float64(lw) * float64(lb.Dy()) / float64(lb.Dx()))
	if lw <= 0 || lh <= 0 {
		return
	}
	dst := image.Rect(margin, margin, margin+lw, margin+lh)
	xdraw.ApproxBiLinear.Scale(canvas, dst, s.logo, lb, xdraw.Over, nil)
}

func (s *Stamper) drawInfoBand(canvas *image.RGBA, info Info, w, h int) {
	size := math.Max(20, float64(w)*0.035)
	face := newFace(bodyFont, size)
	defer face.Close()

	lines, lineHeight, bandH := layoutBand(face, info, w, size)

	// The band rectangle is sized before any text is drawn, so the lines
	// always fill it exactly.
	fillRect(canvas, image.Rect(0, h-bandH, w, h), bandColor)

	y := h - bandH + bandPad
	for _, line := range lines {
		drawString(canvas, face, line, bandPad, y)
		y += lineHeight
	}
}

// layoutBand computes the final line set and band height for the info block:
// three header lines plus the word-wrapped address, which may span any number
// of lines.
func layoutBand(face font.Face, info Info, w int, size float64) (lines []string, lineHeight, bandH int) {
	lineHeight = int(size * lineSpacing)
	maxWidth := w - bandPad*2

	lines = []string{
		"ID: " + info.EmployeeID,
		"FECHA: " + info.Timestamp,
		"UBICACION: " + info.Coords,
	}
	lines = append(lines, wrapText(face, "LOCALIDAD: "+info.Place, maxWidth)...)

	bandH = lineHeight*len(lines) + bandPad*2
	return lines, lineHeight, bandH
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// drawString draws s with its top edge at y, matching top-baseline layout.
func drawString(dst *image.RGBA, face font.Face, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.Dot.Y += face.Metrics().Ascent
	d.DrawString(s)
}
