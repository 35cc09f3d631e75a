package watermark

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
)

func testFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func testInfo() Info {
	return Info{
		EmployeeID: "juan@co",
		Timestamp:  "2/1/2026 09:15:00",
		Coords:     "19.43260, -99.13320",
		Place:      "Av. Insurgentes Sur 1234, Col. Del Valle, Benito Juarez",
		Mode:       ModeEntry,
	}
}

func TestStampPreservesDimensions(t *testing.T) {
	sizes := []struct{ w, h int }{
		{640, 480},
		{1080, 1920},
		{320, 240},
	}
	s := NewStamper(nil)
	for _, sz := range sizes {
		out, err := s.Stamp(testFrame(sz.w, sz.h), testInfo())
		if err != nil {
			t.Fatalf("Stamp %dx%d failed: %v", sz.w, sz.h, err)
		}
		decoded, err := jpeg.Decode(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("output not a valid JPEG: %v", err)
		}
		b := decoded.Bounds()
		if b.Dx() != sz.w || b.Dy() != sz.h {
			t.Errorf("dimensions changed: want %dx%d, got %dx%d", sz.w, sz.h, b.Dx(), b.Dy())
		}
	}
}

func TestStampRejectsBadFrame(t *testing.T) {
	s := NewStamper(nil)
	if _, err := s.Stamp(nil, testInfo()); !errors.Is(err, ErrBadFrame) {
		t.Errorf("nil frame: want ErrBadFrame, got %v", err)
	}
	if _, err := s.Stamp(image.NewRGBA(image.Rect(0, 0, 0, 0)), testInfo()); !errors.Is(err, ErrBadFrame) {
		t.Errorf("empty frame: want ErrBadFrame, got %v", err)
	}
}

func TestStampDeterministic(t *testing.T) {
	s := NewStamper(testFrame(100, 60))
	frame := testFrame(800, 600)
	info := testInfo()

	first, err := s.Stamp(frame, info)
	if err != nil {
		t.Fatalf("first stamp failed: %v", err)
	}
	second, err := s.Stamp(frame, info)
	if err != nil {
		t.Fatalf("second stamp failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same inputs produced different output bytes")
	}
}

func TestStampToleratesZeroSizedLogo(t *testing.T) {
	s := NewStamper(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if _, err := s.Stamp(testFrame(640, 480), testInfo()); err != nil {
		t.Fatalf("zero-sized logo should be omitted, got error: %v", err)
	}
}

func TestWrapShortAddressSingleLine(t *testing.T) {
	face := newFace(bodyFont, 20)
	defer face.Close()

	lines := wrapText(face, "LOCALIDAD: Centro", 2000)
	if len(lines) != 1 {
		t.Fatalf("short address: want 1 line, got %d: %q", len(lines), lines)
	}
}

func TestWrapNeverSplitsWords(t *testing.T) {
	face := newFace(bodyFont, 20)
	defer face.Close()

	text := "LOCALIDAD: Avenida de los Insurgentes Sur, Colonia Del Valle Centro, Benito Juarez, Ciudad de Mexico"
	maxWidth := 300
	lines := wrapText(face, text, maxWidth)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d line(s)", len(lines))
	}
	for _, line := range lines {
		if textWidth(face, line) > maxWidth {
			// A single word wider than maxWidth is the only allowed overflow.
			if strings.Contains(line, " ") {
				t.Errorf("line %q measures wider than %d", line, maxWidth)
			}
		}
	}
	if strings.Join(lines, " ") != text {
		t.Error("wrapping altered or split the words")
	}
}

func TestBandHeightMatchesLineCount(t *testing.T) {
	face := newFace(bodyFont, 24)
	defer face.Close()

	info := testInfo()
	lines, lineHeight, bandH := layoutBand(face, info, 640, 24)
	if want := lineHeight*len(lines) + 2*bandPad; bandH != want {
		t.Errorf("band height: want %d, got %d", want, bandH)
	}
	if len(lines) < 4 {
		t.Errorf("expected 3 header lines plus address, got %d", len(lines))
	}
}

func TestEmptyAddressStillRendersLabel(t *testing.T) {
	face := newFace(bodyFont, 24)
	defer face.Close()

	info := testInfo()
	info.Place = ""
	lines, _, _ := layoutBand(face, info, 640, 24)
	if len(lines) != 4 {
		t.Fatalf("empty address: want 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[3], "LOCALIDAD:") {
		t.Errorf("address line missing label: %q", lines[3])
	}
}

func TestBannerText(t *testing.T) {
	if got := ModeEntry.Banner(); got != "ENTRADA" {
		t.Errorf("entry banner: got %q", got)
	}
	if got := ModeExit.Banner(); got != "SALIDA" {
		t.Errorf("exit banner: got %q", got)
	}
}
