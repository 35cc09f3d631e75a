package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"asistencia/internal/attendance"
	"asistencia/internal/capture"
	"asistencia/internal/geocode"
	"asistencia/internal/watermark"
)

type fakeTime struct{ stamp string }

func (f fakeTime) Now(ctx context.Context) string { return f.stamp }

type fakePlaces struct{ name string }

func (f fakePlaces) Reverse(ctx context.Context, lat, lng float64) string { return f.name }

type failingLocator struct{}

func (failingLocator) Position(ctx context.Context) (Position, error) {
	return Position{}, errors.New("permission denied")
}

func frameSource(t *testing.T) *capture.DataURLSource {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240)), nil); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return capture.NewDataURL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func testRunner(place string) *Runner {
	r := NewRunner(fakeTime{stamp: "2/1/2026 09:15:00"}, fakePlaces{name: place}, watermark.NewStamper(nil), time.Second)
	r.clock = func() time.Time { return time.Date(2026, 1, 2, 9, 15, 0, 0, time.Local) }
	return r
}

func TestRunProducesFiveFieldRecord(t *testing.T) {
	r := testRunner("Col. Centro, Cuauhtemoc, CDMX")
	src := frameSource(t)

	res, err := r.Run(context.Background(), src, Fixed{Lat: 19.4326, Lng: -99.1332, Accuracy: 15}, "juan@co", attendance.Entry)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rec := res.Record
	if rec.Actor != "juan@co" || rec.Kind != attendance.Entry {
		t.Errorf("actor/kind: got %q/%q", rec.Actor, rec.Kind)
	}
	if rec.Date != "2/1/2026" || rec.Time != "09:15:00" {
		t.Errorf("date/time: got %q/%q", rec.Date, rec.Time)
	}
	if rec.Place != "Col. Centro, Cuauhtemoc, CDMX" {
		t.Errorf("place: got %q", rec.Place)
	}
	if rec.ID != "" {
		t.Errorf("record carries storage id before persistence: %q", rec.ID)
	}

	if len(res.Image) == 0 {
		t.Error("no composited image produced")
	}
	if img, err := jpeg.Decode(bytes.NewReader(res.Image)); err != nil {
		t.Errorf("image not a valid JPEG: %v", err)
	} else if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("image dimensions changed: %dx%d", b.Dx(), b.Dy())
	}
	if res.Coords != "19.43260, -99.13320" {
		t.Errorf("coords: got %q", res.Coords)
	}
	if res.Warning != "" {
		t.Errorf("unexpected warning: %q", res.Warning)
	}
	if src.Active() {
		t.Error("source not released after run")
	}
}

func TestRunLowAccuracyWarnsButCompletes(t *testing.T) {
	r := testRunner("Col. Centro")
	res, err := r.Run(context.Background(), frameSource(t), Fixed{Lat: 19.4326, Lng: -99.1332, Accuracy: 250}, "juan@co", attendance.Exit)
	if err != nil {
		t.Fatalf("low accuracy must not abort: %v", err)
	}
	if res.Warning == "" {
		t.Error("expected low accuracy warning")
	}
}

func TestRunLocationFailureIsFatalAndReleases(t *testing.T) {
	r := testRunner("Col. Centro")
	src := frameSource(t)
	_, err := r.Run(context.Background(), src, failingLocator{}, "juan@co", attendance.Entry)
	if !errors.Is(err, ErrLocationUnavailable) {
		t.Fatalf("want ErrLocationUnavailable, got %v", err)
	}
	if src.Active() {
		t.Error("source leaked after fatal error")
	}
}

func TestRunCameraNotReadyIsFatal(t *testing.T) {
	r := testRunner("Col. Centro")
	_, err := r.Run(context.Background(), capture.NewDataURL(""), Fixed{Lat: 1, Lng: 1}, "juan@co", attendance.Entry)
	if !errors.Is(err, capture.ErrCameraNotReady) {
		t.Fatalf("want ErrCameraNotReady, got %v", err)
	}
}

func TestRunGeocodeSentinelStillSucceeds(t *testing.T) {
	r := testRunner(geocode.SentinelNoConnection)
	res, err := r.Run(context.Background(), frameSource(t), Fixed{Lat: 19.4326, Lng: -99.1332, Accuracy: 15}, "juan@co", attendance.Entry)
	if err != nil {
		t.Fatalf("sentinel place must not abort: %v", err)
	}
	if res.Record.Place != geocode.SentinelNoConnection {
		t.Errorf("place: want sentinel, got %q", res.Record.Place)
	}
}

func TestFixedRejectsNonFiniteCoordinates(t *testing.T) {
	bad := Fixed{Lat: nan(), Lng: -99.1}
	if _, err := bad.Position(context.Background()); err == nil {
		t.Error("expected error for NaN latitude")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
