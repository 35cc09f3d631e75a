package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"asistencia/internal/attendance"
	"asistencia/internal/capture"
	"asistencia/internal/watermark"
)

// ErrLocationUnavailable reports a failed or timed-out geolocation fix. A
// record without a location has no evidentiary value, so this aborts the
// whole attempt.
var ErrLocationUnavailable = errors.New("location unavailable")

// AccuracyWarnMeters is the fix accuracy beyond which a warning is attached.
// Low accuracy never aborts the pipeline.
const AccuracyWarnMeters = 100.0

// Position is a one-shot geolocation fix.
type Position struct {
	Lat      float64
	Lng      float64
	Accuracy float64
}

// Locator performs the one-shot, high-accuracy position lookup. The runner
// bounds it with the locate timeout.
type Locator interface {
	Position(ctx context.Context) (Position, error)
}

// Fixed adapts device-submitted coordinates to Locator.
type Fixed Position

// Position validates and returns the wrapped fix.
func (f Fixed) Position(ctx context.Context) (Position, error) {
	p := Position(f)
	for _, v := range []float64{p.Lat, p.Lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Position{}, errors.New("non-finite coordinate")
		}
	}
	return p, nil
}

// TimeSource yields a display-formatted trusted timestamp; it never fails.
type TimeSource interface {
	Now(ctx context.Context) string
}

// PlaceSource resolves coordinates to a place name; it never fails.
type PlaceSource interface {
	Reverse(ctx context.Context, lat, lng float64) string
}

// Result is everything a successful run produces: the composited evidence
// image and the record ready for persistence.
type Result struct {
	Image     []byte
	Record    attendance.Record
	Timestamp string
	Coords    string
	Warning   string
}

// Runner sequences the capture flow: frame grab, geolocation, trusted time,
// reverse geocoding, compositing and record assembly. Stages run strictly in
// order; only geolocation failure and compositing failure are fatal.
type Runner struct {
	times         TimeSource
	places        PlaceSource
	stamper       *watermark.Stamper
	locateTimeout time.Duration

	clock func() time.Time
}

// NewRunner wires the context sources and the stamper.
func NewRunner(times TimeSource, places PlaceSource, stamper *watermark.Stamper, locateTimeout time.Duration) *Runner {
	if locateTimeout <= 0 {
		locateTimeout = 5 * time.Second
	}
	return &Runner{
		times:         times,
		places:        places,
		stamper:       stamper,
		locateTimeout: locateTimeout,
		clock:         time.Now,
	}
}

// Run executes one attendance attempt for the actor. The source is released
// on every exit path.
func (r *Runner) Run(ctx context.Context, src capture.Source, loc Locator, actor string, kind attendance.ActionKind) (*Result, error) {
	if actor == "" {
		return nil, errors.New("actor required")
	}
	if !kind.Valid() {
		return nil, errors.New("invalid action kind")
	}
	defer src.Release()

	frame, err := src.Grab(ctx)
	if err != nil {
		stampsTotal.WithLabelValues(string(kind), "capture_failed").Inc()
		return nil, err
	}

	locCtx, cancel := context.WithTimeout(ctx, r.locateTimeout)
	defer cancel()
	start := time.Now()
	pos, err := loc.Position(locCtx)
	stageDuration.WithLabelValues("locate").Observe(time.Since(start).Seconds())
	if err != nil {
		stampsTotal.WithLabelValues(string(kind), "location_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	warning := ""
	if pos.Accuracy > AccuracyWarnMeters {
		warning = fmt.Sprintf("low GPS accuracy: %.0fm", pos.Accuracy)
		fallbacksTotal.WithLabelValues("low_accuracy").Inc()
		log.Printf("low accuracy fix for %s: %.0fm", actor, pos.Accuracy)
	}

	start = time.Now()
	timestamp := r.times.Now(ctx)
	stageDuration.WithLabelValues("time").Observe(time.Since(start).Seconds())

	start = time.Now()
	place := r.places.Reverse(ctx, pos.Lat, pos.Lng)
	stageDuration.WithLabelValues("geocode").Observe(time.Since(start).Seconds())

	coords := fmt.Sprintf("%.5f, %.5f", pos.Lat, pos.Lng)
	mode := watermark.ModeEntry
	if kind == attendance.Exit {
		mode = watermark.ModeExit
	}

	start = time.Now()
	img, err := r.stamper.Stamp(frame, watermark.Info{
		EmployeeID: actor,
		Timestamp:  timestamp,
		Coords:     coords,
		Place:      place,
		Mode:       mode,
	})
	stageDuration.WithLabelValues("compose").Observe(time.Since(start).Seconds())
	if err != nil {
		stampsTotal.WithLabelValues(string(kind), "compose_failed").Inc()
		return nil, err
	}

	stampsTotal.WithLabelValues(string(kind), "ok").Inc()
	return &Result{
		Image:     img,
		Record:    attendance.NewRecord(actor, kind, place, r.clock()),
		Timestamp: timestamp,
		Coords:    coords,
		Warning:   warning,
	}, nil
}
