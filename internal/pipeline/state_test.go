package pipeline

import "testing"

func TestHappyPathTransitions(t *testing.T) {
	steps := []struct {
		event Event
		want  State
	}{
		{EventStartCamera, StateCameraActive},
		{EventCapture, StateProcessing},
		{EventComposited, StatePreview},
		{EventConfirm, StatePersisting},
		{EventPersisted, StateSuccess},
		{EventExpire, StateIdle},
	}
	s := StateIdle
	for _, step := range steps {
		s = Next(s, step.event)
		if s != step.want {
			t.Fatalf("after %v: want %v, got %v", step.event, step.want, s)
		}
	}
}

func TestCancelReturnsToIdleBeforeProcessing(t *testing.T) {
	for _, s := range []State{StateIdle, StateCameraActive, StatePreview, StateSuccess} {
		if got := Next(s, EventCancel); got != StateIdle {
			t.Errorf("cancel from %v: want idle, got %v", s, got)
		}
	}
}

func TestCancelIgnoredMidFlight(t *testing.T) {
	if got := Next(StateProcessing, EventCancel); got != StateProcessing {
		t.Errorf("cancel during processing: want processing, got %v", got)
	}
	if got := Next(StatePersisting, EventCancel); got != StatePersisting {
		t.Errorf("cancel during persisting: want persisting, got %v", got)
	}
}

func TestFatalErrorRoutesToIdle(t *testing.T) {
	if got := Next(StateCameraActive, EventFatal); got != StateIdle {
		t.Errorf("fatal in camera_active: want idle, got %v", got)
	}
	if got := Next(StateProcessing, EventFatal); got != StateIdle {
		t.Errorf("fatal in processing: want idle, got %v", got)
	}
}

func TestPersistFailureKeepsWork(t *testing.T) {
	if got := Next(StatePersisting, EventPersistFailed); got != StatePreview {
		t.Errorf("persist failure: want preview, got %v", got)
	}
}

func TestUnknownPairsKeepState(t *testing.T) {
	cases := []struct {
		s State
		e Event
	}{
		{StateIdle, EventCapture},
		{StateIdle, EventConfirm},
		{StatePreview, EventCapture},
		{StateSuccess, EventStartCamera},
		{StateProcessing, EventPersisted},
	}
	for _, tc := range cases {
		if got := Next(tc.s, tc.e); got != tc.s {
			t.Errorf("%v + %v: want unchanged, got %v", tc.s, tc.e, got)
		}
	}
}
