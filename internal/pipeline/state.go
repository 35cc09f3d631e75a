package pipeline

import "time"

// State is a step of the attendance capture flow.
type State int

const (
	StateIdle State = iota
	StateCameraActive
	StateProcessing
	StatePreview
	StatePersisting
	StateSuccess
)

var stateNames = map[State]string{
	StateIdle:         "idle",
	StateCameraActive: "camera_active",
	StateProcessing:   "processing",
	StatePreview:      "preview",
	StatePersisting:   "persisting",
	StateSuccess:      "success",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Event drives state transitions.
type Event int

const (
	EventStartCamera Event = iota
	EventCapture
	EventComposited
	EventConfirm
	EventPersisted
	EventPersistFailed
	EventFatal
	EventCancel
	EventExpire
)

var eventNames = map[Event]string{
	EventStartCamera:   "start_camera",
	EventCapture:       "capture",
	EventComposited:    "composited",
	EventConfirm:       "confirm",
	EventPersisted:     "persisted",
	EventPersistFailed: "persist_failed",
	EventFatal:         "fatal",
	EventCancel:        "cancel",
	EventExpire:        "expire",
}

func (e Event) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return "unknown"
}

// SuccessTimeout is how long Success lingers before the session auto-expires.
// A shared device must never be left authenticated.
const SuccessTimeout = 3 * time.Second

// Next is the pure transition function. Unknown (state, event) pairs keep
// the current state.
func Next(s State, e Event) State {
	switch e {
	case EventCancel:
		// Processing and Persisting cannot be aborted mid-flight; there is
		// no partial write of context fields.
		if s == StateProcessing || s == StatePersisting {
			return s
		}
		return StateIdle
	case EventFatal:
		if s == StateCameraActive || s == StateProcessing {
			return StateIdle
		}
		return s
	}

	switch {
	case s == StateIdle && e == EventStartCamera:
		return StateCameraActive
	case s == StateCameraActive && e == EventCapture:
		return StateProcessing
	case s == StateProcessing && e == EventComposited:
		return StatePreview
	case s == StatePreview && e == EventConfirm:
		return StatePersisting
	case s == StatePersisting && e == EventPersisted:
		return StateSuccess
	case s == StatePersisting && e == EventPersistFailed:
		// Captured image and context are preserved for a retry.
		return StatePreview
	case s == StateSuccess && e == EventExpire:
		return StateIdle
	}
	return s
}
