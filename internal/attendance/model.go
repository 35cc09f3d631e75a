package attendance

import (
	"errors"
	"strings"
	"time"
)

// ActionKind is the recorded action type, stored in its display form.
type ActionKind string

const (
	Entry ActionKind = "Entrada"
	Exit  ActionKind = "Salida"
)

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	return k == Entry || k == Exit
}

// ParseKind accepts both wire-form ("entry"/"exit") and stored-form
// ("Entrada"/"Salida") action kinds.
func ParseKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "entrada":
		return Entry, nil
	case "exit", "salida":
		return Exit, nil
	}
	return "", errors.New("unknown action kind: " + s)
}

// Day-first layouts without zero padding, matching the reference locale.
const (
	dateLayout = "2/1/2006"
	timeLayout = "15:04:05"
)

// Record is the only persisted entity: exactly five fields, no image data,
// no coordinates. The ID is storage bookkeeping, not a record field.
type Record struct {
	ID    string     `json:"id,omitempty"`
	Actor string     `json:"usuario"`
	Kind  ActionKind `json:"tipo"`
	Date  string     `json:"fecha"`
	Time  string     `json:"hora"`
	Place string     `json:"localidad"`
}

// NewRecord assembles a record from the capture context. Date and time use
// local wall-clock formatting for consistent sorting and export; the
// watermark keeps the best-available authoritative time instead. That
// divergence is intentional.
func NewRecord(actor string, kind ActionKind, place string, now time.Time) Record {
	return Record{
		Actor: actor,
		Kind:  kind,
		Date:  now.Format(dateLayout),
		Time:  now.Format(timeLayout),
		Place: place,
	}
}
