package share

import (
	"net/http/httptest"
	"strings"
	"testing"

	"asistencia/internal/attendance"
)

func TestEvidenceFileName(t *testing.T) {
	rec := attendance.Record{Date: "2/1/2026", Time: "09:15:00"}
	if got := EvidenceFileName(rec); got != "asistencia_2-1-2026_09-15-00.jpg" {
		t.Errorf("got %q", got)
	}
}

func TestSummaryText(t *testing.T) {
	rec := attendance.Record{Actor: "juan@co", Kind: attendance.Entry, Date: "2/1/2026", Time: "09:15:00"}
	got := SummaryText(rec)
	for _, want := range []string{"juan@co", "2/1/2026 09:15:00", "Entrada"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q: %q", want, got)
		}
	}
}

func TestWriteJPEG(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJPEG(rr, "asistencia_2-1-2026_09-15-00.jpg", []byte{0xff, 0xd8})

	if ct := rr.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type: %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "asistencia_2-1-2026_09-15-00.jpg") {
		t.Errorf("content disposition: %q", cd)
	}
	if rr.Body.Len() != 2 {
		t.Errorf("body length: %d", rr.Body.Len())
	}
}
