package share

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"asistencia/internal/attendance"
)

// EvidenceFileName names a composited image after its record so shared
// files sort naturally: asistencia_<fecha>_<hora>.jpg with separators made
// filesystem-safe.
func EvidenceFileName(rec attendance.Record) string {
	fecha := strings.ReplaceAll(rec.Date, "/", "-")
	hora := strings.ReplaceAll(rec.Time, ":", "-")
	return "asistencia_" + fecha + "_" + hora + ".jpg"
}

// SummaryText is the human-readable caption attached when the image is
// handed to a share surface.
func SummaryText(rec attendance.Record) string {
	return fmt.Sprintf("Usuario: %s\nFecha: %s %s\nAcción: %s", rec.Actor, rec.Date, rec.Time, rec.Kind)
}

// WriteJPEG serves the evidence image as a download attachment, the
// fallback when no OS share sheet is available.
func WriteJPEG(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(data)
}
