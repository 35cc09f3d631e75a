package export

import (
	"bytes"
	"encoding/csv"
	"time"

	"asistencia/internal/attendance"
)

// csvHeader is the fixed column layout of an attendance export, matching
// the five persisted record fields.
var csvHeader = []string{"Usuario", "Tipo", "Fecha", "Hora", "Localidad"}

// RecordsCSV renders records as RFC-4180 CSV. Free-text fields (the place
// name in particular) are quote-escaped by the writer as needed.
func RecordsCSV(records []attendance.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{rec.Actor, string(rec.Kind), rec.Date, rec.Time, rec.Place}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName names an export after its day range, or after today when the
// export is unbounded.
func FileName(from, to string) string {
	if from != "" && to != "" {
		return "asistencia_" + from + "_" + to + ".csv"
	}
	return "asistencia_" + time.Now().Format("2006-01-02") + ".csv"
}
