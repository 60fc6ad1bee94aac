// Package export renders intake history for sharing outside the app.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/Savantrexs/MedConfirm/internal/store"
)

// WriteCSV writes one row per intake log, newest first, with the
// medication's display fields resolved
func WriteCSV(w io.Writer, meds []store.Medication, logs []store.IntakeLog) error {
	names := make(map[string]*store.Medication, len(meds))
	for i := range meds {
		names[meds[i].ID] = &meds[i]
	}

	sorted := make([]store.IntakeLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TakenAt.After(sorted[j].TakenAt)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Time", "Medication", "Dosage", "Note"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, log := range sorted {
		name, dosage := "Unknown", ""
		if med, ok := names[log.MedicationID]; ok {
			name = med.Name
			dosage = med.DosageText
		}
		row := []string{
			log.TakenAt.Format("2006-01-02"),
			log.TakenAt.Format("15:04"),
			name,
			dosage,
			log.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
