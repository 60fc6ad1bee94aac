package schedule

import (
	"time"

	"github.com/Savantrexs/MedConfirm/internal/store"
)

// Status classifies a medication's current dose state
type Status string

const (
	StatusDueSoon   Status = "due-soon"
	StatusOverdue   Status = "overdue"
	StatusTaken     Status = "taken"
	StatusScheduled Status = "scheduled"
)

const (
	// A dose counts as taken when a log lands inside
	// [scheduled-2h, scheduled+4h]. The late side is wider so a delayed
	// confirmation does not flip an already-taken dose back to overdue.
	takenEarlyMinutes = 120
	takenLateMinutes  = 240

	// Band around the scheduled time that reads as "due soon"
	dueSoonMinutes = 30

	// A second confirmation within this window triggers the duplicate warning
	duplicateWindow = 60 * time.Minute
)

// NextDose describes the next scheduled dose. IsToday=false means the dose
// falls on a future valid day; only the time-of-day is reported, not the
// date it lands on.
type NextDose struct {
	Time    string `json:"time"`
	IsToday bool   `json:"is_today"`
}

// NextDoseAt returns the medication's next scheduled dose relative to now,
// or nil when the medication has no usable times. TimesPerDay carries user
// input order, so candidates are picked by minute-of-day, not position.
func NextDoseAt(med *store.Medication, now time.Time) *NextDose {
	nowMinutes := minuteOf(now)
	today := int(now.Weekday())

	nextClock, nextMinutes := "", 0
	earliestClock, earliestMinutes := "", 0
	for _, clock := range med.TimesPerDay {
		minutes, err := MinuteOfDay(clock)
		if err != nil {
			continue
		}
		if earliestClock == "" || minutes < earliestMinutes {
			earliestClock, earliestMinutes = clock, minutes
		}
		if minutes > nowMinutes && (nextClock == "" || minutes < nextMinutes) {
			nextClock, nextMinutes = clock, minutes
		}
	}

	if containsDay(med.EffectiveDays(), today) && nextClock != "" {
		return &NextDose{Time: nextClock, IsToday: true}
	}

	// No remaining dose today: earliest dose of the next valid day
	if earliestClock != "" {
		return &NextDose{Time: earliestClock, IsToday: false}
	}
	return nil
}

// DoseStatus classifies the medication's dose state at now, given its
// intake history. Malformed schedule entries are skipped rather than
// failing the whole check.
func DoseStatus(med *store.Medication, logs []store.IntakeLog, now time.Time) Status {
	today := int(now.Weekday())
	if !containsDay(med.EffectiveDays(), today) {
		return StatusScheduled
	}

	nowMinutes := minuteOf(now)

	// Closest scheduled time to now, first occurrence winning ties
	closest := -1
	closestDiff := 0
	for _, clock := range med.TimesPerDay {
		minutes, err := MinuteOfDay(clock)
		if err != nil {
			continue
		}
		diff := minutes - nowMinutes
		if diff < 0 {
			diff = -diff
		}
		if closest < 0 || diff < closestDiff {
			closest = minutes
			closestDiff = diff
		}
	}
	if closest < 0 {
		return StatusScheduled
	}

	for _, log := range logs {
		if log.MedicationID != med.ID || !sameLocalDate(log.TakenAt, now) {
			continue
		}
		logMinutes := minuteOf(log.TakenAt)
		if logMinutes >= closest-takenEarlyMinutes && logMinutes <= closest+takenLateMinutes {
			return StatusTaken
		}
	}

	if closest >= nowMinutes-dueSoonMinutes && closest <= nowMinutes+dueSoonMinutes {
		return StatusDueSoon
	}
	if closest < nowMinutes-dueSoonMinutes {
		return StatusOverdue
	}
	return StatusScheduled
}

// LastTaken returns the most recent intake time for the medication
func LastTaken(medicationID string, logs []store.IntakeLog) (time.Time, bool) {
	var last time.Time
	found := false
	for _, log := range logs {
		if log.MedicationID != medicationID {
			continue
		}
		if !found || log.TakenAt.After(last) {
			last = log.TakenAt
			found = true
		}
	}
	return last, found
}

// RecentlyTaken reports whether the medication was confirmed within the
// last hour. Used to warn before logging a duplicate dose; the caller
// decides whether to proceed.
func RecentlyTaken(medicationID string, logs []store.IntakeLog, now time.Time) bool {
	last, ok := LastTaken(medicationID, logs)
	if !ok {
		return false
	}
	return now.Sub(last) < duplicateWindow
}

// ClosestDoseTime returns the scheduled "HH:MM" nearest to now, used to
// decide which dose a confirmation belongs to. Empty when the medication
// has no usable times.
func ClosestDoseTime(med *store.Medication, now time.Time) string {
	nowMinutes := minuteOf(now)
	best := ""
	bestDiff := 0
	for _, clock := range med.TimesPerDay {
		minutes, err := MinuteOfDay(clock)
		if err != nil {
			continue
		}
		diff := minutes - nowMinutes
		if diff < 0 {
			diff = -diff
		}
		if best == "" || diff < bestDiff {
			best = clock
			bestDiff = diff
		}
	}
	return best
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
