package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Savantrexs/MedConfirm/internal/store"
)

// June 2, 2025 is a Monday
func monday(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func testMed(times []string, days []int) *store.Medication {
	return &store.Medication{
		ID:          "med-1",
		Name:        "Lisinopril",
		DosageText:  "10mg",
		TimesPerDay: times,
		DaysOfWeek:  days,
		IsActive:    true,
	}
}

func logAt(medID string, at time.Time) store.IntakeLog {
	return store.IntakeLog{ID: "log-" + at.Format("150405"), MedicationID: medID, TakenAt: at}
}

// NextDoseAt

func TestNextDoseAt_BeforeFirstDose(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)

	next := NextDoseAt(med, monday(7, 0))
	require.NotNil(t, next)
	assert.Equal(t, "08:00", next.Time)
	assert.True(t, next.IsToday)
}

func TestNextDoseAt_BetweenDoses(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)

	next := NextDoseAt(med, monday(12, 0))
	require.NotNil(t, next)
	assert.Equal(t, "20:00", next.Time)
	assert.True(t, next.IsToday)
}

func TestNextDoseAt_AfterLastDose(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)

	next := NextDoseAt(med, monday(21, 0))
	require.NotNil(t, next)
	assert.Equal(t, "08:00", next.Time)
	assert.False(t, next.IsToday)
}

func TestNextDoseAt_ExactlyAtDoseTime(t *testing.T) {
	// A dose scheduled for this very minute is not "next"
	med := testMed([]string{"08:00", "20:00"}, nil)

	next := NextDoseAt(med, monday(8, 0))
	require.NotNil(t, next)
	assert.Equal(t, "20:00", next.Time)
	assert.True(t, next.IsToday)
}

func TestNextDoseAt_UnsortedTimes(t *testing.T) {
	// Schedule times arrive in user input order
	med := testMed([]string{"20:00", "08:00"}, nil)

	next := NextDoseAt(med, monday(7, 0))
	require.NotNil(t, next)
	assert.Equal(t, "08:00", next.Time)
	assert.True(t, next.IsToday)

	next = NextDoseAt(med, monday(12, 0))
	require.NotNil(t, next)
	assert.Equal(t, "20:00", next.Time)
	assert.True(t, next.IsToday)

	// After the last dose the fallback is the earliest time, not the
	// first list entry
	next = NextDoseAt(med, monday(21, 0))
	require.NotNil(t, next)
	assert.Equal(t, "08:00", next.Time)
	assert.False(t, next.IsToday)
}

func TestNextDoseAt_NotScheduledToday(t *testing.T) {
	// Tuesday and Thursday only, checked on a Monday
	med := testMed([]string{"08:00"}, []int{2, 4})

	next := NextDoseAt(med, monday(7, 0))
	require.NotNil(t, next)
	assert.Equal(t, "08:00", next.Time)
	assert.False(t, next.IsToday)
}

func TestNextDoseAt_NoUsableTimes(t *testing.T) {
	assert.Nil(t, NextDoseAt(testMed(nil, nil), monday(8, 0)))
	assert.Nil(t, NextDoseAt(testMed([]string{"bogus"}, nil), monday(8, 0)))
}

func TestNextDoseAt_SkipsMalformedTimes(t *testing.T) {
	med := testMed([]string{"bogus", "20:00"}, nil)

	next := NextDoseAt(med, monday(12, 0))
	require.NotNil(t, next)
	assert.Equal(t, "20:00", next.Time)
	assert.True(t, next.IsToday)
}

// DoseStatus

func TestDoseStatus_DueSoon(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)

	assert.Equal(t, StatusDueSoon, DoseStatus(med, nil, monday(8, 10)))
	assert.Equal(t, StatusDueSoon, DoseStatus(med, nil, monday(7, 30)))
	assert.Equal(t, StatusDueSoon, DoseStatus(med, nil, monday(8, 30)))
}

func TestDoseStatus_Overdue(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)

	assert.Equal(t, StatusOverdue, DoseStatus(med, nil, monday(9, 0)))
	// One minute past the due-soon band
	assert.Equal(t, StatusOverdue, DoseStatus(med, nil, monday(8, 31)))
}

func TestDoseStatus_Scheduled(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)

	// Well before the first dose
	assert.Equal(t, StatusScheduled, DoseStatus(med, nil, monday(6, 0)))
}

func TestDoseStatus_TakenWithinWindow(t *testing.T) {
	med := testMed([]string{"08:00", "20:00"}, nil)
	logs := []store.IntakeLog{logAt("med-1", monday(8, 15))}

	assert.Equal(t, StatusTaken, DoseStatus(med, logs, monday(9, 0)))
}

func TestDoseStatus_TakenWindowBoundaries(t *testing.T) {
	med := testMed([]string{"08:00"}, nil)

	// Exactly 2h early counts
	logs := []store.IntakeLog{logAt("med-1", monday(6, 0))}
	assert.Equal(t, StatusTaken, DoseStatus(med, logs, monday(9, 0)))

	// One minute earlier does not
	logs = []store.IntakeLog{logAt("med-1", monday(5, 59))}
	assert.Equal(t, StatusOverdue, DoseStatus(med, logs, monday(9, 0)))

	// Exactly 4h late counts
	logs = []store.IntakeLog{logAt("med-1", monday(12, 0))}
	assert.Equal(t, StatusTaken, DoseStatus(med, logs, monday(12, 0)))

	// One minute later does not
	logs = []store.IntakeLog{logAt("med-1", monday(12, 1))}
	assert.NotEqual(t, StatusTaken, DoseStatus(med, logs, monday(12, 1)))
}

func TestDoseStatus_YesterdayLogIgnored(t *testing.T) {
	med := testMed([]string{"08:00"}, nil)
	sunday := monday(8, 15).AddDate(0, 0, -1)
	logs := []store.IntakeLog{logAt("med-1", sunday)}

	assert.Equal(t, StatusOverdue, DoseStatus(med, logs, monday(9, 0)))
}

func TestDoseStatus_OtherMedicationLogIgnored(t *testing.T) {
	med := testMed([]string{"08:00"}, nil)
	logs := []store.IntakeLog{logAt("med-2", monday(8, 15))}

	assert.Equal(t, StatusOverdue, DoseStatus(med, logs, monday(9, 0)))
}

func TestDoseStatus_NotScheduledToday(t *testing.T) {
	// Tuesday only, checked on a Monday
	med := testMed([]string{"08:00"}, []int{2})

	assert.Equal(t, StatusScheduled, DoseStatus(med, nil, monday(8, 10)))
}

func TestDoseStatus_ClosestTimeTieGoesToFirst(t *testing.T) {
	// 09:00 is equidistant from both; the earlier entry wins, so a log
	// near 08:00 reads as taken
	med := testMed([]string{"08:00", "10:00"}, nil)
	logs := []store.IntakeLog{logAt("med-1", monday(8, 5))}

	assert.Equal(t, StatusTaken, DoseStatus(med, logs, monday(9, 0)))
}

func TestDoseStatus_AllTimesMalformed(t *testing.T) {
	med := testMed([]string{"bogus", "25:00"}, nil)

	assert.Equal(t, StatusScheduled, DoseStatus(med, nil, monday(9, 0)))
}

func TestDoseStatus_EveningDoseIndependent(t *testing.T) {
	// The morning dose was taken; by evening the 20:00 dose governs
	med := testMed([]string{"08:00", "20:00"}, nil)
	logs := []store.IntakeLog{logAt("med-1", monday(8, 15))}

	assert.Equal(t, StatusDueSoon, DoseStatus(med, logs, monday(20, 10)))
	assert.Equal(t, StatusOverdue, DoseStatus(med, logs, monday(21, 0)))
}

// LastTaken / RecentlyTaken

func TestLastTaken(t *testing.T) {
	logs := []store.IntakeLog{
		logAt("med-1", monday(8, 0)),
		logAt("med-1", monday(20, 0)),
		logAt("med-2", monday(21, 0)),
	}

	last, ok := LastTaken("med-1", logs)
	require.True(t, ok)
	assert.Equal(t, monday(20, 0), last)

	_, ok = LastTaken("med-3", logs)
	assert.False(t, ok)
}

func TestRecentlyTaken(t *testing.T) {
	logs := []store.IntakeLog{logAt("med-1", monday(8, 0))}

	assert.True(t, RecentlyTaken("med-1", logs, monday(8, 59)))
	assert.False(t, RecentlyTaken("med-1", logs, monday(9, 0)))
	assert.False(t, RecentlyTaken("med-1", logs, monday(9, 1)))
	assert.False(t, RecentlyTaken("med-2", logs, monday(8, 30)))
}

// ClosestDoseTime

func TestClosestDoseTime(t *testing.T) {
	med := testMed([]string{"08:00", "14:00", "20:00"}, nil)

	assert.Equal(t, "08:00", ClosestDoseTime(med, monday(9, 0)))
	assert.Equal(t, "14:00", ClosestDoseTime(med, monday(13, 0)))
	assert.Equal(t, "20:00", ClosestDoseTime(med, monday(23, 0)))
	assert.Equal(t, "", ClosestDoseTime(testMed(nil, nil), monday(9, 0)))
}
