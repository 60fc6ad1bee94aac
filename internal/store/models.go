package store

import (
	"time"
)

// Reminder repeat modes. Anything other than "once" re-fires the reminder
// every N minutes until the dose is confirmed.
const (
	ReminderOnce    = "once"
	ReminderEvery5  = "every5"
	ReminderEvery10 = "every10"
	ReminderEvery15 = "every15"
)

// Medication represents a registered medication with its recurring schedule
type Medication struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Name         string `json:"name"`
	DosageText   string `json:"dosage_text,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	// Schedule
	TimesPerDay []string `json:"times_per_day" gorm:"-"`          // ["08:00", "20:00"], 24-hour clock
	TimesJSON   string   `json:"-" gorm:"type:text"`              // Serialized times
	DaysOfWeek  []int    `json:"days_of_week,omitempty" gorm:"-"` // 0=Sunday ... 6=Saturday, empty = every day
	DaysJSON    string   `json:"-" gorm:"type:text"`              // Serialized days

	IsActive     bool   `json:"is_active" gorm:"default:true"`
	ReminderMode string `json:"reminder_mode" gorm:"default:once"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntakeLog records a confirmed dose. Logs are append-only; a past
// confirmation can be deleted but never edited.
type IntakeLog struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	MedicationID string    `gorm:"index" json:"medication_id"`
	TakenAt      time.Time `gorm:"index" json:"taken_at"`
	Note         string    `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Settings holds user preferences in a single row
type Settings struct {
	ID               int  `gorm:"primaryKey" json:"-"`
	RemindersEnabled bool `gorm:"default:true" json:"reminders_enabled"`
	UnlockedSlots    int  `gorm:"default:0" json:"unlocked_slots"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Helper methods

// EffectiveDays returns the configured weekdays, or all seven when none are set.
func (m *Medication) EffectiveDays() []int {
	if len(m.DaysOfWeek) == 0 {
		return []int{0, 1, 2, 3, 4, 5, 6}
	}
	return m.DaysOfWeek
}

// RepeatInterval returns the repeat-reminder cadence in minutes, 0 for "once".
func (m *Medication) RepeatInterval() int {
	switch m.ReminderMode {
	case ReminderEvery5:
		return 5
	case ReminderEvery10:
		return 10
	case ReminderEvery15:
		return 15
	default:
		return 0
	}
}
