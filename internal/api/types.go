package api

// medicationRequest is the create/update payload
type medicationRequest struct {
	Name         string   `json:"name"`
	DosageText   string   `json:"dosage_text"`
	Instructions string   `json:"instructions"`
	TimesPerDay  []string `json:"times_per_day"`
	DaysOfWeek   []int    `json:"days_of_week"`
	IsActive     *bool    `json:"is_active"`
	ReminderMode string   `json:"reminder_mode"`
}

// intakeRequest is the dose confirmation payload
type intakeRequest struct {
	Note  string `json:"note"`
	Force bool   `json:"force"`
}

// settingsRequest is the settings update payload
type settingsRequest struct {
	RemindersEnabled *bool `json:"reminders_enabled"`
}
