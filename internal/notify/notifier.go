// Package notify derives reminder triggers from medication schedules and
// manages their lifecycle against a notification backend.
package notify

// Tag identifies which medication and dose a trigger belongs to. It is
// attached at schedule time and carried back by ListScheduled so triggers
// can be cancelled by payload matching.
type Tag struct {
	MedicationID  string `json:"medication_id"`
	ScheduledTime string `json:"scheduled_time"` // "HH:MM" of the base dose
	IsRepeat      bool   `json:"is_repeat"`
	RepeatNumber  int    `json:"repeat_number,omitempty"`
}

// TriggerSpec describes one recurring weekly reminder. Weekday uses the
// 1-7 Sunday=1 convention of platform notification APIs.
type TriggerSpec struct {
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Weekday int    `json:"weekday"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Tag     Tag    `json:"tag"`
}

// TriggerRecord is a scheduled trigger as reported by the backend
type TriggerRecord struct {
	ID   string      `json:"id"`
	Spec TriggerSpec `json:"spec"`
}

// Notifier is the delivery backend the scheduler drives. Implementations
// must echo the Tag back unchanged in ListScheduled.
type Notifier interface {
	Schedule(spec TriggerSpec) (string, error)
	Cancel(id string) error
	ListScheduled() ([]TriggerRecord, error)
}
