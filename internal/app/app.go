// Package app wires the store, scheduling engine, and notification
// scheduler into the operations the CLI and API expose.
package app

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Savantrexs/MedConfirm/internal/errors"
	"github.com/Savantrexs/MedConfirm/internal/export"
	"github.com/Savantrexs/MedConfirm/internal/metrics"
	"github.com/Savantrexs/MedConfirm/internal/notify"
	"github.com/Savantrexs/MedConfirm/internal/schedule"
	"github.com/Savantrexs/MedConfirm/internal/store"
)

// Service coordinates medication mutations with reminder scheduling.
// Reminder failures never fail the mutation; the scheduler logs and
// absorbs them.
type Service struct {
	store     *store.Store
	scheduler *notify.Scheduler
	logger    *zap.Logger
	freeSlots int
	clock     func() time.Time
}

func NewService(st *store.Store, scheduler *notify.Scheduler, logger *zap.Logger, freeSlots int) *Service {
	return &Service{
		store:     st,
		scheduler: scheduler,
		logger:    logger,
		freeSlots: freeSlots,
		clock:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// MedicationStatus is one row of the "today" view
type MedicationStatus struct {
	Medication store.Medication   `json:"medication"`
	Status     schedule.Status    `json:"status"`
	NextDose   *schedule.NextDose `json:"next_dose,omitempty"`
	LastTaken  *time.Time         `json:"last_taken,omitempty"`
}

// HistoryDay is one calendar day of labeled intake history
type HistoryDay struct {
	Date    string         `json:"date"`
	Label   string         `json:"label"`
	Entries []HistoryEntry `json:"entries"`
}

// HistoryEntry pairs a log with its medication's display fields
type HistoryEntry struct {
	Log            store.IntakeLog `json:"log"`
	MedicationName string          `json:"medication_name"`
	DosageText     string          `json:"dosage_text,omitempty"`
}

// Medication operations

// CanAddMedication reports whether another active medication fits within
// the free slots plus any unlocked ones
func (s *Service) CanAddMedication() (bool, error) {
	active, err := s.store.CountActiveMedications()
	if err != nil {
		return false, apperrors.Wrap(err, "STORE_001", "failed to count medications")
	}
	settings, err := s.store.GetSettings()
	if err != nil {
		return false, apperrors.Wrap(err, "STORE_002", "failed to load settings")
	}
	return active < s.freeSlots+settings.UnlockedSlots, nil
}

func (s *Service) AddMedication(med *store.Medication) error {
	if err := validateMedication(med); err != nil {
		return err
	}

	if med.IsActive {
		ok, err := s.CanAddMedication()
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrSlotLimitReached
		}
	}

	if err := s.store.CreateMedication(med); err != nil {
		return apperrors.Wrap(err, "STORE_003", "failed to save medication")
	}
	metrics.Default().RecordMedicationAdded()

	s.logger.Info("Medication added",
		zap.String("medication_id", med.ID),
		zap.String("name", med.Name),
		zap.Strings("times", med.TimesPerDay),
	)

	s.scheduleIfEnabled(med)
	return nil
}

func (s *Service) UpdateMedication(med *store.Medication) error {
	if err := validateMedication(med); err != nil {
		return err
	}

	existing, err := s.store.GetMedication(med.ID)
	if err != nil {
		return apperrors.Wrap(err, "STORE_004", "failed to load medication")
	}
	if existing == nil {
		return apperrors.ErrMedicationNotFound
	}

	med.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateMedication(med); err != nil {
		return apperrors.Wrap(err, "STORE_005", "failed to update medication")
	}

	// ScheduleMedication cancels the old triggers before re-registering,
	// and only cancels when the medication is now inactive
	s.scheduleIfEnabled(med)
	return nil
}

func (s *Service) DeleteMedication(id string) error {
	med, err := s.store.GetMedication(id)
	if err != nil {
		return apperrors.Wrap(err, "STORE_004", "failed to load medication")
	}
	if med == nil {
		return apperrors.ErrMedicationNotFound
	}

	if err := s.store.DeleteMedication(id); err != nil {
		return apperrors.Wrap(err, "STORE_006", "failed to delete medication")
	}
	s.scheduler.CancelMedication(id)

	s.logger.Info("Medication deleted",
		zap.String("medication_id", id),
		zap.String("name", med.Name),
	)
	return nil
}

func (s *Service) GetMedication(id string) (*store.Medication, error) {
	med, err := s.store.GetMedication(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_004", "failed to load medication")
	}
	if med == nil {
		return nil, apperrors.ErrMedicationNotFound
	}
	return med, nil
}

func (s *Service) ListMedications(activeOnly bool) ([]store.Medication, error) {
	return s.store.ListMedications(activeOnly)
}

// Intake operations

// ConfirmIntake logs a dose. When the medication was already confirmed
// within the last hour and force is false, it returns ErrRecentlyTaken so
// the caller can ask the user before retrying with force.
func (s *Service) ConfirmIntake(medicationID, note string, force bool) (*store.IntakeLog, error) {
	now := s.clock()

	med, err := s.store.GetMedication(medicationID)
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_004", "failed to load medication")
	}
	if med == nil {
		return nil, apperrors.ErrMedicationNotFound
	}

	logs, err := s.store.ListIntakeLogs(medicationID)
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_007", "failed to load intake logs")
	}

	if !force && schedule.RecentlyTaken(medicationID, logs, now) {
		metrics.Default().RecordDuplicateWarned()
		return nil, apperrors.ErrRecentlyTaken
	}

	log := &store.IntakeLog{
		MedicationID: medicationID,
		TakenAt:      now,
		Note:         strings.TrimSpace(note),
	}
	if err := s.store.CreateIntakeLog(log); err != nil {
		return nil, apperrors.Wrap(err, "STORE_008", "failed to save intake log")
	}
	metrics.Default().RecordDoseLogged()

	// Stop the nag reminders for the dose this confirmation belongs to;
	// the base weekly trigger stays for future days
	if closest := schedule.ClosestDoseTime(med, now); closest != "" {
		s.scheduler.CancelRepeatsForDose(medicationID, closest)
	}

	s.logger.Info("Dose confirmed",
		zap.String("medication_id", medicationID),
		zap.String("name", med.Name),
		zap.Time("taken_at", now),
	)
	return log, nil
}

func (s *Service) DeleteIntakeLog(id string) error {
	return s.store.DeleteIntakeLog(id)
}

// Views

// Today computes the current dose status for every active medication
func (s *Service) Today() ([]MedicationStatus, error) {
	now := s.clock()

	meds, err := s.store.ListMedications(true)
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_009", "failed to list medications")
	}
	logs, err := s.store.ListIntakeLogs("")
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_007", "failed to load intake logs")
	}

	statuses := make([]MedicationStatus, 0, len(meds))
	for i := range meds {
		med := meds[i]
		status := schedule.DoseStatus(&med, logs, now)
		metrics.Default().RecordStatusCheck(string(status))

		entry := MedicationStatus{
			Medication: med,
			Status:     status,
			NextDose:   schedule.NextDoseAt(&med, now),
		}
		if last, ok := schedule.LastTaken(med.ID, logs); ok {
			entry.LastTaken = &last
		}
		statuses = append(statuses, entry)
	}
	return statuses, nil
}

// History returns intake logs grouped by day, newest day first
func (s *Service) History() ([]HistoryDay, error) {
	now := s.clock()

	logs, err := s.store.ListIntakeLogs("")
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_007", "failed to load intake logs")
	}
	meds, err := s.store.ListMedications(false)
	if err != nil {
		return nil, apperrors.Wrap(err, "STORE_009", "failed to list medications")
	}

	names := make(map[string]*store.Medication, len(meds))
	for i := range meds {
		names[meds[i].ID] = &meds[i]
	}

	var days []HistoryDay
	for _, group := range schedule.GroupByDate(logs) {
		day := HistoryDay{
			Date:  group.Date,
			Label: schedule.DateLabel(group.Date, now),
		}
		for _, log := range group.Logs {
			entry := HistoryEntry{Log: log, MedicationName: "Unknown"}
			if med, ok := names[log.MedicationID]; ok {
				entry.MedicationName = med.Name
				entry.DosageText = med.DosageText
			}
			day.Entries = append(day.Entries, entry)
		}
		days = append(days, day)
	}
	return days, nil
}

// ExportCSV writes the full intake history as CSV
func (s *Service) ExportCSV(w io.Writer) error {
	meds, err := s.store.ListMedications(false)
	if err != nil {
		return apperrors.Wrap(err, "STORE_009", "failed to list medications")
	}
	logs, err := s.store.ListIntakeLogs("")
	if err != nil {
		return apperrors.Wrap(err, "STORE_007", "failed to load intake logs")
	}
	return export.WriteCSV(w, meds, logs)
}

// Settings operations

func (s *Service) Settings() (*store.Settings, error) {
	return s.store.GetSettings()
}

// SetRemindersEnabled toggles reminders globally: disabling cancels every
// trigger, enabling rebuilds them from the active medication list
func (s *Service) SetRemindersEnabled(enabled bool) error {
	settings, err := s.store.GetSettings()
	if err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to load settings")
	}
	settings.RemindersEnabled = enabled
	if err := s.store.SaveSettings(settings); err != nil {
		return apperrors.Wrap(err, "STORE_010", "failed to save settings")
	}

	if !enabled {
		s.scheduler.CancelAll()
		s.logger.Info("Reminders disabled, all triggers cancelled")
		return nil
	}

	meds, err := s.store.ListMedications(true)
	if err != nil {
		return apperrors.Wrap(err, "STORE_009", "failed to list medications")
	}
	s.scheduler.RescheduleAll(meds)
	s.logger.Info("Reminders enabled", zap.Int("medications", len(meds)))
	return nil
}

// ResyncReminders rebuilds every trigger from the current medication
// list. Called at startup so edits made while the reminder engine was
// down still take effect.
func (s *Service) ResyncReminders() error {
	settings, err := s.store.GetSettings()
	if err != nil {
		return apperrors.Wrap(err, "STORE_002", "failed to load settings")
	}
	if !settings.RemindersEnabled {
		s.scheduler.CancelAll()
		return nil
	}
	meds, err := s.store.ListMedications(true)
	if err != nil {
		return apperrors.Wrap(err, "STORE_009", "failed to list medications")
	}
	s.scheduler.RescheduleAll(meds)
	return nil
}

// UnlockSlot grants one more medication slot and returns the new total.
// Whatever gates the unlock (the original app played a reward ad) is the
// caller's business.
func (s *Service) UnlockSlot() (int, error) {
	return s.store.UnlockSlot()
}

// SlotLimit returns the current maximum number of active medications
func (s *Service) SlotLimit() (int, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return 0, apperrors.Wrap(err, "STORE_002", "failed to load settings")
	}
	return s.freeSlots + settings.UnlockedSlots, nil
}

func (s *Service) scheduleIfEnabled(med *store.Medication) {
	settings, err := s.store.GetSettings()
	if err != nil {
		s.logger.Error("Failed to load settings for scheduling", zap.Error(err))
		return
	}
	if settings.RemindersEnabled {
		s.scheduler.ScheduleMedication(med)
	}
}

func validateMedication(med *store.Medication) error {
	med.Name = strings.TrimSpace(med.Name)
	if med.Name == "" {
		return apperrors.New("MED_002", "medication name is required")
	}

	if len(med.TimesPerDay) == 0 {
		return apperrors.New("MED_002", "at least one dose time is required")
	}
	for _, clock := range med.TimesPerDay {
		if _, err := schedule.MinuteOfDay(clock); err != nil {
			return apperrors.New("MED_002", fmt.Sprintf("invalid dose time %q", clock))
		}
	}
	// Store dose times in day order regardless of input order
	sort.Slice(med.TimesPerDay, func(i, j int) bool {
		a, _ := schedule.MinuteOfDay(med.TimesPerDay[i])
		b, _ := schedule.MinuteOfDay(med.TimesPerDay[j])
		return a < b
	})

	for _, day := range med.DaysOfWeek {
		if day < 0 || day > 6 {
			return apperrors.New("MED_002", fmt.Sprintf("invalid weekday %d", day))
		}
	}

	switch med.ReminderMode {
	case "":
		med.ReminderMode = store.ReminderOnce
	case store.ReminderOnce, store.ReminderEvery5, store.ReminderEvery10, store.ReminderEvery15:
	default:
		return apperrors.New("MED_002", fmt.Sprintf("invalid reminder mode %q", med.ReminderMode))
	}

	return nil
}
