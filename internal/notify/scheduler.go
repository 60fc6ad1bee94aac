package notify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Savantrexs/MedConfirm/internal/metrics"
	"github.com/Savantrexs/MedConfirm/internal/schedule"
	"github.com/Savantrexs/MedConfirm/internal/store"
)

// Up to 12 follow-up reminders per dose, so "every5" nags for an hour
const maxRepeats = 12

// Scheduler translates medication schedules into trigger registrations.
// Backend failures are logged and absorbed here; they never block the data
// mutation that prompted the scheduling call.
type Scheduler struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewScheduler(notifier Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{notifier: notifier, logger: logger}
}

// ScheduleMedication registers one base weekly trigger per (time, weekday)
// pair, plus repeat triggers when the medication's reminder mode asks for
// them. Existing triggers for the medication are cancelled first, so edits
// never leave stale reminders behind.
func (s *Scheduler) ScheduleMedication(med *store.Medication) {
	s.CancelMedication(med.ID)

	if !med.IsActive {
		return
	}

	interval := med.RepeatInterval()
	scheduled := 0

	for _, clock := range med.TimesPerDay {
		minutes, err := schedule.MinuteOfDay(clock)
		if err != nil {
			s.logger.Warn("Skipping malformed dose time",
				zap.String("medication_id", med.ID),
				zap.String("time", clock),
			)
			continue
		}
		hour, minute := minutes/60, minutes%60

		for _, day := range med.EffectiveDays() {
			spec := TriggerSpec{
				Hour:    hour,
				Minute:  minute,
				Weekday: notifierWeekday(day),
				Title:   "Medication Reminder",
				Body:    fmt.Sprintf("Have you taken %s?", med.Name),
				Tag: Tag{
					MedicationID:  med.ID,
					ScheduledTime: clock,
				},
			}
			if s.schedule(spec) {
				scheduled++
			}

			if interval == 0 {
				continue
			}
			for k := 1; k <= maxRepeats; k++ {
				repeatHour := hour + (minute+k*interval)/60
				if repeatHour >= 24 {
					// Repeats never roll past midnight into the next day
					break
				}
				repeat := spec
				repeat.Hour = repeatHour
				repeat.Minute = (minute + k*interval) % 60
				repeat.Tag.IsRepeat = true
				repeat.Tag.RepeatNumber = k
				if s.schedule(repeat) {
					scheduled++
				}
			}
		}
	}

	s.logger.Info("Reminders scheduled",
		zap.String("medication_id", med.ID),
		zap.String("name", med.Name),
		zap.Int("triggers", scheduled),
	)
}

// CancelMedication cancels every trigger tagged with the medication id
func (s *Scheduler) CancelMedication(medicationID string) {
	s.cancelMatching(func(tag Tag) bool {
		return tag.MedicationID == medicationID
	})
}

// CancelRepeatsForDose cancels only the repeat triggers for one confirmed
// dose, leaving the base weekly trigger in place for future days.
func (s *Scheduler) CancelRepeatsForDose(medicationID, scheduledTime string) {
	cancelled := s.cancelMatching(func(tag Tag) bool {
		return tag.MedicationID == medicationID &&
			tag.ScheduledTime == scheduledTime &&
			tag.IsRepeat
	})
	s.logger.Info("Repeat reminders cancelled",
		zap.String("medication_id", medicationID),
		zap.String("scheduled_time", scheduledTime),
		zap.Int("cancelled", cancelled),
	)
}

// CancelAll removes every trigger system-wide (reminders toggled off)
func (s *Scheduler) CancelAll() {
	s.cancelMatching(func(Tag) bool { return true })
}

// RescheduleAll rebuilds triggers from the full medication list. Inactive
// medications are skipped by ScheduleMedication itself.
func (s *Scheduler) RescheduleAll(meds []store.Medication) {
	s.CancelAll()
	for i := range meds {
		if meds[i].IsActive {
			s.ScheduleMedication(&meds[i])
		}
	}
}

func (s *Scheduler) schedule(spec TriggerSpec) bool {
	if _, err := s.notifier.Schedule(spec); err != nil {
		s.logger.Error("Failed to schedule reminder",
			zap.String("medication_id", spec.Tag.MedicationID),
			zap.String("scheduled_time", spec.Tag.ScheduledTime),
			zap.Error(err),
		)
		return false
	}
	metrics.Default().RecordTriggerScheduled()
	return true
}

func (s *Scheduler) cancelMatching(match func(Tag) bool) int {
	records, err := s.notifier.ListScheduled()
	if err != nil {
		s.logger.Error("Failed to list scheduled reminders", zap.Error(err))
		return 0
	}

	cancelled := 0
	for _, rec := range records {
		if !match(rec.Spec.Tag) {
			continue
		}
		if err := s.notifier.Cancel(rec.ID); err != nil {
			s.logger.Error("Failed to cancel reminder",
				zap.String("trigger_id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.Default().RecordTriggerCancelled()
		cancelled++
	}
	return cancelled
}

// notifierWeekday maps our 0-6 Sunday=0 days to the backend's 1-7 Sunday=1
func notifierWeekday(day int) int {
	if day == 0 {
		return 1
	}
	return day + 1
}
