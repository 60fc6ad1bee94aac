package notify

import "github.com/google/uuid"

// noopNotifier accepts everything and delivers nothing. Used when the
// trigger store is unavailable (another process holds it) so data
// mutations still go through.
type noopNotifier struct{}

// Noop returns a Notifier that drops all triggers
func Noop() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Schedule(TriggerSpec) (string, error) { return uuid.NewString(), nil }
func (noopNotifier) Cancel(string) error                  { return nil }
func (noopNotifier) ListScheduled() ([]TriggerRecord, error) {
	return nil, nil
}
