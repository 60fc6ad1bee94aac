package metrics

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	requestsTotal   atomic.Int64
	requestsSuccess atomic.Int64
	requestsFailed  atomic.Int64

	dosesLogged      atomic.Int64
	duplicateWarned  atomic.Int64
	medicationsAdded atomic.Int64

	triggersScheduled  atomic.Int64
	triggersCancelled  atomic.Int64
	remindersDelivered atomic.Int64

	statusChecks map[string]*atomic.Int64
	statusLock   sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime:    time.Now(),
		statusChecks: make(map[string]*atomic.Int64),
	}
}

func (m *Metrics) RecordRequest(success bool) {
	m.requestsTotal.Add(1)
	if success {
		m.requestsSuccess.Add(1)
	} else {
		m.requestsFailed.Add(1)
	}
}

func (m *Metrics) RecordDoseLogged() {
	m.dosesLogged.Add(1)
}

func (m *Metrics) RecordDuplicateWarned() {
	m.duplicateWarned.Add(1)
}

func (m *Metrics) RecordMedicationAdded() {
	m.medicationsAdded.Add(1)
}

func (m *Metrics) RecordTriggerScheduled() {
	m.triggersScheduled.Add(1)
}

func (m *Metrics) RecordTriggerCancelled() {
	m.triggersCancelled.Add(1)
}

func (m *Metrics) RecordReminderDelivered() {
	m.remindersDelivered.Add(1)
}

func (m *Metrics) RecordStatusCheck(status string) {
	m.statusLock.Lock()
	defer m.statusLock.Unlock()

	if m.statusChecks[status] == nil {
		m.statusChecks[status] = &atomic.Int64{}
	}
	m.statusChecks[status].Add(1)
}

type Snapshot struct {
	Uptime             time.Duration    `json:"uptime"`
	RequestsTotal      int64            `json:"requests_total"`
	RequestsSuccess    int64            `json:"requests_success"`
	RequestsFailed     int64            `json:"requests_failed"`
	DosesLogged        int64            `json:"doses_logged"`
	DuplicateWarned    int64            `json:"duplicate_warned"`
	MedicationsAdded   int64            `json:"medications_added"`
	TriggersScheduled  int64            `json:"triggers_scheduled"`
	TriggersCancelled  int64            `json:"triggers_cancelled"`
	RemindersDelivered int64            `json:"reminders_delivered"`
	StatusChecks       map[string]int64 `json:"status_checks"`
	SuccessRate        float64          `json:"success_rate"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:             time.Since(m.startTime),
		RequestsTotal:      m.requestsTotal.Load(),
		RequestsSuccess:    m.requestsSuccess.Load(),
		RequestsFailed:     m.requestsFailed.Load(),
		DosesLogged:        m.dosesLogged.Load(),
		DuplicateWarned:    m.duplicateWarned.Load(),
		MedicationsAdded:   m.medicationsAdded.Load(),
		TriggersScheduled:  m.triggersScheduled.Load(),
		TriggersCancelled:  m.triggersCancelled.Load(),
		RemindersDelivered: m.remindersDelivered.Load(),
		StatusChecks:       make(map[string]int64),
	}

	if s.RequestsTotal > 0 {
		s.SuccessRate = float64(s.RequestsSuccess) / float64(s.RequestsTotal) * 100
	}

	m.statusLock.Lock()
	for status, count := range m.statusChecks {
		s.StatusChecks[status] = count.Load()
	}
	m.statusLock.Unlock()

	return s
}

func (m *Metrics) Prometheus() string {
	var sb strings.Builder

	counter := func(name, help string, value int64) {
		sb.WriteString("# HELP medconfirm_" + name + " " + help + "\n")
		sb.WriteString("# TYPE medconfirm_" + name + " counter\n")
		sb.WriteString("medconfirm_" + name + " " + strconv.FormatInt(value, 10) + "\n\n")
	}

	sb.WriteString("# HELP medconfirm_uptime_seconds Time since server start\n")
	sb.WriteString("# TYPE medconfirm_uptime_seconds gauge\n")
	sb.WriteString("medconfirm_uptime_seconds " + strconv.FormatInt(int64(time.Since(m.startTime).Seconds()), 10) + "\n\n")

	counter("requests_total", "Total number of API requests", m.requestsTotal.Load())
	counter("requests_failed", "Failed API requests", m.requestsFailed.Load())
	counter("doses_logged_total", "Confirmed doses", m.dosesLogged.Load())
	counter("duplicate_warned_total", "Confirmations blocked by the duplicate guard", m.duplicateWarned.Load())
	counter("medications_added_total", "Medications registered", m.medicationsAdded.Load())
	counter("triggers_scheduled_total", "Reminder triggers registered", m.triggersScheduled.Load())
	counter("triggers_cancelled_total", "Reminder triggers cancelled", m.triggersCancelled.Load())
	counter("reminders_delivered_total", "Reminders fired", m.remindersDelivered.Load())

	return sb.String()
}

// Reset zeroes all counters. Test helper.
func (m *Metrics) Reset() {
	m.startTime = time.Now()
	m.requestsTotal.Store(0)
	m.requestsSuccess.Store(0)
	m.requestsFailed.Store(0)
	m.dosesLogged.Store(0)
	m.duplicateWarned.Store(0)
	m.medicationsAdded.Store(0)
	m.triggersScheduled.Store(0)
	m.triggersCancelled.Store(0)
	m.remindersDelivered.Store(0)

	m.statusLock.Lock()
	m.statusChecks = make(map[string]*atomic.Int64)
	m.statusLock.Unlock()
}
