package notify

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Savantrexs/MedConfirm/internal/metrics"
)

const triggerKeyPrefix = "trigger/"

// DeliverFunc receives a reminder when its trigger fires
type DeliverFunc func(title, body string, tag Tag)

// CronNotifierOptions configures a CronNotifier
type CronNotifierOptions struct {
	// BadgerPath is where trigger records are persisted. Empty runs badger
	// in memory (tests, one-shot CLI commands).
	BadgerPath string
	Logger     *zap.Logger
	// Deliver handles fired reminders; nil falls back to logging them
	Deliver DeliverFunc
}

// CronNotifier is an in-process Notifier backed by a cron engine for the
// weekly firing schedule and badger for trigger durability, so reminders
// re-arm after a restart.
type CronNotifier struct {
	cron    *cron.Cron
	db      *badger.DB
	logger  *zap.Logger
	deliver DeliverFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
	records map[string]TriggerRecord
}

// NewCronNotifier opens the trigger store and re-arms any persisted triggers
func NewCronNotifier(opts CronNotifierOptions) (*CronNotifier, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var badgerOpts badger.Options
	if opts.BadgerPath == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(opts.BadgerPath).
			WithNumVersionsToKeep(1).
			WithCompactL0OnClose(true).
			WithValueLogFileSize(16 << 20).
			WithMemTableSize(16 << 20)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open trigger store: %w", err)
	}

	n := &CronNotifier{
		cron:    cron.New(),
		db:      db,
		logger:  logger,
		deliver: opts.Deliver,
		entries: make(map[string]cron.EntryID),
		records: make(map[string]TriggerRecord),
	}
	if n.deliver == nil {
		n.deliver = n.logReminder
	}

	if err := n.restore(); err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

// Start begins firing triggers
func (n *CronNotifier) Start() {
	n.cron.Start()
}

// Close stops the cron engine and closes the trigger store
func (n *CronNotifier) Close() error {
	n.cron.Stop()
	return n.db.Close()
}

// Schedule registers a weekly trigger and persists its record
func (n *CronNotifier) Schedule(spec TriggerSpec) (string, error) {
	id := uuid.NewString()
	rec := TriggerRecord{ID: id, Spec: spec}

	entryID, err := n.arm(rec)
	if err != nil {
		return "", err
	}

	data, _ := json.Marshal(rec)
	err = n.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(triggerKeyPrefix+id), data)
	})
	if err != nil {
		n.cron.Remove(entryID)
		return "", fmt.Errorf("failed to persist trigger: %w", err)
	}

	n.mu.Lock()
	n.entries[id] = entryID
	n.records[id] = rec
	n.mu.Unlock()

	return id, nil
}

// Cancel removes a trigger by id. Cancelling an unknown id is a no-op.
func (n *CronNotifier) Cancel(id string) error {
	n.mu.Lock()
	entryID, ok := n.entries[id]
	if ok {
		delete(n.entries, id)
		delete(n.records, id)
	}
	n.mu.Unlock()

	if ok {
		n.cron.Remove(entryID)
	}

	return n.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(triggerKeyPrefix + id))
	})
}

// ListScheduled returns every registered trigger with its tag
func (n *CronNotifier) ListScheduled() ([]TriggerRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	records := make([]TriggerRecord, 0, len(n.records))
	for _, rec := range n.records {
		records = append(records, rec)
	}
	return records, nil
}

// arm registers the trigger with the cron engine. Cron uses 0-6 Sunday=0
// for day-of-week, so the notifier's 1-7 Sunday=1 convention shifts back.
func (n *CronNotifier) arm(rec TriggerRecord) (cron.EntryID, error) {
	spec := rec.Spec
	expr := fmt.Sprintf("%d %d * * %d", spec.Minute, spec.Hour, spec.Weekday-1)

	entryID, err := n.cron.AddFunc(expr, func() {
		metrics.Default().RecordReminderDelivered()
		n.deliver(spec.Title, spec.Body, spec.Tag)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to arm trigger %q: %w", expr, err)
	}
	return entryID, nil
}

// restore re-arms persisted triggers after a restart
func (n *CronNotifier) restore() error {
	return n.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(triggerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec TriggerRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				n.logger.Warn("Dropping unreadable trigger record", zap.Error(err))
				continue
			}

			entryID, err := n.arm(rec)
			if err != nil {
				n.logger.Warn("Dropping unschedulable trigger record",
					zap.String("trigger_id", rec.ID),
					zap.Error(err),
				)
				continue
			}
			n.entries[rec.ID] = entryID
			n.records[rec.ID] = rec
		}
		return nil
	})
}

func (n *CronNotifier) logReminder(title, body string, tag Tag) {
	n.logger.Info(title,
		zap.String("body", body),
		zap.String("medication_id", tag.MedicationID),
		zap.String("scheduled_time", tag.ScheduledTime),
		zap.Bool("is_repeat", tag.IsRepeat),
	)
}
