package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCronNotifier(t *testing.T, path string) *CronNotifier {
	n, err := NewCronNotifier(CronNotifierOptions{BadgerPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return n
}

func testSpec(medID, clock string) TriggerSpec {
	return TriggerSpec{
		Hour:    8,
		Minute:  0,
		Weekday: 2,
		Title:   "Medication Reminder",
		Body:    "Have you taken Metformin?",
		Tag:     Tag{MedicationID: medID, ScheduledTime: clock},
	}
}

func TestCronNotifier_ScheduleAndList(t *testing.T) {
	n := newTestCronNotifier(t, "")

	id, err := n.Schedule(testSpec("med-1", "08:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := n.ListScheduled()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "med-1", records[0].Spec.Tag.MedicationID)
}

func TestCronNotifier_Cancel(t *testing.T) {
	n := newTestCronNotifier(t, "")

	id, err := n.Schedule(testSpec("med-1", "08:00"))
	require.NoError(t, err)

	require.NoError(t, n.Cancel(id))

	records, err := n.ListScheduled()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCronNotifier_CancelUnknownID(t *testing.T) {
	n := newTestCronNotifier(t, "")
	assert.NoError(t, n.Cancel("no-such-id"))
}

func TestCronNotifier_RejectsInvalidWeekday(t *testing.T) {
	n := newTestCronNotifier(t, "")

	spec := testSpec("med-1", "08:00")
	spec.Weekday = 9

	_, err := n.Schedule(spec)
	assert.Error(t, err)

	records, err := n.ListScheduled()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCronNotifier_RestoresAfterReopen(t *testing.T) {
	dir := t.TempDir()

	n1, err := NewCronNotifier(CronNotifierOptions{BadgerPath: dir})
	require.NoError(t, err)

	id, err := n1.Schedule(testSpec("med-1", "08:00"))
	require.NoError(t, err)
	_, err = n1.Schedule(testSpec("med-2", "20:00"))
	require.NoError(t, err)
	require.NoError(t, n1.Close())

	n2 := newTestCronNotifier(t, dir)
	records, err := n2.ListScheduled()
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ID, records[1].ID}
	assert.Contains(t, ids, id)
}

func TestCronNotifier_CancelledTriggerStaysGone(t *testing.T) {
	dir := t.TempDir()

	n1, err := NewCronNotifier(CronNotifierOptions{BadgerPath: dir})
	require.NoError(t, err)

	id, err := n1.Schedule(testSpec("med-1", "08:00"))
	require.NoError(t, err)
	require.NoError(t, n1.Cancel(id))
	require.NoError(t, n1.Close())

	n2 := newTestCronNotifier(t, dir)
	records, err := n2.ListScheduled()
	require.NoError(t, err)
	assert.Empty(t, records)
}
