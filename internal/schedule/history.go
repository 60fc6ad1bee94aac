package schedule

import (
	"sort"
	"time"

	"github.com/Savantrexs/MedConfirm/internal/store"
)

const dateKeyLayout = "2006-01-02"

// DayGroup holds one calendar day of intake logs, newest first
type DayGroup struct {
	Date string            `json:"date"`
	Logs []store.IntakeLog `json:"logs"`
}

// GroupByDate buckets logs by local calendar date. Groups come back most
// recent date first and each group keeps its logs in descending time order.
func GroupByDate(logs []store.IntakeLog) []DayGroup {
	sorted := make([]store.IntakeLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TakenAt.After(sorted[j].TakenAt)
	})

	var groups []DayGroup
	index := make(map[string]int)
	for _, log := range sorted {
		key := log.TakenAt.Format(dateKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: key})
		}
		groups[i].Logs = append(groups[i].Logs, log)
	}
	return groups
}

// DateLabel renders a group's date key relative to now: "Today",
// "Yesterday", or a weekday + date string. Unparseable keys come back as-is.
func DateLabel(dateKey string, now time.Time) string {
	date, err := time.ParseInLocation(dateKeyLayout, dateKey, now.Location())
	if err != nil {
		return dateKey
	}

	if dateKey == now.Format(dateKeyLayout) {
		return "Today"
	}
	if dateKey == now.AddDate(0, 0, -1).Format(dateKeyLayout) {
		return "Yesterday"
	}
	return date.Format("Monday, Jan 2")
}
