package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/Savantrexs/MedConfirm/internal/app"
	"github.com/Savantrexs/MedConfirm/internal/errors"
	"github.com/Savantrexs/MedConfirm/internal/schedule"
	"github.com/Savantrexs/MedConfirm/internal/store"
)

var Version = "dev"

// HandleAddCommand registers a new medication.
func HandleAddCommand(service *app.Service, args []string) {
	var (
		name         string
		dosage       string
		instructions string
		times        string
		days         string
		mode         string
		inactive     bool
	)

	fs := newFlagSet("add")
	fs.StringVar(&name, "name", "", "Medication name (required)")
	fs.StringVar(&dosage, "dosage", "", "Dosage text, e.g. \"200mg\"")
	fs.StringVar(&instructions, "instructions", "", "Free-form instructions")
	fs.StringVar(&times, "times", "", "Comma-separated HH:MM times (required)")
	fs.StringVar(&days, "days", "", "Comma-separated weekdays 0-6, Sunday=0 (default: every day)")
	fs.StringVar(&mode, "mode", store.ReminderOnce, "Reminder mode: once, every5, every10, every15")
	fs.BoolVar(&inactive, "inactive", false, "Create without activating reminders")
	fs.Parse(args)

	if name == "" || times == "" {
		fmt.Println("Usage: medconfirm add -name <name> -times <HH:MM,HH:MM> [-dosage ...] [-days 1,3,5] [-mode every10]")
		os.Exit(1)
	}

	dayList, err := parseDays(days)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	med := &store.Medication{
		Name:         name,
		DosageText:   dosage,
		Instructions: instructions,
		TimesPerDay:  splitList(times),
		DaysOfWeek:   dayList,
		IsActive:     !inactive,
		ReminderMode: mode,
	}

	if err := service.AddMedication(med); err != nil {
		if err == errors.ErrSlotLimitReached {
			limit, _ := service.SlotLimit()
			fmt.Printf("Slot limit reached (%d medications). Unlock another slot with: medconfirm unlock\n", limit)
		} else {
			fmt.Printf("Error adding medication: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("✓ Added '%s' (%s)\n", med.Name, shortID(med.ID))
}

// HandleListCommand prints registered medications.
func HandleListCommand(service *app.Service, args []string) {
	var all bool
	fs := newFlagSet("list")
	fs.BoolVar(&all, "all", false, "Include paused medications")
	fs.Parse(args)

	meds, err := service.ListMedications(!all)
	if err != nil {
		fmt.Printf("Error listing medications: %v\n", err)
		os.Exit(1)
	}
	if len(meds) == 0 {
		fmt.Println("No medications yet. Add one with: medconfirm add -name <name> -times 08:00")
		return
	}

	fmt.Println("Medications:")
	fmt.Println("============")
	for _, m := range meds {
		state := "active"
		if !m.IsActive {
			state = "paused"
		}
		fmt.Printf("%s  %s  %s  [%s]  times: %s\n",
			shortID(m.ID), m.Name, m.DosageText, state, strings.Join(m.TimesPerDay, ", "))
	}
}

// HandleTakeCommand logs an intake for a medication, prompting on
// duplicates when attached to a terminal.
func HandleTakeCommand(service *app.Service, args []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fmt.Println("Usage: medconfirm take <name or id> [-note ...] [-force]")
		os.Exit(1)
	}

	var (
		note  string
		force bool
	)
	fs := newFlagSet("take")
	fs.StringVar(&note, "note", "", "Optional note for this dose")
	fs.BoolVar(&force, "force", false, "Log even if a dose was taken within the last hour")
	fs.Parse(args[1:])

	med := resolveMedication(service, args[0])

	_, err := service.ConfirmIntake(med.ID, note, force)
	if err == errors.ErrRecentlyTaken {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("'%s' was taken less than an hour ago. Re-run with -force to log anyway.\n", med.Name)
			os.Exit(1)
		}
		fmt.Printf("'%s' was taken less than an hour ago. Log anyway? (y/N): ", med.Name)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return
		}
		_, err = service.ConfirmIntake(med.ID, note, true)
	}
	if err != nil {
		fmt.Printf("Error logging dose: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Logged dose of '%s'\n", med.Name)
}

// HandleStatusCommand prints today's dose status for active medications.
func HandleStatusCommand(service *app.Service) {
	statuses, err := service.Today()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(statuses) == 0 {
		fmt.Println("No active medications.")
		return
	}

	fmt.Println("Today:")
	fmt.Println("======")
	for _, s := range statuses {
		icon := statusIcon(s.Status)
		line := fmt.Sprintf("%s %s (%s) — %s", icon, s.Medication.Name, s.Medication.DosageText, s.Status)
		if s.NextDose != nil {
			when := schedule.FormatClock(s.NextDose.Time)
			if s.NextDose.IsToday {
				line += fmt.Sprintf(", next at %s", when)
			} else {
				line += fmt.Sprintf(", next at %s tomorrow", when)
			}
		}
		fmt.Println(line)
	}
}

// HandleHistoryCommand prints the intake log grouped by day.
func HandleHistoryCommand(service *app.Service) {
	days, err := service.History()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(days) == 0 {
		fmt.Println("No doses logged yet.")
		return
	}

	for _, day := range days {
		fmt.Printf("%s\n", day.Label)
		for _, e := range day.Entries {
			line := fmt.Sprintf("  %s  %s %s", e.Log.TakenAt.Format("15:04"), e.MedicationName, e.DosageText)
			if e.Log.Note != "" {
				line += fmt.Sprintf("  (%s)", e.Log.Note)
			}
			fmt.Println(line)
		}
	}
}

// HandleExportCommand writes the intake history as CSV.
func HandleExportCommand(service *app.Service, args []string) {
	var output string
	fs := newFlagSet("export")
	fs.StringVar(&output, "o", "", "Output file (default: stdout)")
	fs.Parse(args)

	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			fmt.Printf("Error creating %s: %v\n", output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := service.ExportCSV(w); err != nil {
		fmt.Printf("Error exporting history: %v\n", err)
		os.Exit(1)
	}
	if output != "" {
		fmt.Printf("✓ Exported history to %s\n", output)
	}
}

// HandleSettingsCommand shows or updates reminder settings.
func HandleSettingsCommand(service *app.Service, args []string) {
	if len(args) == 0 {
		settings, err := service.Settings()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		limit, err := service.SlotLimit()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		state := "off"
		if settings.RemindersEnabled {
			state = "on"
		}
		fmt.Printf("Reminders: %s\n", state)
		fmt.Printf("Slots: %d (%d base + %d unlocked)\n",
			limit, limit-settings.UnlockedSlots, settings.UnlockedSlots)
		return
	}

	switch args[0] {
	case "reminders":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			fmt.Println("Usage: medconfirm settings reminders <on|off>")
			os.Exit(1)
		}
		if err := service.SetRemindersEnabled(args[1] == "on"); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Reminders %s\n", args[1])
	default:
		fmt.Println("Usage: medconfirm settings [reminders <on|off>]")
		os.Exit(1)
	}
}

// HandleUnlockCommand grants one extra medication slot.
func HandleUnlockCommand(service *app.Service) {
	if _, err := service.UnlockSlot(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	limit, err := service.SlotLimit()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Slot unlocked. You can now track %d medications.\n", limit)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

func resolveMedication(service *app.Service, ref string) *store.Medication {
	meds, err := service.ListMedications(false)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	lower := strings.ToLower(ref)
	var match *store.Medication
	for i := range meds {
		m := &meds[i]
		if m.ID == ref || strings.HasPrefix(m.ID, ref) || strings.ToLower(m.Name) == lower {
			if match != nil {
				fmt.Printf("'%s' is ambiguous, use the full id\n", ref)
				os.Exit(1)
			}
			match = m
		}
	}
	if match == nil {
		fmt.Printf("Medication '%s' not found\n", ref)
		os.Exit(1)
	}
	return match
}

func statusIcon(s schedule.Status) string {
	switch s {
	case schedule.StatusTaken:
		return "✓"
	case schedule.StatusOverdue:
		return "!"
	case schedule.StatusDueSoon:
		return "●"
	default:
		return "○"
	}
}

func parseDays(csv string) ([]int, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var days []int
	for _, part := range splitList(csv) {
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q (expected 0-6, Sunday=0)", part)
		}
		days = append(days, d)
	}
	return days, nil
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
