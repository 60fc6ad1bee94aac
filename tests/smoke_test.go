package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Get the project root directory (parent of tests/)
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		panic("Failed to get project root: " + err.Error())
	}

	// Create bin directory if it doesn't exist
	binDir := filepath.Join(projectRoot, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		panic("Failed to create bin directory: " + err.Error())
	}

	binaryPath = filepath.Join(binDir, "medconfirm_test")

	// Build the binary once
	cmd := exec.Command("go", "build", "-o", binaryPath, filepath.Join(projectRoot, "cmd", "medconfirm"))
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		panic("Failed to build test binary: " + err.Error() + "\n" + string(output))
	}

	exitCode := m.Run()

	// Cleanup
	os.Remove(binaryPath)
	os.Exit(exitCode)
}

// run executes the binary against a throwaway data directory
func run(t *testing.T, dataDir string, args ...string) ([]byte, error) {
	full := append([]string{"-data", dataDir}, args...)
	cmd := exec.Command(binaryPath, full...)
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()
	return cmd.CombinedOutput()
}

func TestBinaryHelp(t *testing.T) {
	cmd := exec.Command(binaryPath, "--help")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	if len(output) == 0 {
		t.Fatal("--help produced no output")
	}
}

func TestBinaryVersion(t *testing.T) {
	cmd := exec.Command(binaryPath, "version")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(string(output), "MedConfirm") {
		t.Fatalf("unexpected version output: %s", output)
	}
}

func TestBinaryListEmpty(t *testing.T) {
	output, err := run(t, t.TempDir(), "list")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "No medications") {
		t.Fatalf("unexpected list output: %s", output)
	}
}

func TestBinaryAddAndStatus(t *testing.T) {
	dataDir := t.TempDir()

	output, err := run(t, dataDir, "add", "-name", "Lisinopril", "-dosage", "10mg", "-times", "08:00,20:00")
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Added 'Lisinopril'") {
		t.Fatalf("unexpected add output: %s", output)
	}

	output, err = run(t, dataDir, "status")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Lisinopril") {
		t.Fatalf("status missing medication: %s", output)
	}
}

func TestBinaryTakeAndHistory(t *testing.T) {
	dataDir := t.TempDir()

	if output, err := run(t, dataDir, "add", "-name", "Metformin", "-times", "08:00"); err != nil {
		t.Fatalf("add failed: %v\n%s", err, output)
	}

	output, err := run(t, dataDir, "take", "Metformin", "-note", "with food")
	if err != nil {
		t.Fatalf("take failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Logged dose") {
		t.Fatalf("unexpected take output: %s", output)
	}

	output, err = run(t, dataDir, "history")
	if err != nil {
		t.Fatalf("history failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Metformin") {
		t.Fatalf("history missing medication: %s", output)
	}
}

func TestBinaryDuplicateGuard(t *testing.T) {
	dataDir := t.TempDir()

	if output, err := run(t, dataDir, "add", "-name", "Aspirin", "-times", "08:00"); err != nil {
		t.Fatalf("add failed: %v\n%s", err, output)
	}
	if output, err := run(t, dataDir, "take", "Aspirin"); err != nil {
		t.Fatalf("take failed: %v\n%s", err, output)
	}

	// Second confirmation without a terminal requires -force
	output, err := run(t, dataDir, "take", "Aspirin")
	if err == nil {
		t.Fatalf("expected duplicate take to fail, got: %s", output)
	}
	if !strings.Contains(string(output), "-force") {
		t.Fatalf("unexpected duplicate output: %s", output)
	}

	if output, err := run(t, dataDir, "take", "Aspirin", "-force"); err != nil {
		t.Fatalf("forced take failed: %v\n%s", err, output)
	}
}

func TestBinaryExport(t *testing.T) {
	dataDir := t.TempDir()

	if output, err := run(t, dataDir, "add", "-name", "Aspirin", "-times", "08:00"); err != nil {
		t.Fatalf("add failed: %v\n%s", err, output)
	}
	if output, err := run(t, dataDir, "take", "Aspirin"); err != nil {
		t.Fatalf("take failed: %v\n%s", err, output)
	}

	output, err := run(t, dataDir, "export")
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Date,Time,Medication,Dosage,Note") {
		t.Fatalf("export missing CSV header: %s", output)
	}
}

func TestBinarySettings(t *testing.T) {
	dataDir := t.TempDir()

	output, err := run(t, dataDir, "settings")
	if err != nil {
		t.Fatalf("settings failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Reminders: on") {
		t.Fatalf("unexpected settings output: %s", output)
	}

	if output, err := run(t, dataDir, "settings", "reminders", "off"); err != nil {
		t.Fatalf("settings reminders off failed: %v\n%s", err, output)
	}

	output, err = run(t, dataDir, "settings")
	if err != nil {
		t.Fatalf("settings failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Reminders: off") {
		t.Fatalf("settings toggle not persisted: %s", output)
	}
}

func TestBinaryUnlock(t *testing.T) {
	dataDir := t.TempDir()

	output, err := run(t, dataDir, "unlock")
	if err != nil {
		t.Fatalf("unlock failed: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "Slot unlocked") {
		t.Fatalf("unexpected unlock output: %s", output)
	}
}

func TestBinaryUnknownCommand(t *testing.T) {
	cmd := exec.Command(binaryPath, "frobnicate")
	input, _ := os.Open("/dev/null")
	cmd.Stdin = input
	defer input.Close()

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected unknown command to exit nonzero")
	}
	if !strings.Contains(string(output), "Unknown command") {
		t.Fatalf("unexpected output: %s", output)
	}
}
