package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/tracker"
)

func testTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	trk, err := tracker.New(&tracker.Config{DBPath: filepath.Join(t.TempDir(), "jobtrack.db")}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { trk.Close() })
	return trk
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("JOBTRACK_TEST_VALUE", "set")
	if got := env("JOBTRACK_TEST_VALUE", "def"); got != "set" {
		t.Errorf("got %q, want %q", got, "set")
	}
	if got := env("JOBTRACK_TEST_UNSET", "def"); got != "def" {
		t.Errorf("got %q, want %q", got, "def")
	}
}

func TestDestructiveCommandsNeedConfirmation(t *testing.T) {
	trk := testTracker(t)
	ctx := context.Background()
	if _, err := trk.Add(ctx, domain.Application{Company: "Acme", Position: "Dev"}); err != nil {
		t.Fatal(err)
	}

	if err := clearAll(ctx, trk, false); !errors.Is(err, errNotConfirmed) {
		t.Errorf("clear: got %v, want errNotConfirmed", err)
	}
	if err := importArchive(ctx, trk, []string{"-"}, false); !errors.Is(err, errNotConfirmed) {
		t.Errorf("import: got %v, want errNotConfirmed", err)
	}
	apps, _ := trk.List(ctx, tracker.Filter{})
	if len(apps) != 1 {
		t.Fatalf("applications: got %d, want 1", len(apps))
	}

	if err := clearAll(ctx, trk, true); err != nil {
		t.Fatal(err)
	}
	apps, _ = trk.List(ctx, tracker.Filter{})
	if len(apps) != 0 {
		t.Errorf("after clear: got %d, want 0", len(apps))
	}
}

func TestExportThenImportFile(t *testing.T) {
	src := testTracker(t)
	ctx := context.Background()
	if _, err := src.Add(ctx, domain.Application{Company: "Acme", Position: "Dev"}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "archive.json")
	if err := export(ctx, src, []string{path}); err != nil {
		t.Fatal(err)
	}

	dst := testTracker(t)
	if err := importArchive(ctx, dst, []string{path}, true); err != nil {
		t.Fatal(err)
	}
	apps, _ := dst.List(ctx, tracker.Filter{})
	if len(apps) != 1 || apps[0].Company != "Acme" {
		t.Errorf("imported: got %+v", apps)
	}
}

func TestSettingsFromFile(t *testing.T) {
	trk := testTracker(t)
	path := filepath.Join(t.TempDir(), "settings.jsonc")
	data := "{\n  // weekly reminders\n  \"followUpDays\": 7,\n}\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	err := settings(context.Background(), trk, []string{path})
	w.Close()
	os.Stdout = stdout
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	out.ReadFrom(r)
	if !strings.Contains(out.String(), `"followUpDays": 7`) {
		t.Errorf("printed settings: got %s", out.String())
	}

	set, _ := trk.Settings(context.Background())
	if set.FollowUpDays != 7 || !set.AutoDetectEnabled {
		t.Errorf("saved settings: got %+v", set)
	}
}

func TestPrintApplications(t *testing.T) {
	var buf bytes.Buffer
	apps := []domain.Application{{ID: 42, Date: "2026-03-14", Company: "Acme", Position: "Dev", Status: "applied"}}
	if err := printApplications(&buf, apps); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "Acme") {
		t.Errorf("got %q", buf.String())
	}
}

func TestHashToken(t *testing.T) {
	if err := hashToken(nil); err == nil {
		t.Error("expected error without token")
	}
}
