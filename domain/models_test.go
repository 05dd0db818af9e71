package domain

import (
	"encoding/json"
	"testing"
)

func TestSplitSites(t *testing.T) {
	got := SplitSites("greenhouse.io\n\n  lever.co \r\n\t\nworkday")
	want := []string{"greenhouse.io", "lever.co", "workday"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("site %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if s := SplitSites(""); s == nil || len(s) != 0 {
		t.Errorf("empty text: got %#v, want empty non-nil slice", s)
	}
}

func TestSettingsDecodeKeepsDefaultsForMissingFields(t *testing.T) {
	s := DefaultSettings()
	if err := json.Unmarshal([]byte(`{"autoSaveEnabled": false}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.AutoSaveEnabled {
		t.Error("autoSaveEnabled: got true, want false")
	}
	if !s.NotificationsEnabled || s.FollowUpDays != 7 || !s.AutoDetectEnabled {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestJobRecordSource(t *testing.T) {
	tests := []struct{ site, want string }{
		{"linkedin", "LinkedIn"},
		{"indeed", "Indeed"},
		{"naukri", "Naukri"},
		{"greenhouse.io", "greenhouse.io"},
	}
	for _, tt := range tests {
		if got := (JobRecord{SiteID: tt.site}).Source(); got != tt.want {
			t.Errorf("Source(%q): got %q, want %q", tt.site, got, tt.want)
		}
	}
}
