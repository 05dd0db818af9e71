// Package domain holds the records shared by detection, the tracker and its
// surfaces.
package domain

import (
	"strings"
	"time"
)

// JobStatus is the state a detection pass observed.
type JobStatus string

const (
	JobViewed  JobStatus = "viewed"
	JobApplied JobStatus = "applied"
)

// JobRecord is the ephemeral result of one detection pass. It is never
// persisted as such: it is discarded, held as the pending job, or converted
// into an Application.
type JobRecord struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	URL         string    `json:"url"`
	SiteID      string    `json:"siteId"`
	JobID       string    `json:"jobId,omitempty"`
	Description string    `json:"description,omitempty"`
	DetectedAt  time.Time `json:"detectedAt"`
	Status      JobStatus `json:"status"`
}

// Source is the human label of the site the record came from.
func (r JobRecord) Source() string {
	if label, ok := siteLabels[r.SiteID]; ok {
		return label
	}
	return r.SiteID
}

var siteLabels = map[string]string{
	"linkedin": "LinkedIn",
	"indeed":   "Indeed",
	"naukri":   "Naukri",
}

// Application statuses known to the management surface. The set is open:
// any other value is stored verbatim.
const (
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusOffer     = "offer"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// DateLayout is the calendar-day format of Application.Date.
const DateLayout = "2006-01-02"

// Application is a persisted job application.
type Application struct {
	ID        int64      `json:"id"`
	Company   string     `json:"company"`
	Position  string     `json:"position"`
	Date      string     `json:"date"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Source    string     `json:"source,omitempty"`
	URL       string     `json:"url,omitempty"`
}

// Settings is the singleton user configuration consulted by detection and
// recording on every call.
type Settings struct {
	NotificationsEnabled bool     `json:"notificationsEnabled"`
	FollowUpDays         int      `json:"followUpDays"`
	AutoDetectEnabled    bool     `json:"autoDetectEnabled"`
	AutoSaveEnabled      bool     `json:"autoSaveEnabled"`
	CustomJobSites       []string `json:"customJobSites"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled: true,
		FollowUpDays:         7,
		AutoDetectEnabled:    true,
		AutoSaveEnabled:      true,
		CustomJobSites:       []string{},
	}
}

// SplitSites turns the newline-separated text of a settings form into a
// site list, trimming entries and dropping blanks.
func SplitSites(text string) []string {
	sites := []string{}
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			sites = append(sites, s)
		}
	}
	return sites
}
