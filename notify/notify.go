// Package notify delivers the tracker's user-facing notifications: the
// prompt for a possible application and the confirmation of a tracked one.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/jobtrack/domain"
)

// Kinds of notification.
const (
	KindPossible = "possible-application"
	KindTracked  = "application-tracked"
)

// Prompt actions offered with a possible application.
const (
	ActionTrack  = "Track Application"
	ActionIgnore = "Ignore"
)

// Notification is one message for the user.
type Notification struct {
	Kind        string              `json:"type"`
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Actions     []string            `json:"actions,omitempty"`
	Job         *domain.JobRecord   `json:"job,omitempty"`
	Application *domain.Application `json:"application,omitempty"`
}

// PossibleApplication builds the prompt shown when a job view is detected.
func PossibleApplication(rec domain.JobRecord) Notification {
	return Notification{
		Kind:    KindPossible,
		Title:   "Job Application Detected",
		Message: fmt.Sprintf("Detected possible job at %s: %s", rec.Company, rec.Title),
		Actions: []string{ActionTrack, ActionIgnore},
		Job:     &rec,
	}
}

// Tracked builds the confirmation shown after an automatic save.
func Tracked(app domain.Application) Notification {
	return Notification{
		Kind:        KindTracked,
		Title:       "Job Application Tracked",
		Message:     fmt.Sprintf("Automatically tracked your application to %s for %s", app.Company, app.Position),
		Application: &app,
	}
}

// Notifier delivers notifications. Callers treat errors as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log writes notifications to a logger.
type Log struct {
	Logger *slog.Logger
}

// Notify logs n at Info.
func (l Log) Notify(ctx context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "type", n.Kind, "title", n.Title, "message", n.Message)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers n to all notifiers, even when some fail.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, x := range m {
		if err := x.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
