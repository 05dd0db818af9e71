// Package dispatch turns detection results into messages on the connectivity
// boundary and decides when a page deserves another detection pass.
package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/jobtrack/domain"
)

// Message actions. Each action is also the connectivity service name.
const (
	ActionPossibleApplication = "possible-job-application"
	ActionSubmitted           = "job-application-submitted"
	ActionGetApplications     = "get-applications"
	ActionGetSettings         = "get-settings"
	ActionAcceptPending       = "accept-pending"
	ActionDismissPending      = "dismiss-pending"
)

// Message is the envelope carried across the boundary.
type Message struct {
	ID     string            `json:"id,omitempty"`
	Action string            `json:"action"`
	Job    *domain.JobRecord `json:"job,omitempty"`
	SentAt time.Time         `json:"sentAt,omitempty"`
}

// ActionFor returns the action a record is dispatched under.
func ActionFor(rec domain.JobRecord) string {
	if rec.Status == domain.JobApplied {
		return ActionSubmitted
	}
	return ActionPossibleApplication
}

// DecodeMessage parses an envelope and checks that job-carrying actions
// have a usable job.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode: %w", err)
	}
	switch m.Action {
	case ActionPossibleApplication, ActionSubmitted:
		if m.Job == nil || m.Job.Title == "" || m.Job.Company == "" {
			return Message{}, fmt.Errorf("decode: %s without title and company", m.Action)
		}
	case "":
		return Message{}, fmt.Errorf("decode: missing action")
	}
	return m, nil
}

// SubmittedReply answers ActionSubmitted.
type SubmittedReply struct {
	Accepted bool `json:"accepted"`
}

// ApplicationsReply answers ActionGetApplications.
type ApplicationsReply struct {
	Applications []domain.Application `json:"applications"`
}
