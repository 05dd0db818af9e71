package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/jobtrack/connectivity"
	"github.com/hazyhaar/jobtrack/dispatch"
)

// RegisterConnectivity registers the message handlers on a connectivity
// Router.
//
// Registered services:
//
//	possible-job-application   hold the job in the pending slot
//	job-application-submitted  record a submission (deduplicated)
//	get-applications           list all applications
//	get-settings               read settings
//	accept-pending             save the pending job as an application
//	dismiss-pending            clear the pending slot
func (t *Tracker) RegisterConnectivity(router *connectivity.Router) {
	router.RegisterLocal(dispatch.ActionPossibleApplication, t.handlePossible)
	router.RegisterLocal(dispatch.ActionSubmitted, t.handleSubmitted)
	router.RegisterLocal(dispatch.ActionGetApplications, t.handleGetApplications)
	router.RegisterLocal(dispatch.ActionGetSettings, t.handleGetSettings)
	router.RegisterLocal(dispatch.ActionAcceptPending, t.handleAcceptPending)
	router.RegisterLocal(dispatch.ActionDismissPending, t.handleDismissPending)
}

func (t *Tracker) handlePossible(ctx context.Context, payload []byte) ([]byte, error) {
	msg, err := dispatch.DecodeMessage(payload)
	if err != nil {
		return nil, err
	}
	if msg.Job == nil {
		return nil, fmt.Errorf("decode: %s without job", msg.Action)
	}
	if err := t.HoldPending(ctx, *msg.Job); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]bool{"held": true})
}

func (t *Tracker) handleSubmitted(ctx context.Context, payload []byte) ([]byte, error) {
	msg, err := dispatch.DecodeMessage(payload)
	if err != nil {
		return nil, err
	}
	if msg.Job == nil {
		return nil, fmt.Errorf("decode: %s without job", msg.Action)
	}
	ok, err := t.RecordSubmission(ctx, *msg.Job)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dispatch.SubmittedReply{Accepted: ok})
}

func (t *Tracker) handleGetApplications(ctx context.Context, _ []byte) ([]byte, error) {
	apps, err := t.store.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dispatch.ApplicationsReply{Applications: apps})
}

func (t *Tracker) handleGetSettings(ctx context.Context, _ []byte) ([]byte, error) {
	set, err := t.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(set)
}

func (t *Tracker) handleAcceptPending(ctx context.Context, _ []byte) ([]byte, error) {
	app, err := t.AcceptPending(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(app)
}

func (t *Tracker) handleDismissPending(ctx context.Context, _ []byte) ([]byte, error) {
	if err := t.DismissPending(ctx); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]bool{"dismissed": true})
}
