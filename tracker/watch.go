package tracker

import (
	"context"
	"time"

	"github.com/hazyhaar/jobtrack/watch"
)

// WatchStore polls the database for applications written by other
// processes and raises the ID floor above them. It blocks until ctx is done.
func (t *Tracker) WatchStore(ctx context.Context, interval time.Duration) {
	w := watch.New(t.store.DB, watch.Options{
		Interval: interval,
		Detector: watch.MaxColumnDetector("applications", "id"),
		Clock:    t.clock,
		Logger:   t.logger,
	})
	w.OnChange(ctx, t.observeIDs)
}
