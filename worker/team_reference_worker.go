package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"teamroster/utils"
)

// TeamRefSweeper is the slice of the store the sweeper needs.
type TeamRefSweeper interface {
	ClearDanglingTeamRefs(ctx context.Context) ([]uint, error)
}

// TeamReferenceWorker periodically clears user team references that point at
// teams which no longer exist, such as rows removed outside the store.
type TeamReferenceWorker struct {
	Store    TeamRefSweeper
	Interval time.Duration
	Logger   logrus.FieldLogger
}

func NewTeamReferenceWorker(store TeamRefSweeper, interval time.Duration, logger logrus.FieldLogger) *TeamReferenceWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &TeamReferenceWorker{
		Store:    store,
		Interval: interval,
		Logger:   logger,
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (w *TeamReferenceWorker) Start(ctx context.Context) {
	w.Logger.WithField("interval", w.Interval.String()).Info("Team reference worker started")

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("Team reference worker shutting down...")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns the ids of the users it detached.
func (w *TeamReferenceWorker) Sweep(ctx context.Context) []uint {
	ids, err := w.Store.ClearDanglingTeamRefs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			utils.LogError(w.Logger, "team_reference_sweep", err, nil)
		}
		return nil
	}
	if len(ids) > 0 {
		utils.LogEvent(w.Logger, "team_references_cleared", map[string]interface{}{
			"count":    len(ids),
			"user_ids": ids,
		})
	}
	return ids
}
