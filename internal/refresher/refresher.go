// Package refresher recomputes the materialized rollups that back the
// fast health path. It owns no timer: refreshes are always triggered
// from outside, by an operator endpoint or an external scheduler.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// ViewHealth reports the freshness of one rollup view.
type ViewHealth struct {
	View            string    `json:"view"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	IsStale         bool      `json:"is_stale"`
}

// Report summarizes one refresh pass. Failures are isolated per view:
// one broken view never aborts the others, and failures are reported
// here rather than raised.
type Report struct {
	Refreshed []string          `json:"refreshed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// Refresher drives rollup refreshes and answers freshness probes.
type Refresher struct {
	rollups    store.RollupStore
	staleAfter time.Duration
	logger     *slog.Logger
}

// New creates a Refresher. staleAfter is the age beyond which a view is
// reported stale. If log is nil, a default logger will be used.
func New(rollups store.RollupStore, staleAfter time.Duration, log *slog.Logger) *Refresher {
	if rollups == nil {
		panic("rollups cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Refresher{
		rollups:    rollups,
		staleAfter: staleAfter,
		logger:     log.With(slog.String("component", "rollup_refresher")),
	}
}

// Refresh recomputes the named views, or every rollup view when views is
// empty. Each view is first refreshed concurrently so reads keep
// flowing; if the backing store rejects that strategy the refresher
// falls back to an exclusive refresh of that view.
func (r *Refresher) Refresh(ctx context.Context, views []string) Report {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if len(views) == 0 {
		views = store.AllRollupViews
	}

	report := Report{Failed: make(map[string]string)}
	for _, view := range views {
		if err := r.refreshOne(ctx, view); err != nil {
			log.Error("rollup refresh failed",
				slog.String("view", view),
				slog.String("error", err.Error()))
			report.Failed[view] = err.Error()
			continue
		}
		report.Refreshed = append(report.Refreshed, view)
	}

	if len(report.Failed) == 0 {
		report.Failed = nil
	}

	return report
}

func (r *Refresher) refreshOne(ctx context.Context, view string) error {
	err := r.rollups.Refresh(ctx, view, true)
	if err != nil {
		r.logger.Warn("concurrent refresh failed, retrying exclusively",
			slog.String("view", view),
			slog.String("error", err.Error()))
		if err = r.rollups.Refresh(ctx, view, false); err != nil {
			return err
		}
	}

	if err := r.rollups.MarkRefreshed(ctx, view, time.Now().UTC()); err != nil {
		return fmt.Errorf("refreshed but failed to record: %w", err)
	}

	return nil
}

// CheckHealth returns the freshness of every rollup view. It is a cheap
// read used by the health data source's freshness probe and by the
// operator health endpoint, and never triggers a refresh itself.
func (r *Refresher) CheckHealth(ctx context.Context) (map[string]ViewHealth, error) {
	statuses, err := r.rollups.ViewStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check rollup health: %w", err)
	}

	now := time.Now().UTC()
	result := make(map[string]ViewHealth, len(statuses))
	for _, s := range statuses {
		result[s.View] = ViewHealth{
			View:            s.View,
			LastRefreshedAt: s.LastRefreshed,
			IsStale:         s.LastRefreshed.IsZero() || now.Sub(s.LastRefreshed) > r.staleAfter,
		}
	}

	return result, nil
}
