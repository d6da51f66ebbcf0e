// Package scan drives the whole lead scan: it iterates keywords,
// resumes each from the checkpoint, and hands matching channels to the
// output sink.
package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadhunt/ytleads/internal/checkpoint"
	"github.com/leadhunt/ytleads/internal/domain"
)

const defaultWorkers = 5

// Runner orchestrates one scan. All collaborators are injected; the
// Runner itself owns the dedup set for the run's lifetime.
type Runner struct {
	Collector   domain.Collector
	Sink        domain.Sink
	Checkpoints *checkpoint.Store
	Filters     domain.FilterConfig

	// Workers bounds the per-candidate fetch pool in the append step.
	Workers int

	Logger *slog.Logger

	// ShouldStop is polled at page boundaries; in-flight API calls are
	// allowed to finish.
	ShouldStop func() bool
}

// Run executes the scan for the given params. Progress is narrated
// through the logger; the returned error is non-nil only for
// run-terminating conditions. Whatever checkpoint state was last saved
// remains valid for a future resume.
func (r *Runner) Run(ctx context.Context, params domain.ScanParams) error {
	if r.Workers <= 0 {
		r.Workers = defaultWorkers
	}
	r.Logger.Info("scan starting", "keywords", len(params.Keywords), "min_subs", params.MinSubs, "max_subs", params.MaxSubs)
	if params.InactivityDays > 0 {
		r.Logger.Info("inactivity filter is accepted but not enforced yet", "inactivity_days", params.InactivityDays)
	}

	existing, err := r.Sink.Prepare(ctx)
	if err != nil {
		return fmt.Errorf("prepare sink: %w", err)
	}

	cp := r.Checkpoints.Load()
	dedup := make(map[string]struct{}, len(existing)+len(cp.ProcessedChannels))
	for _, u := range existing {
		dedup[u] = struct{}{}
	}
	for _, u := range cp.ProcessedChannels {
		dedup[u] = struct{}{}
	}
	r.Logger.Info("dedup set seeded", "known_channels", len(dedup))

	totalAdded := 0
	for _, kw := range params.Keywords {
		if r.stopped() {
			r.Logger.Info("scan stopped by caller")
			break
		}
		if cp.DoneCount(kw) >= r.Filters.MaxValidPerKeyword {
			r.Logger.Info("keyword already fully processed, skipping", "keyword", kw, "added", cp.DoneCount(kw))
			continue
		}

		r.Logger.Info("processing keyword", "keyword", kw)
		added, err := r.processKeyword(ctx, kw, params, cp, dedup)
		totalAdded += added
		if err != nil {
			return fmt.Errorf("keyword %q: %w", kw, err)
		}
		r.Logger.Info("keyword finished", "keyword", kw, "added", added)

		cp.SnapshotDedup(dedup)
		if err := r.Checkpoints.Save(cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}

	r.Logger.Info("scan complete", "total_added", totalAdded)
	return nil
}

func (r *Runner) stopped() bool {
	return r.ShouldStop != nil && r.ShouldStop()
}
