package scan

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/leadhunt/ytleads/internal/checkpoint"
	"github.com/leadhunt/ytleads/internal/domain"
	"github.com/leadhunt/ytleads/internal/filter"
)

// maxPagesPerKeyword bounds a single keyword's run regardless of the
// per-keyword lead cap, guarding against pathological result sets.
const maxPagesPerKeyword = 6

// processKeyword drives paginated search, detail fetch, filtering and
// batch append for one keyword, resuming from and updating the
// checkpoint after every page. It returns the number of leads added in
// this session.
func (r *Runner) processKeyword(ctx context.Context, kw string, params domain.ScanParams, cp *checkpoint.Checkpoint, dedup map[string]struct{}) (int, error) {
	cursor, started := cp.Cursor(kw)
	if started && cursor == nil {
		r.Logger.Info("keyword already exhausted", "keyword", kw)
		return 0, nil
	}
	pageToken := ""
	if cursor != nil {
		pageToken = *cursor
	}

	done := cp.DoneCount(kw)
	startCount := done

	for pages := 0; pages < maxPagesPerKeyword && done < r.Filters.MaxValidPerKeyword; pages++ {
		if r.stopped() {
			r.Logger.Info("stop requested, leaving keyword", "keyword", kw)
			break
		}

		page, err := r.Collector.SearchChannels(ctx, kw, pageToken, r.Filters.MaxResultsPerPage)
		if err != nil {
			return done - startCount, err
		}
		if len(page.ChannelIDs) == 0 {
			r.Logger.Info("no more search results", "keyword", kw)
			cp.MarkExhausted(kw)
			cp.SetDoneCount(kw, done)
			if err := r.Checkpoints.Save(cp); err != nil {
				return done - startCount, err
			}
			break
		}

		details, err := r.Collector.ChannelDetails(ctx, page.ChannelIDs)
		if err != nil {
			return done - startCount, err
		}

		candidates := r.filterCandidates(kw, details, params, dedup)
		leads := r.enrichCandidates(ctx, candidates, r.Filters.MaxValidPerKeyword-done)
		if len(leads) > 0 {
			if err := r.Sink.AppendLeads(ctx, leads); err != nil {
				return done - startCount, err
			}
			for _, l := range leads {
				dedup[l.URL] = struct{}{}
				done++
				r.Logger.Info("lead added", "title", l.Title, "subs", l.Subscribers, "keyword", kw)
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			cp.MarkExhausted(kw)
		} else {
			cp.SetCursor(kw, pageToken)
		}
		cp.SetDoneCount(kw, done)
		if err := r.Checkpoints.Save(cp); err != nil {
			return done - startCount, err
		}

		if pageToken == "" {
			r.Logger.Info("reached end of results", "keyword", kw)
			break
		}
	}

	return done - startCount, nil
}

// filterCandidates applies the dedup, subscriber, country and email
// filters to a page of detail records. Survivors become leads.
func (r *Runner) filterCandidates(kw string, details []domain.ChannelInfo, params domain.ScanParams, dedup map[string]struct{}) []domain.Lead {
	var candidates []domain.Lead
	for _, ch := range details {
		if ch.ID == "" {
			continue
		}
		url := domain.ChannelURL(ch.ID)
		if _, seen := dedup[url]; seen {
			continue
		}
		if ch.Subscribers < params.MinSubs || ch.Subscribers > params.MaxSubs {
			continue
		}
		if !filter.CountryAllowed(ch.Country, r.Filters.AllowedCountries) {
			continue
		}
		emails := filter.ExtractEmails(ch.Description)
		if len(emails) == 0 {
			continue
		}
		candidates = append(candidates, domain.Lead{
			ID:          ch.ID,
			Title:       ch.Title,
			Emails:      emails,
			URL:         url,
			Keyword:     kw,
			Subscribers: ch.Subscribers,
		})
	}
	return candidates
}

// enrichCandidates fetches per-channel upload data on a bounded worker
// pool and returns at most `remaining` leads in completion order.
// Workers only fetch; the dedup set and counters are never touched from
// worker goroutines.
func (r *Runner) enrichCandidates(ctx context.Context, candidates []domain.Lead, remaining int) []domain.Lead {
	if len(candidates) == 0 || remaining <= 0 {
		return nil
	}

	// Buffered to len(candidates) so in-flight workers always finish.
	results := make(chan domain.Lead, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for _, c := range candidates {
		g.Go(func() error {
			uploads, err := r.Collector.ChannelUploads(gctx, c.ID)
			if err != nil {
				r.Logger.Warn("uploads lookup failed", "channel", c.ID, "error", err)
			} else {
				c.UploadsPlaylist = uploads
			}
			results <- c
			return nil
		})
	}
	g.Wait()
	close(results)

	var leads []domain.Lead
	for c := range results {
		if len(leads) >= remaining || r.stopped() {
			break
		}
		leads = append(leads, c)
	}
	return leads
}
