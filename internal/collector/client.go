package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/leadhunt/ytleads/internal/domain"
)

// Client talks to the YouTube Data API, rotating across a pool of API
// keys when one runs out of quota.
type Client struct {
	pool     *KeyPool
	services map[string]*youtube.Service
	limiter  *rate.Limiter
	retry    RetryConfig
	logger   *slog.Logger
}

// NewClient builds one YouTube service per key up front so rotation is
// just a map lookup.
func NewClient(ctx context.Context, apiKeys []string, logger *slog.Logger) (*Client, error) {
	pool, err := NewKeyPool(apiKeys)
	if err != nil {
		return nil, err
	}

	services := make(map[string]*youtube.Service, pool.Size())
	for _, key := range pool.keys {
		svc, err := youtube.NewService(ctx, option.WithAPIKey(key))
		if err != nil {
			return nil, fmt.Errorf("youtube service: %w", err)
		}
		services[key] = svc
	}

	return &Client{
		pool:     pool,
		services: services,
		// Search pages are the expensive calls; pace them gently.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		retry:   DefaultRetryConfig,
		logger:  logger,
	}, nil
}

// SearchChannels fetches one page of channel search hits for a query.
func (c *Client) SearchChannels(ctx context.Context, query, pageToken string, maxResults int64) (domain.SearchPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.SearchPage{}, err
	}

	return executeWithRetry(ctx, c.pool, c.retry, c.logger, func(ctx context.Context, apiKey string) (domain.SearchPage, error) {
		call := c.services[apiKey].Search.List([]string{"snippet"}).
			Q(query).
			Type("channel").
			MaxResults(maxResults).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return domain.SearchPage{}, err
		}

		page := domain.SearchPage{NextPageToken: resp.NextPageToken}
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ChannelId == "" {
				continue
			}
			page.ChannelIDs = append(page.ChannelIDs, item.Snippet.ChannelId)
		}
		return page, nil
	})
}

// ChannelDetails batch-fetches snippet, statistics, branding and
// content details for up to 50 channel IDs in one call.
func (c *Client) ChannelDetails(ctx context.Context, ids []string) ([]domain.ChannelInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	return executeWithRetry(ctx, c.pool, c.retry, c.logger, func(ctx context.Context, apiKey string) ([]domain.ChannelInfo, error) {
		resp, err := c.services[apiKey].Channels.
			List([]string{"snippet", "statistics", "brandingSettings", "contentDetails"}).
			Id(ids...).
			MaxResults(50).
			Context(ctx).
			Do()
		if err != nil {
			return nil, err
		}

		var infos []domain.ChannelInfo
		for _, ch := range resp.Items {
			info := domain.ChannelInfo{ID: ch.Id}
			if ch.Snippet != nil {
				info.Title = ch.Snippet.Title
				info.Description = ch.Snippet.Description
			}
			if ch.Statistics != nil {
				info.Subscribers = int64(ch.Statistics.SubscriberCount)
			}
			if ch.BrandingSettings != nil && ch.BrandingSettings.Channel != nil {
				info.Country = ch.BrandingSettings.Channel.Country
			}
			if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
				info.UploadsPlaylist = ch.ContentDetails.RelatedPlaylists.Uploads
			}
			infos = append(infos, info)
		}
		return infos, nil
	})
}

// ChannelUploads returns the uploads playlist ID for one channel.
func (c *Client) ChannelUploads(ctx context.Context, id string) (string, error) {
	return executeWithRetry(ctx, c.pool, c.retry, c.logger, func(ctx context.Context, apiKey string) (string, error) {
		resp, err := c.services[apiKey].Channels.
			List([]string{"contentDetails"}).
			Id(id).
			Context(ctx).
			Do()
		if err != nil {
			return "", err
		}
		for _, ch := range resp.Items {
			if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
				return ch.ContentDetails.RelatedPlaylists.Uploads, nil
			}
		}
		return "", nil
	})
}
