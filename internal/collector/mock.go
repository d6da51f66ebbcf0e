package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/leadhunt/ytleads/internal/domain"
)

// MockClient implements domain.Collector but returns fake data, handy
// for dry-running the pipeline without burning API quota.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (mc *MockClient) SearchChannels(ctx context.Context, query, pageToken string, maxResults int64) (domain.SearchPage, error) {
	// Simulate network latency (nice for testing concurrency)
	time.Sleep(200 * time.Millisecond)

	// One page only.
	if pageToken != "" {
		return domain.SearchPage{}, nil
	}
	page := domain.SearchPage{}
	for i := int64(0); i < maxResults && i < 10; i++ {
		page.ChannelIDs = append(page.ChannelIDs, fmt.Sprintf("UCmock_%s_%d", query, i))
	}
	return page, nil
}

func (mc *MockClient) ChannelDetails(ctx context.Context, ids []string) ([]domain.ChannelInfo, error) {
	time.Sleep(200 * time.Millisecond)

	var infos []domain.ChannelInfo
	for i, id := range ids {
		infos = append(infos, domain.ChannelInfo{
			ID:          id,
			Title:       fmt.Sprintf("Simulated Channel %d", i),
			Description: fmt.Sprintf("Business inquiries: creator%d@example.com", i),
			Country:     "US",
			Subscribers: int64(1000 * (i + 1)),
		})
	}
	return infos, nil
}

func (mc *MockClient) ChannelUploads(ctx context.Context, id string) (string, error) {
	time.Sleep(100 * time.Millisecond)
	return "UU" + id[2:], nil
}
