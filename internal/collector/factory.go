package collector

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leadhunt/ytleads/internal/domain"
)

// NewCollector selects the implementation based on COLLECTOR_MODE.
func NewCollector(ctx context.Context, apiKeys []string, logger *slog.Logger) (domain.Collector, error) {
	switch mode := os.Getenv("COLLECTOR_MODE"); mode {
	case "", "api":
		return NewClient(ctx, apiKeys, logger)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api' or 'mock')", mode)
	}
}
