package domain

import "context"

// ChannelURLPrefix is the public URL form under which leads are recorded.
const ChannelURLPrefix = "https://www.youtube.com/channel/"

// ChannelURL returns the public URL for a channel ID.
func ChannelURL(id string) string {
	return ChannelURLPrefix + id
}

// ChannelInfo is the detail record fetched for one channel.
type ChannelInfo struct {
	ID              string
	Title           string
	Description     string
	Country         string
	Subscribers     int64
	UploadsPlaylist string
}

// Lead is a channel that passed every filter, destined for the sheet.
type Lead struct {
	ID              string
	Title           string
	Emails          []string
	URL             string
	Keyword         string
	Subscribers     int64
	UploadsPlaylist string
}

// SearchPage is one page of channel search hits.
type SearchPage struct {
	ChannelIDs    []string
	NextPageToken string
}

// ScanParams are the caller-supplied knobs for one scan.
type ScanParams struct {
	Keywords []string
	MinSubs  int64
	MaxSubs  int64
	// InactivityDays is accepted but not enforced by any filter yet.
	InactivityDays int
}

// FilterConfig holds the process-wide filtering limits.
type FilterConfig struct {
	// AllowedCountries is an uppercased allow-set; empty means no restriction.
	AllowedCountries   map[string]struct{}
	MaxResultsPerPage  int64
	MaxValidPerKeyword int
}

// Collector defines the remote search API surface the scraper consumes.
type Collector interface {
	// SearchChannels fetches one page of channel hits for a query. An
	// empty pageToken starts from the first page.
	SearchChannels(ctx context.Context, query, pageToken string, maxResults int64) (SearchPage, error)

	// ChannelDetails batch-fetches snippet/statistics/branding for up
	// to 50 channel IDs.
	ChannelDetails(ctx context.Context, ids []string) ([]ChannelInfo, error)

	// ChannelUploads returns the uploads playlist ID for one channel.
	ChannelUploads(ctx context.Context, id string) (string, error)
}

// Sink is the output spreadsheet.
type Sink interface {
	// Prepare ensures the sink is writable (worksheet and header row in
	// place) and returns the channel URLs it already holds, used to
	// seed the dedup set.
	Prepare(ctx context.Context) ([]string, error)

	// AppendLeads writes one row per lead.
	AppendLeads(ctx context.Context, leads []Lead) error
}
