// Package checkpoint persists per-keyword scan progress so an
// interrupted multi-keyword run can resume where it left off.
package checkpoint

// Checkpoint is the durable record of a scan's progress.
type Checkpoint struct {
	// Positions maps keyword to its pagination cursor. A missing key
	// means the keyword has not been started; an explicit null means
	// its result set was exhausted.
	Positions map[string]*string `json:"positions"`

	// KeywordsDone maps keyword to the number of leads added for it
	// across all runs.
	KeywordsDone map[string]int `json:"keywords_done"`

	// ProcessedChannels is a snapshot of every channel URL known to the
	// dedup set, refreshed after each keyword completes.
	ProcessedChannels []string `json:"processed_channels,omitempty"`
}

// New returns an empty checkpoint with initialized maps.
func New() *Checkpoint {
	return &Checkpoint{
		Positions:    make(map[string]*string),
		KeywordsDone: make(map[string]int),
	}
}

// Cursor returns the saved pagination cursor for a keyword. started is
// false when the keyword has never been touched; a true started with a
// nil cursor means the keyword's results were exhausted.
func (c *Checkpoint) Cursor(keyword string) (cursor *string, started bool) {
	cursor, started = c.Positions[keyword]
	return cursor, started
}

// SetCursor records the next page token to resume a keyword from.
func (c *Checkpoint) SetCursor(keyword, pageToken string) {
	c.Positions[keyword] = &pageToken
}

// MarkExhausted records that a keyword has no further pages.
func (c *Checkpoint) MarkExhausted(keyword string) {
	c.Positions[keyword] = nil
}

// DoneCount returns how many leads have been added for a keyword.
func (c *Checkpoint) DoneCount(keyword string) int {
	return c.KeywordsDone[keyword]
}

// SetDoneCount records the running lead count for a keyword.
func (c *Checkpoint) SetDoneCount(keyword string, count int) {
	c.KeywordsDone[keyword] = count
}

// SnapshotDedup replaces the stored channel-URL snapshot with the
// current dedup set.
func (c *Checkpoint) SnapshotDedup(dedup map[string]struct{}) {
	urls := make([]string, 0, len(dedup))
	for u := range dedup {
		urls = append(urls, u)
	}
	c.ProcessedChannels = urls
}

// normalize backfills maps that a hand-edited or older checkpoint file
// may omit.
func (c *Checkpoint) normalize() {
	if c.Positions == nil {
		c.Positions = make(map[string]*string)
	}
	if c.KeywordsDone == nil {
		c.KeywordsDone = make(map[string]int)
	}
}
