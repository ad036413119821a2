package mood

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/model/chat"
)

const (
	// DefaultHistoryLimit is how many records History returns.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit is the largest read window History will serve.
	MaxHistoryLimit = 50
	// DefaultCapacity bounds how many records a store retains.
	DefaultCapacity = 1000
)

// ErrInvalidLabel is returned when a record carries a label outside the closed set.
var ErrInvalidLabel = errors.New("invalid emotion label")

// Stats maps each emotion label to the number of messages resolved to it.
type Stats map[emotion.Label]int

// NewStats returns Stats with every label present at zero.
func NewStats() Stats {
	stats := make(Stats, len(emotion.Labels()))
	for _, label := range emotion.Labels() {
		stats[label] = 0
	}
	return stats
}

// Clone returns an independent copy.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for label, count := range s {
		out[label] = count
	}
	return out
}

// Total sums every counter.
func (s Stats) Total() int {
	total := 0
	for _, count := range s {
		total += count
	}
	return total
}

// Store persists mood counters and conversation records.
type Store interface {
	// Observe increments the record's label counter and appends the record as
	// one step, returning the counters after the update.
	Observe(ctx context.Context, record chat.Record) (Stats, error)
	Stats(ctx context.Context) (Stats, error)
	// History returns up to limit most recent records, oldest first.
	History(ctx context.Context, limit int) ([]chat.Record, error)
	Backend() string
}

// Tracker fronts a Store with label validation and the read window.
type Tracker struct {
	store        Store
	historyLimit int
}

// NewTracker wraps store. historyLimit <= 0 uses DefaultHistoryLimit and
// values above MaxHistoryLimit are clamped to it.
func NewTracker(store Store, historyLimit int) *Tracker {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if historyLimit > MaxHistoryLimit {
		historyLimit = MaxHistoryLimit
	}
	return &Tracker{store: store, historyLimit: historyLimit}
}

// Observe records one classified exchange.
func (t *Tracker) Observe(ctx context.Context, record chat.Record) (Stats, error) {
	if !record.Emotion.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, record.Emotion)
	}

	stats, err := t.store.Observe(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("observe %s: %w", record.Emotion, err)
	}

	log.Debug().
		Str("component", "mood").
		Str("emotion", string(record.Emotion)).
		Int("count", stats[record.Emotion]).
		Msg("mood counter updated")
	return stats, nil
}

// Stats returns a snapshot of every counter.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	return t.store.Stats(ctx)
}

// History returns the most recent records within the read window.
func (t *Tracker) History(ctx context.Context) ([]chat.Record, error) {
	return t.store.History(ctx, t.historyLimit)
}

// HistoryLimit returns the read window size.
func (t *Tracker) HistoryLimit() int {
	return t.historyLimit
}

// Backend names the underlying store.
func (t *Tracker) Backend() string {
	return t.store.Backend()
}
