package mood

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/model/chat"
)

func record(i int, label emotion.Label) chat.Record {
	ts := time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC)
	return chat.NewRecord(fmt.Sprintf("id-%d", i), ts, fmt.Sprintf("msg %d", i), "reply", label)
}

func TestNewStatsHasEveryLabel(t *testing.T) {
	stats := NewStats()
	require.Len(t, stats, 6)
	for _, label := range emotion.Labels() {
		count, ok := stats[label]
		assert.True(t, ok, "missing %s", label)
		assert.Zero(t, count)
	}
}

func TestTrackerObserveIncrementsExactlyOne(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(0), 0)
	ctx := context.Background()

	before, err := tracker.Stats(ctx)
	require.NoError(t, err)

	after, err := tracker.Observe(ctx, record(1, emotion.Sadness))
	require.NoError(t, err)

	for _, label := range emotion.Labels() {
		want := before[label]
		if label == emotion.Sadness {
			want++
		}
		assert.Equal(t, want, after[label], label)
	}
}

func TestTrackerRejectsUnknownLabel(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(0), 0)
	_, err := tracker.Observe(context.Background(), record(1, emotion.Label("bored")))
	assert.True(t, errors.Is(err, ErrInvalidLabel))

	stats, err := tracker.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total())
}

func TestTrackerHistoryWindowIsChronological(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(0), 0)
	ctx := context.Background()

	for i := 0; i < 75; i++ {
		_, err := tracker.Observe(ctx, record(i, emotion.Neutral))
		require.NoError(t, err)
	}

	history, err := tracker.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, "id-25", history[0].ID)
	assert.Equal(t, "id-74", history[len(history)-1].ID)
	for i := 1; i < len(history); i++ {
		assert.Less(t, history[i-1].Timestamp, history[i].Timestamp)
	}
}

func TestTrackerClampsHistoryWindow(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(0), 200)
	assert.Equal(t, MaxHistoryLimit, tracker.HistoryLimit())

	ctx := context.Background()
	for i := 0; i < 120; i++ {
		_, err := tracker.Observe(ctx, record(i, emotion.Joy))
		require.NoError(t, err)
	}

	history, err := tracker.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, MaxHistoryLimit)
	assert.Equal(t, "id-119", history[len(history)-1].ID)
}

func TestMemoryStoreCapacityDropsOldest(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := store.Observe(ctx, record(i, emotion.Joy))
		require.NoError(t, err)
	}

	all, err := store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Equal(t, "id-15", all[0].ID)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, stats[emotion.Joy], "counters are not bounded by history capacity")
}

func TestMemoryStoreSnapshotsAreCopies(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	stats, err := store.Observe(ctx, record(1, emotion.Anger))
	require.NoError(t, err)
	stats[emotion.Anger] = 100

	fresh, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh[emotion.Anger])
}

func TestMemoryStoreConcurrentObserve(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(0), 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			label := emotion.Labels()[i%len(emotion.Labels())]
			_, err := tracker.Observe(ctx, record(i, label))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := tracker.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.Total())

	history, err := tracker.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, DefaultHistoryLimit)
}

func TestParseCountsFillsMissingLabels(t *testing.T) {
	stats, err := parseCounts(map[string]string{"joy": "3", "fear": "1"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats[emotion.Joy])
	assert.Equal(t, 1, stats[emotion.Fear])
	assert.Equal(t, 0, stats[emotion.Disgust])

	_, err = parseCounts(map[string]string{"joy": "many"})
	assert.Error(t, err)
}

func TestDecodeRecords(t *testing.T) {
	records, err := decodeRecords([]string{
		`{"id":"a","ts":"2024-01-01T00:00:00Z","user":"hi","bot":"hello","emotion":"neutral"}`,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, emotion.Neutral, records[0].Emotion)

	_, err = decodeRecords([]string{"not json"})
	assert.Error(t, err)
}

func TestRedisStoreKeysAndDefaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	store := newRedisStore(client, "", 0)
	assert.Equal(t, "mindhaven:mood:counts", store.countsKey())
	assert.Equal(t, "mindhaven:mood:history", store.historyKey())
	assert.Equal(t, DefaultCapacity, store.capacity)
	assert.Equal(t, "redis", store.Backend())
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("://nope", "", 0)
	assert.Error(t, err)
}
