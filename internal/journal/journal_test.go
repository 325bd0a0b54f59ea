package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, Entry{
		Feature: "warehouse-capacity", Method: "GET", StatusCode: 200,
		Outcome: OutcomeOK, Duration: 12, CreatedAt: base,
	}))
	require.NoError(t, j.Record(ctx, Entry{
		Feature: "global-forecast", Method: "GET", StatusCode: 401,
		Outcome: OutcomeUpstreamError, Detail: "API server returned status 401",
		UpstreamURL: "http://api/api/inventory-level", RequestID: "req-1",
		Duration: 30, CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, j.Record(ctx, Entry{
		Feature: "warehouse-capacity", Method: "GET", StatusCode: 200,
		Outcome: OutcomeOK, Cached: true, Duration: 1, CreatedAt: base.Add(2 * time.Minute),
	}))

	all, err := j.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Cached, "newest first")
	assert.Equal(t, "global-forecast", all[1].Feature)
	assert.Equal(t, "req-1", all[1].RequestID)
	assert.Equal(t, OutcomeUpstreamError, all[1].Outcome)
	assert.True(t, all[1].CreatedAt.Equal(base.Add(time.Minute)))

	capacity, err := j.Recent(ctx, "warehouse-capacity", 1)
	require.NoError(t, err)
	require.Len(t, capacity, 1)
	assert.EqualValues(t, 1, capacity[0].Duration)

	counts, err := j.Counts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[Outcome]int{OutcomeOK: 2, OutcomeUpstreamError: 1}, counts)
}

func TestJournal_InMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(context.Background(), Entry{Feature: "x", Method: "OPTIONS", Outcome: OutcomeOK, StatusCode: 200}))
	got, err := j.Recent(context.Background(), "x", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestJournal_NilIsNoop(t *testing.T) {
	var j *Journal
	require.NoError(t, j.Record(context.Background(), Entry{Feature: "x"}))
	got, err := j.Recent(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	counts, err := j.Counts(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.NoError(t, j.Close())
}
