package journal

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: 2, Feature: "partner-trend", Method: "GET", StatusCode: 401, Outcome: OutcomeUpstreamError,
			Detail: "API server returned status 401, \"quoted\"", Duration: 12, CreatedAt: at},
		{ID: 1, Feature: "warehouse-capacity", Method: "GET", StatusCode: 200, Outcome: OutcomeOK, Cached: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, []string{"2", "2024-03-01T12:00:00Z", "partner-trend", "", "GET", "", "401",
		"upstream_error", "false", "12", "API server returned status 401, \"quoted\""}, records[1])
	assert.Equal(t, "", records[2][1])
	assert.Equal(t, "true", records[2][8])
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.csv")
	require.NoError(t, WriteCSVFile(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,created_at,feature,request_id,method,upstream_url,status_code,outcome,cached,duration_ms,detail\n", string(raw))

	require.Error(t, WriteCSVFile(filepath.Join(t.TempDir(), "missing", "x.csv"), nil))
}
