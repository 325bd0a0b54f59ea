package journal

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(out io.Writer, entries []Entry) error {
	w := csv.NewWriter(out)

	header := []string{
		"id",
		"created_at",
		"feature",
		"request_id",
		"method",
		"upstream_url",
		"status_code",
		"outcome",
		"cached",
		"duration_ms",
		"detail",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			fmtTime(e.CreatedAt),
			e.Feature,
			e.RequestID,
			e.Method,
			e.UpstreamURL,
			strconv.Itoa(e.StatusCode),
			string(e.Outcome),
			strconv.FormatBool(e.Cached),
			strconv.FormatInt(e.Duration, 10),
			e.Detail,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteCSVFile writes entries to path.
func WriteCSVFile(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
