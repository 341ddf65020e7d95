package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrends() schema.TrendsResult {
	snap := sampleSnapshot()
	return schema.TrendsResult{Trends: snap.Trends, Overview: snap.Overview}
}

func TestWriteTrendsResults(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.TextOut, ResultsBackend: schema.FilesResults}
		var buf bytes.Buffer
		require.NoError(t, WriteTrendsResults(&buf, sampleTrends(), cfg, time.Millisecond))

		output := buf.String()
		assert.Contains(t, output, "Quality trends (1 buckets)")
		assert.Contains(t, output, "2024-06-27")
		assert.Contains(t, output, "70%")
		assert.Contains(t, output, "Overall: 10 validations, quality score 80, trend stable")
	})

	t.Run("json", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.JSONOut}
		var buf bytes.Buffer
		require.NoError(t, WriteTrendsResults(&buf, sampleTrends(), cfg, time.Millisecond))

		var decoded schema.TrendsResult
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded.Trends, 1)
		assert.Equal(t, "2024-06-27", decoded.Trends[0].Period)
		assert.Equal(t, 80, decoded.Trends[0].QualityScore)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.CSVOut}
		var buf bytes.Buffer
		require.NoError(t, WriteTrendsResults(&buf, sampleTrends(), cfg, time.Millisecond))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "period", records[0][0])
		assert.Equal(t, "trend", records[0][8])
		assert.Equal(t, []string{
			"2024-06-27",
			"2024-06-27T12:00:00Z",
			"2024-06-30T12:00:00Z",
			"10", "70", "10", "20", "80", "stable",
		}, records[1])
	})

	t.Run("parquet without file", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut}
		var buf bytes.Buffer
		assert.Error(t, WriteTrendsResults(&buf, sampleTrends(), cfg, time.Millisecond))
	})
}

func TestPrintTrendsResultsParquet(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut}
		err := PrintTrendsResults(sampleTrends(), cfg, time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--output-file")
	})

	t.Run("writes file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trends.parquet")
		cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: path}
		require.NoError(t, PrintTrendsResults(sampleTrends(), cfg, time.Millisecond))
		assert.FileExists(t, path)
	})
}
