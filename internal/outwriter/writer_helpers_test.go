package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		precision int
		value     float64
		expected  string
	}{
		{1, 1234.56, "1234.6"},
		{2, 0.875, "0.88"},
		{0, 99.5, "100"},
		{2, -42.567, "-42.57"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, createFormatters(tt.precision)(tt.value))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, schema.CacheStats{Size: 2, Keys: []string{"all:30", "web:7"}}))
	assert.Equal(t, "{\n  \"size\": 2,\n  \"keys\": [\n    \"all:30\",\n    \"web:7\"\n  ]\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"pattern", "scope"}, func(w *csv.Writer) error {
		return w.Write([]string{"retry, with backoff", "backend"})
	})
	require.NoError(t, err)
	assert.Equal(t, "pattern,scope\n\"retry, with backoff\",backend\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		err := writeWithFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "quality")
			return err
		}, "Wrote report")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "quality", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.txt")
		err := writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote report")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/dir/report.txt", func(io.Writer) error { return nil }, "Wrote report")
		assert.Error(t, err)
	})
}

func TestLabels(t *testing.T) {
	plain := &contract.Config{}
	assert.Equal(t, "-", scopeLabel(""))
	assert.Equal(t, "frontend", scopeLabel(schema.FrontendScope))
	assert.Equal(t, "good", gradeLabel(plain, schema.GoodGrade))
	assert.Equal(t, "declining", trendLabel(plain, schema.DecliningTrend))
	assert.Equal(t, "WARNING", indicatorLabel(plain, schema.WarningLevel))
	assert.Equal(t, "85%", percent(85))
	assert.Equal(t, "1500ms", millis(1500))
}
