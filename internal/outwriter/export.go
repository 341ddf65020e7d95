package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/qmetrics/schema"
)

// ExportCSVHeader is the header row of the CSV export.
var ExportCSVHeader = []string{"period", "totalValidations", "successRate", "qualityScore", "trend"}

// WriteExport writes the snapshot as an export byte stream.
// JSON carries the whole snapshot; CSV carries one row per trend bucket.
func WriteExport(w io.Writer, snap *schema.MetricsSnapshot, format schema.ExportFormat) error {
	switch format {
	case schema.JSONExport, "":
		return writeJSON(w, snap)
	case schema.CSVExport:
		return writeCSVWithHeader(w, ExportCSVHeader, func(cw *csv.Writer) error {
			for _, p := range snap.Trends {
				row := []string{
					p.Period,
					strconv.Itoa(p.TotalValidations),
					strconv.Itoa(p.SuccessRate),
					strconv.Itoa(p.QualityScore),
					string(p.Trend),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportContentType returns the MIME type for an export format.
func ExportContentType(format schema.ExportFormat) string {
	if format == schema.CSVExport {
		return "text/csv"
	}
	return "application/json"
}

// ExportFilename returns the suggested download name for an export.
func ExportFilename(project string, days int, format schema.ExportFormat) string {
	if format == "" {
		format = schema.JSONExport
	}
	return fmt.Sprintf("quality-metrics-%s-%dd.%s", filenameSafe(schema.CacheScope(project)), days, format)
}

// filenameSafe replaces every rune outside [A-Za-z0-9._-] with '-'.
func filenameSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '-'
	}, s)
}

// PrintExport writes the export stream to the configured output file or stdout.
func PrintExport(snap *schema.MetricsSnapshot, format schema.ExportFormat, outputFile string) error {
	return writeWithFile(outputFile, func(w io.Writer) error {
		return WriteExport(w, snap, format)
	}, "Wrote "+string(format)+" export")
}
