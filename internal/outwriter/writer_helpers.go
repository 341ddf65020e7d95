package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Styles for section headings in text output.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatters creates the float formatter used across output types.
func createFormatters(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// writeTable renders a right-aligned table with the given header and rows.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writeSection prints a section heading, styled when colors are enabled.
func writeSection(w io.Writer, cfg *contract.Config, title string) {
	if cfg.UseColors {
		_, _ = fmt.Fprintln(w, headerStyle.Render(title))
		return
	}
	_, _ = fmt.Fprintln(w, title)
}

// writeFooter prints the timing line shown under every text report.
func writeFooter(w io.Writer, cfg *contract.Config, what string, d time.Duration) {
	line := fmt.Sprintf("%s computed in %v. Results backend: %s", what, d, cfg.ResultsBackend)
	if cfg.UseColors {
		line = subtleStyle.Render(line)
	}
	_, _ = fmt.Fprintln(w, line)
}

// scopeLabel returns a printable scope, or a dash for untyped patterns.
func scopeLabel(scope schema.PatternScope) string {
	if scope == "" {
		return "-"
	}
	return string(scope)
}

// gradeLabel returns the grade, colored when enabled.
func gradeLabel(cfg *contract.Config, grade schema.Grade) string {
	if cfg.UseColors {
		return contract.GetColorGrade(grade)
	}
	return string(grade)
}

// trendLabel returns the trend, colored when enabled.
func trendLabel(cfg *contract.Config, trend schema.TrendLabel) string {
	if cfg.UseColors {
		return contract.GetColorTrend(trend)
	}
	return string(trend)
}

// indicatorLabel returns the indicator level, colored when enabled.
func indicatorLabel(cfg *contract.Config, level schema.IndicatorLevel) string {
	if cfg.UseColors {
		return contract.GetColorIndicator(level)
	}
	return strings.ToUpper(string(level))
}

// percent formats an integer percentage.
func percent(v int) string {
	return fmt.Sprintf("%d%%", v)
}

// millis formats an integer millisecond duration.
func millis(v int) string {
	return fmt.Sprintf("%dms", v)
}
