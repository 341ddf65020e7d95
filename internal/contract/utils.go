package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/qmetrics/schema"
	"github.com/mattn/go-isatty"
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // ExcellentColor represents a strong, healthy signal.
	GoodColor      = color.New(color.FgCyan)              // GoodColor represents an acceptable signal.
	FairColor      = color.New(color.FgYellow)            // FairColor represents standard caution, not bold.
	PoorColor      = color.New(color.FgRed, color.Bold)   // PoorColor represents standard danger.
	MutedColor     = color.New(color.FgHiBlack)           // MutedColor represents missing or unknown data.
)

// GetColorGrade returns a colored grade label for console output (table).
func GetColorGrade(grade schema.Grade) string {
	text := string(grade)
	switch grade {
	case schema.ExcellentGrade:
		return ExcellentColor.Sprint(text)
	case schema.GoodGrade:
		return GoodColor.Sprint(text)
	case schema.FairGrade:
		return FairColor.Sprint(text)
	case schema.PoorGrade:
		return PoorColor.Sprint(text)
	default: // "unknown"
		return MutedColor.Sprint(text)
	}
}

// GetColorTrend returns a colored trend label for console output (table).
func GetColorTrend(trend schema.TrendLabel) string {
	text := string(trend)
	switch trend {
	case schema.ImprovingTrend:
		return ExcellentColor.Sprint(text)
	case schema.DecliningTrend:
		return PoorColor.Sprint(text)
	default:
		return text
	}
}

// GetColorIndicator returns a colored indicator level for console output.
func GetColorIndicator(level schema.IndicatorLevel) string {
	text := string(level)
	switch level {
	case schema.SuccessLevel:
		return ExcellentColor.Sprint(text)
	case schema.WarningLevel:
		return FairColor.Sprint(text)
	default: // "info"
		return GoodColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for snapshot cache storage.
func GetCacheDBFilePath() string {
	return homeFilePath(".qmetrics_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for snapshot history.
func GetHistoryDBFilePath() string {
	return homeFilePath(".qmetrics_history.db")
}

// GetResultsDBFilePath returns the default path to the SQLite DB file holding validation results.
func GetResultsDBFilePath() string {
	return homeFilePath(".qmetrics_results.db")
}

func homeFilePath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// TruncateName truncates a label to a maximum width with ellipsis suffix.
// Requires maxWidth > 3 to ensure there's space for both the "..." suffix and at least one character of content.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseColorString parses the color flag. Besides the boolean forms it accepts
// "auto", which enables colors only when stdout is a terminal.
func ParseColorString(s string) (bool, error) {
	if strings.EqualFold(s, "auto") {
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
	}
	return ParseBoolString(s)
}
