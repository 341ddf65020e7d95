package outwriter

import (
	"os"

	"github.com/huangsam/qmetrics/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for pattern and project names
// in table output, based on terminal width and the width taken by the other columns.
func GetMaxTableNameWidth(cfg *contract.Config, fixedColumnsWidth int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve generous space for table borders, separators, and padding
	available := termWidth - fixedColumnsWidth - 20
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
