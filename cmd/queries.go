package cmd

import (
	"github.com/huangsam/qmetrics/core"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/spf13/cobra"
)

// runExecutor adapts a core executor to a cobra Run function.
func runExecutor(name string, exec core.ExecutorFunc) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		if err := exec(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run "+name, err)
		}
	}
}

// qualityCmd prints the overview of the quality snapshot.
var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Show the quality overview for a project or all projects.",
	Long: `Compute the overall quality snapshot from validation results in the timeframe.

Shows totals, success/failure/warning rates, the quality score
(warnings count as half a success) and the week-over-week trend.

Examples:
  # Overview of every project over the last 30 days
  qmetrics quality

  # One project over the last week, as JSON
  qmetrics quality --project web-app --days 7 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("quality report", core.ExecuteQuality),
}

// trendsCmd prints the bucketed trend.
var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show quality over time, split into up to 11 periods.",
	Long: `Split the timeframe into equal periods and compute an overview for each.

Each period is max(1, days/10) days wide. The oldest period is listed first.

Examples:
  # 90 days in 9-day periods
  qmetrics trends --days 90

  # Write the periods to Parquet for analysis elsewhere
  qmetrics trends --output parquet --output-file trends.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("trends report", core.ExecuteTrends),
}

// healthCmd prints the health report.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the health score, indicators and recommendations.",
	Long: `Score the health of a project from 0 to 100.

Deductions apply for a low success rate, a declining trend, frequent failures
and slow validations. The grade follows the remaining score.

Examples:
  qmetrics health --project web-app`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("health report", core.ExecuteHealth),
}

// patternsCmd prints the pattern rankings.
var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Rank patterns by usage and effectiveness.",
	Long: `Rank the patterns referenced by validations.

Lists the most used patterns, the most effective patterns and the least
effective patterns used at least 3 times, alongside the declared pattern library.

Examples:
  # Only backend patterns
  qmetrics patterns --scope backend

  # Pattern rankings as CSV
  qmetrics patterns --output csv --output-file patterns.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("patterns report", core.ExecutePatterns),
}

// performanceCmd prints execution statistics.
var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Show execution time statistics and throughput.",
	Args:  cobra.NoArgs,
	Long: `Summarize execution times, test counts and validation throughput.

Examples:
  qmetrics performance --days 14`,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("performance report", core.ExecutePerformance),
}

// comparativeCmd ranks every project.
var comparativeCmd = &cobra.Command{
	Use:   "comparative",
	Short: "Rank all projects by quality score.",
	Long: `Rank every project with at least 5 validations by quality score.

The project given by --project is marked in the ranking.

Examples:
  qmetrics comparative --project web-app`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("comparative report", core.ExecuteComparative),
}

// exportCmd writes the full snapshot as JSON or CSV.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the metrics snapshot as JSON or CSV.",
	Long: `Export the full snapshot as JSON, or its trend periods as CSV.

Examples:
  qmetrics export --format json --output-file metrics.json
  qmetrics export --format csv --project web-app`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("export", core.ExecuteExport),
}
