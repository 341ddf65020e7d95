package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// gauge is one exported value of the global snapshot.
type gauge struct {
	name  string
	help  string
	value float64
}

func snapshotGauges(snap *schema.MetricsSnapshot, cache schema.CacheStats) []gauge {
	return []gauge{
		{"qmetrics_validations_total", "Validation records in the timeframe.", float64(snap.Overview.TotalValidations)},
		{"qmetrics_success_rate_percent", "Share of successful validations.", float64(snap.Overview.SuccessRate)},
		{"qmetrics_failure_rate_percent", "Share of failed validations.", float64(snap.Overview.FailureRate)},
		{"qmetrics_warning_rate_percent", "Share of validations with warnings.", float64(snap.Overview.WarningRate)},
		{"qmetrics_quality_score", "Quality score with warnings counted as half a success.", float64(snap.Overview.QualityScore)},
		{"qmetrics_health_score", "Health score after deductions.", float64(snap.Health.Score)},
		{"qmetrics_patterns_observed", "Distinct patterns seen in the timeframe.", float64(snap.Patterns.TotalPatterns)},
		{"qmetrics_execution_time_avg_ms", "Average validation execution time in milliseconds.", float64(snap.Performance.AverageExecutionTime)},
		{"qmetrics_throughput_per_hour", "Validations per hour over the timeframe.", snap.Performance.Throughput},
		{"qmetrics_cache_entries", "Snapshots held in the in-memory cache.", float64(cache.Size)},
	}
}

func metricFamilies(gauges []gauge) []*dto.MetricFamily {
	families := make([]*dto.MetricFamily, 0, len(gauges))
	for _, g := range gauges {
		families = append(families, &dto.MetricFamily{
			Name: proto.String(g.name),
			Help: proto.String(g.help),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: proto.Float64(g.value)},
			}},
		})
	}
	return families
}

// prometheus serves the global default-timeframe snapshot in the text exposition format.
func (h *handler) prometheus(c *gin.Context) {
	snap, err := h.svc.Quality(c.Request.Context(), "", contract.DefaultTimeframeDays)
	if err != nil {
		h.fail(c, "metrics", err)
		return
	}

	c.Header("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	c.Status(http.StatusOK)
	for _, mf := range metricFamilies(snapshotGauges(snap, h.svc.CacheStats())) {
		if _, err := expfmt.MetricFamilyToText(c.Writer, mf); err != nil {
			h.logger.Error("failed to write metrics", zap.Error(err))
			return
		}
	}
}
