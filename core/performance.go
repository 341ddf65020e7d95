package core

import (
	"math"
	"sort"

	"github.com/huangsam/qmetrics/schema"
)

// calculatePerformance computes execution-time statistics and throughput.
// Records without an execution time or test count are left out of those statistics.
// Records must be sorted ascending by timestamp.
func calculatePerformance(records []schema.ValidationResult) schema.PerformanceMetrics {
	var m schema.PerformanceMetrics

	times := executionTimes(records)
	if len(times) > 0 {
		sort.Float64s(times)
		m.AverageExecutionTime = int(math.Round(mean(times)))
		m.MedianExecutionTime = int(math.Round(median(times)))
		m.MinExecutionTime = int(math.Round(times[0]))
		m.MaxExecutionTime = int(math.Round(times[len(times)-1]))
	}

	var counted int
	for _, r := range records {
		if r.TestCount != nil {
			counted++
			m.TotalTestsExecuted += *r.TestCount
		}
	}
	if counted > 0 {
		m.AverageTestCount = int(math.Round(float64(m.TotalTestsExecuted) / float64(counted)))
	}

	m.Throughput = throughput(records)
	return m
}

// executionTimes returns the execution times that were reported.
func executionTimes(records []schema.ValidationResult) []float64 {
	var times []float64
	for _, r := range records {
		if r.ExecutionTime != nil {
			times = append(times, *r.ExecutionTime)
		}
	}
	return times
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// throughput is records per hour between the first and last record, rounded to two decimals.
func throughput(records []schema.ValidationResult) float64 {
	if len(records) < 2 {
		return 0
	}
	hours := records[len(records)-1].Timestamp.Sub(records[0].Timestamp).Hours()
	if hours <= 0 {
		return 0
	}
	return math.Round(float64(len(records))/hours*100) / 100
}
