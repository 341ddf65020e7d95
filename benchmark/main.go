// Package main provides a performance benchmarking tool for the qmetrics CLI.
// It generates synthetic validation result sets of increasing size, then times
// each query command without a snapshot cache and with a SQLite cache, treating
// the first cached run as cold and averaging the rest as warm. Results are
// written as CSV for performance analysis and documentation.
//
// Prerequisites:
// - qmetrics binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated result sets and cache files (default: a temp dir)
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Datasets    map[string]int // name -> record count
	Order       []string
	Commands    [][]string
}

func main() {
	workDir := ""
	if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	if len(os.Args) == 2 {
		workDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "qmetrics-benchmark-*")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		workDir = dir
	}

	config := BenchmarkConfig{
		WorkDir:     workDir,
		Timeout:     2 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets:    map[string]int{"small": 1_000, "medium": 20_000, "large": 200_000},
		Order:       []string{"small", "medium", "large"},
		Commands: [][]string{
			{"quality"},
			{"trends", "--days", "90"},
			{"patterns", "--scope", "backend"},
		},
	}

	if _, err := exec.LookPath("qmetrics"); err != nil {
		fmt.Printf("Prerequisites check failed: qmetrics binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// generateDataset writes count records spread over 10 projects and the last 90 days.
func generateDataset(dir string, count int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(int64(count)))
	statuses := []string{"success", "success", "success", "warning", "failure"}
	scopes := []string{"universal", "backend", "frontend"}
	now := time.Now().UTC()

	perProject := count / 10
	for p := range 10 {
		records := make([]map[string]any, 0, perProject)
		for i := range perProject {
			records = append(records, map[string]any{
				"id":            fmt.Sprintf("p%d-%d", p, i),
				"project":       fmt.Sprintf("project-%02d", p),
				"timestamp":     now.Add(-time.Duration(rng.Int63n(int64(90 * 24 * time.Hour)))).Format(time.RFC3339),
				"status":        statuses[rng.Intn(len(statuses))],
				"executionTime": 200 + rng.Float64()*5000,
				"testCount":     1 + rng.Intn(50),
				"patterns": []map[string]any{{
					"name":       fmt.Sprintf("pattern-%d", rng.Intn(40)),
					"scope":      scopes[rng.Intn(len(scopes))],
					"confidence": rng.Float64(),
				}},
			})
		}
		data, err := json.Marshal(records)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("project-%02d.json", p)), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

// runBenchmarks executes all benchmark commands across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Order {
		resultsDir := filepath.Join(config.WorkDir, name)
		fmt.Printf("Generating %s dataset (%d records)\n", name, config.Datasets[name])
		if err := generateDataset(resultsDir, config.Datasets[name]); err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\n", name, err)
			continue
		}

		for i, command := range config.Commands {
			cacheDB := filepath.Join(config.WorkDir, fmt.Sprintf("%s-%d-cache.db", name, i))
			results = append(results, runBenchmarkSuite(config, name, resultsDir, cacheDB, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, resultsDir, cacheDB string, command []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", strings.Join(command, " "), dataset)

	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		args := append(append([]string{}, command...), "--results-path", resultsDir)
		cold, times := runBenchmark(config, append(args, cacheArgs...), numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	_ = os.Remove(cacheDB)
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cacheDB}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command[0],
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a qmetrics command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("qmetrics", args...)
		cmd.Env = append(os.Environ(), "QMETRICS_COLOR=no")

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output carries the report footer
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "computed in") && strings.Contains(outputStr, "Results backend")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("qmetrics_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command[0])
		for _, result := range results {
			if result.Command == command[0] {
				fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
