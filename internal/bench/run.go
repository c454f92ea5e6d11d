// Package bench implements the cqlitebench harness. It runs the same
// workloads against mattn/go-sqlite3 and the cqlite driver through
// database/sql, plus a raw connection-pool workload that skips
// database/sql entirely.
package bench

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cqlite/cqlite/internal/log"
	"github.com/cqlite/cqlite/internal/version"
)

// benchmarkResult stores the outcome of a benchmark.
type benchmarkResult struct {
	Name        string
	Duration    time.Duration
	TotalReads  uint64
	TotalWrites uint64
}

// Run executes benchmarks for both drivers and the raw pool, and prints
// the results.
func Run(ctx context.Context) error {
	fmt.Println(version.BenchVersion())
	logger := log.NewLogger(os.Stderr)

	tmpDir, err := os.MkdirTemp("", "cqlitebench_*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	mattnDB, err := createMattnDB(tmpDir)
	if err != nil {
		return fmt.Errorf("error opening mattn/go-sqlite3 db: %w", err)
	}
	defer mattnDB.Close()

	cqliteDB, err := createCqliteDB(tmpDir)
	if err != nil {
		return fmt.Errorf("error opening cqlite db: %w", err)
	}
	defer cqliteDB.Close()

	fmt.Println("\n--- Benchmarks for mattn/go-sqlite3 ---")
	mattnResults, err := runBenchmark(mattnDB, getMattnConfig())
	if err != nil {
		return fmt.Errorf("error benchmarking mattn/go-sqlite3: %w", err)
	}
	printResults(mattnResults)
	logResults(logger, "mattn/go-sqlite3", mattnResults)

	fmt.Println("\n--- Benchmarks for cqlite (database/sql) ---")
	cqliteResults, err := runBenchmark(cqliteDB, getCqliteConfig())
	if err != nil {
		return fmt.Errorf("error benchmarking cqlite: %w", err)
	}
	printResults(cqliteResults)
	logResults(logger, "cqlite", cqliteResults)

	fmt.Println("\n--- Benchmarks for cqlite (raw pool) ---")
	poolResult, err := runBenchmarkPool(tmpDir, getPoolConfig())
	if err != nil {
		return fmt.Errorf("error benchmarking raw pool: %w", err)
	}
	printResults([]benchmarkResult{poolResult})
	logResults(logger, "cqlite-pool", []benchmarkResult{poolResult})

	return nil
}

// logResults emits each result as a JSON line so runs can be collected
// and compared without scraping the rendered tables.
func logResults(logger log.Logger, driver string, results []benchmarkResult) {
	for _, r := range results {
		logger.InfoNs("bench", "benchmark finished", log.KV{
			"driver":   driver,
			"name":     r.Name,
			"reads":    r.TotalReads,
			"writes":   r.TotalWrites,
			"duration": r.Duration.String(),
		})
	}
}

func printResults(results []benchmarkResult) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.AppendHeader(table.Row{"Name", "Reads", "Writes", "Duration"})

	for _, r := range results {
		tw.AppendRow(table.Row{r.Name, r.TotalReads, r.TotalWrites, r.Duration})
	}

	fmt.Println(tw.Render())
}

// runBenchmark executes all database/sql benchmarks, and returns results.
//
// It recreates the schema before each benchmark.
func runBenchmark(db *sql.DB, cfg benchmarksConfig) ([]benchmarkResult, error) {
	benchs := []func(*sql.DB, benchmarksConfig) (benchmarkResult, error){
		runBenchmarkSimple,
		runBenchmarkMany,
		runBenchmarkLarge,
	}

	var results []benchmarkResult

	for _, bench := range benchs {
		if err := recreateSchema(db); err != nil {
			return nil, err
		}

		res, err := bench(db, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}
