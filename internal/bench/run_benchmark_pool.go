package bench

import (
	"fmt"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cqlite/cqlite/internal/bench/benchbar"
	"github.com/cqlite/cqlite/sqlite"
	"github.com/cqlite/cqlite/sqlitepool"
)

// runBenchmarkPool inserts X users through a raw connection pool and then
// reads them back with prepared statements, skipping database/sql.
func runBenchmarkPool(dir string, conf benchmarkPoolConfig) (benchmarkResult, error) {
	dbPath := path.Join(dir, "pool", "bench.db")
	if err := os.MkdirAll(path.Dir(dbPath), 0755); err != nil {
		return benchmarkResult{}, err
	}
	fmt.Println("raw pool db path:", dbPath)

	pool, err := sqlitepool.NewPool(sqlitepool.Config{
		Path:        dbPath,
		MaxConns:    conf.poolSize,
		MaxIdle:     conf.poolSize,
		BusyTimeout: 5 * time.Second,
		Setup: func(conn *sqlite.Conn) error {
			if err := conn.ExecuteBatch("PRAGMA journal_mode = WAL"); err != nil {
				return err
			}
			return conn.ExecuteBatch("PRAGMA synchronous = NORMAL")
		},
	})
	if err != nil {
		return benchmarkResult{}, err
	}
	defer pool.Close()

	err = pool.With(func(conn *sqlite.Conn) error {
		return conn.ExecuteBatch(`CREATE TABLE users (
			id INTEGER PRIMARY KEY NOT NULL,
			created INTEGER NOT NULL,
			email TEXT NOT NULL,
			active INTEGER NOT NULL
		)`)
	})
	if err != nil {
		return benchmarkResult{}, err
	}

	start := time.Now()
	var totalReads, totalWrites uint64

	wg := sync.WaitGroup{}
	errChan := make(chan error, conf.poolSize)
	bar := benchbar.NewBar(
		fmt.Sprintf("Inserting %d users", conf.insertXUsers), conf.insertXUsers,
	)

	perWorker := conf.insertXUsers / conf.poolSize
	for i := 0; i < conf.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := pool.With(func(conn *sqlite.Conn) error {
				stmt, err := conn.Prepare(
					"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
				)
				if err != nil {
					return err
				}
				defer stmt.Finalize()

				for j := 0; j < perWorker; j++ {
					if err := stmt.BindInt64(1, time.Now().Unix()); err != nil {
						return err
					}
					if err := stmt.BindText(2, fmt.Sprintf("%s@example.com", uuid.NewString())); err != nil {
						return err
					}
					if err := stmt.BindInt64(3, 1); err != nil {
						return err
					}
					if _, err := stmt.Step(); err != nil {
						return err
					}
					if err := stmt.Reset(); err != nil {
						return err
					}

					bar.Inc()
					atomic.AddUint64(&totalWrites, 1)
				}
				return nil
			})
			if err != nil {
				errChan <- err
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for e := range errChan {
		if e != nil {
			return benchmarkResult{}, fmt.Errorf("error when inserting: %w", e)
		}
	}
	bar.Finish()

	err = pool.With(func(conn *sqlite.Conn) error {
		stmt, err := conn.Prepare(
			"SELECT id, created, email, active FROM users ORDER BY id",
		)
		if err != nil {
			return err
		}
		defer stmt.Finalize()

		for {
			hasRow, err := stmt.Step()
			if err != nil {
				return err
			}
			if !hasRow {
				return nil
			}
			if _, err := stmt.ColumnText(2); err != nil {
				return err
			}
			atomic.AddUint64(&totalReads, 1)
		}
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when reading: %w", err)
	}

	return benchmarkResult{
		Name:        "Pool",
		Duration:    time.Since(start),
		TotalReads:  totalReads,
		TotalWrites: totalWrites,
	}, nil
}
