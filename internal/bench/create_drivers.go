package bench

import (
	"database/sql"
	"fmt"
	"os"
	"path"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cqlite/cqlite/sqlitedrv"
)

func createMattnDB(dir string) (*sql.DB, error) {
	dbPath := path.Join(dir, "mattn", "bench.db")

	if err := os.MkdirAll(path.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	fmt.Println("mattn/go-sqlite3 db path:", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func createCqliteDB(dir string) (*sql.DB, error) {
	dbPath := path.Join(dir, "cqlite", "bench.db")

	if err := os.MkdirAll(path.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	fmt.Println("cqlite db path:", dbPath)

	db := sql.OpenDB(sqlitedrv.NewConnector(
		dbPath,
		sqlitedrv.WithPostConnectQueries([]string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		}),
	))

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
