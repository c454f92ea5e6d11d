package config

import (
	"fmt"
	"log"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/cqlite/cqlite/internal/version"
)

// Config represents the configuration for the cqlite shell.
type Config struct {
	Database    string        `arg:"positional" help:"Path or URI of the SQLite database to open (defaults to a private in-memory database)" default:":memory:"`
	ReadOnly    bool          `arg:"--read-only,env:CQLITE_READ_ONLY" help:"Open the database in read-only mode"`
	BusyTimeout time.Duration `arg:"--busy-timeout,env:CQLITE_BUSY_TIMEOUT" help:"How long to wait for a locked database before failing" default:"5s"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.ShellVersion())
}

// MustParse parses and validates the configuration from the command
// line arguments. It returns a Config struct or exits the program
// with an error.
func MustParse(args []string) Config {
	cfg := Config{}

	parser, err := arg.NewParser(
		arg.Config{},
		&cfg,
	)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	if cfg.BusyTimeout < 0 {
		log.Fatal("busy timeout cannot be negative")
	}

	return cfg
}
