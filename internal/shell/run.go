// Package shell implements the interactive cqlite shell.
package shell

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cqlite/cqlite/internal/shell/config"
	"github.com/cqlite/cqlite/internal/shell/repl"
	"github.com/cqlite/cqlite/internal/version"
	"github.com/cqlite/cqlite/sqlite"
)

// Run runs the cqlite shell.
func Run(ctx context.Context) error {
	conf := config.MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(version.ShellVersion())

	flags := []sqlite.OpenFlags{}
	if conf.ReadOnly {
		flags = append(flags, sqlite.OpenReadOnly)
	}

	conn, err := sqlite.Open(conf.Database, flags...)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", conf.Database, err)
	}
	defer func() {
		_ = conn.Close()
	}()
	if conf.BusyTimeout > 0 {
		conn.BusyTimeout(conf.BusyTimeout)
	}

	rp := repl.NewRepl(ctx, stop, conf, conn)
	defer rp.Shutdown()
	go func() {
		if err := rp.Start(); err != nil {
			fmt.Println(err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Printf("\nGoodbye!\n\n")
	return nil
}
