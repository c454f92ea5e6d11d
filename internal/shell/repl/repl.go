package repl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/cqlite/cqlite/internal/shell/config"
	"github.com/cqlite/cqlite/internal/util/sysutil"
	"github.com/cqlite/cqlite/sqlite"
)

type Repl struct {
	conf        config.Config
	conn        *sqlite.Conn
	ctx         context.Context
	stop        context.CancelFunc
	historyPath string
}

func NewRepl(
	ctx context.Context,
	stop context.CancelFunc,
	conf config.Config,
	conn *sqlite.Conn,
) Repl {
	return Repl{
		conf:        conf,
		conn:        conn,
		ctx:         ctx,
		stop:        stop,
		historyPath: filepath.Join(os.TempDir(), ".cqlite_history"),
	}
}

func (r *Repl) Start() error {
	fmt.Println()
	fmt.Printf("Connected to %s\n", r.databaseLabel())
	fmt.Println(`Enter ".help" for usage hints and ".quit" or "CTRL+C" to quit`)
	fmt.Println()

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			input := r.prompt()

			if input == "" {
				continue
			}

			if input == "exit" || input == ".exit" || input == ".quit" {
				r.Shutdown()
				return nil
			}

			if input == "clear" || input == ".clear" {
				sysutil.ClearTerminal()
				continue
			}

			if input == "help" || input == ".help" {
				cmdHelp()
				continue
			}

			if input == ".tables" {
				cmdQuery(r, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
				continue
			}

			if input == ".indexes" {
				cmdQuery(r, `SELECT name, tbl_name FROM sqlite_master WHERE type = 'index' ORDER BY name`)
				continue
			}

			if input == ".schema" {
				cmdQuery(r, `SELECT sql FROM sqlite_master WHERE sql IS NOT NULL`)
				continue
			}

			if name, ok := strings.CutPrefix(input, ".columns "); ok {
				cmdColumns(r, strings.TrimSpace(name))
				continue
			}

			if name, ok := strings.CutPrefix(input, ".count "); ok {
				cmdCount(r, strings.TrimSpace(name))
				continue
			}

			if input == ".stats" {
				cmdStats(r)
				continue
			}

			if strings.HasPrefix(input, ".") {
				fmt.Println("Unknown command, type .help for usage hints")
				continue
			}

			cmdQuery(r, input)
		}
	}
}

// Shutdown stops the REPL.
func (r *Repl) Shutdown() {
	r.stop()
}

func (r *Repl) databaseLabel() string {
	if r.conf.Database == sqlite.MemoryPath {
		return "in-memory database"
	}
	return r.conf.Database
}

// prompt shows the prompt and reads the input from the user.
func (r *Repl) prompt() string {
	label := "cqlite> "
	if !r.conn.AutoCommit() {
		label = "cqlite(tx)> "
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(cmdHelpCompleter)

	if file, err := os.Open(r.historyPath); err == nil {
		_, _ = line.ReadHistory(file)
		file.Close()
	}

	prompt, err := line.Prompt(label)
	if err != nil {
		if err == liner.ErrPromptAborted {
			fmt.Println("CTRL+C pressed, exiting...")
			return ".quit"
		}
		return ""
	}

	line.AppendHistory(prompt)
	if file, err := os.Create(r.historyPath); err == nil {
		_, _ = line.WriteHistory(file)
		file.Close()
	}

	return strings.TrimSpace(prompt)
}
