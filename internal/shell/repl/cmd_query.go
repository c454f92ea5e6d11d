package repl

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cqlite/cqlite/internal/shell/styled"
	"github.com/cqlite/cqlite/sqlite"
)

// cmdQuery runs every statement in input against the open connection and
// renders each result as its own table.
func cmdQuery(r *Repl, input string) {
	remaining := input
	for remaining != "" {
		stmt, err := r.conn.Prepare(remaining)
		if err != nil {
			renderError(err)
			return
		}
		if stmt == nil {
			return
		}
		remaining = stmt.Tail

		if err := runStatement(r, stmt); err != nil {
			_ = stmt.Finalize()
			renderError(err)
			return
		}
		if err := stmt.Finalize(); err != nil {
			renderError(err)
			return
		}
	}
}

func runStatement(r *Repl, stmt *sqlite.Stmt) error {
	start := time.Now()

	if stmt.ColumnCount() == 0 {
		for {
			hasRow, err := stmt.Step()
			if err != nil {
				return err
			}
			if !hasRow {
				break
			}
		}

		tw := styled.NewTableWriter()
		tw.AppendHeader(table.Row{"-", "Rows Affected", "Last Insert ID"})
		tw.AppendRow(table.Row{"OK", r.conn.Changes(), r.conn.LastInsertRowID()})
		fmt.Println(tw.Render())
		styled.DimmedColor().Printf("Took %s\n\n", time.Since(start))
		return nil
	}

	tw := styled.NewTableWriter()
	header := table.Row{}
	for i := 0; i < stmt.ColumnCount(); i++ {
		name, err := stmt.ColumnName(i)
		if err != nil {
			return err
		}
		header = append(header, name)
	}
	tw.AppendHeader(header)

	rowCount := 0
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return err
		}
		if !hasRow {
			break
		}

		row := table.Row{}
		for i := 0; i < stmt.ColumnCount(); i++ {
			value, err := stmt.Column(i)
			if err != nil {
				return err
			}
			row = append(row, renderValue(value))
		}
		tw.AppendRow(row)
		rowCount++
	}

	fmt.Println(tw.Render())
	styled.DimmedColor().Printf("%d row(s) in %s\n\n", rowCount, time.Since(start))
	return nil
}

// renderValue formats a column value for display. NULL and blobs get a
// readable placeholder instead of raw bytes.
func renderValue(value sqlite.Value) any {
	switch value.Type() {
	case sqlite.TypeNull:
		return "NULL"
	case sqlite.TypeBlob:
		b, err := value.BlobValue()
		if err != nil {
			return "BLOB"
		}
		return fmt.Sprintf("BLOB(%d bytes)", len(b))
	default:
		return value.Any()
	}
}

func renderError(err error) {
	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Error"})
	tw.AppendRow(table.Row{err.Error()})
	fmt.Println(tw.Render())
}
