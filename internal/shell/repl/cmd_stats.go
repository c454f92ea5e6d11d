package repl

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cqlite/cqlite/internal/shell/styled"
	"github.com/cqlite/cqlite/internal/util/numutil"
)

// cmdStats shows size and usage information about the open database.
func cmdStats(r *Repl) {
	pageCount, err := r.conn.Pragma("page_count")
	if err != nil {
		renderError(err)
		return
	}
	pageSize, err := r.conn.Pragma("page_size")
	if err != nil {
		renderError(err)
		return
	}
	freePages, err := r.conn.Pragma("freelist_count")
	if err != nil {
		renderError(err)
		return
	}
	journalMode, err := r.conn.Pragma("journal_mode")
	if err != nil {
		renderError(err)
		return
	}

	pages, _ := pageCount.Int64()
	size, _ := pageSize.Int64()
	free, _ := freePages.Int64()
	mode, _ := journalMode.TextValue()

	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Stat", "Value"})
	tw.AppendRow(table.Row{"Database size", fmt.Sprintf("%s bytes", numutil.IntWithCommas(int(pages*size)))})
	tw.AppendRow(table.Row{"Page size", fmt.Sprintf("%s bytes", numutil.IntWithCommas(int(size)))})
	tw.AppendRow(table.Row{"Pages", numutil.IntWithCommas(int(pages))})
	tw.AppendRow(table.Row{"Free pages", numutil.IntWithCommas(int(free))})
	tw.AppendRow(table.Row{"Journal mode", mode})
	tw.AppendRow(table.Row{"Rows changed this session", numutil.IntWithCommas(int(r.conn.TotalChanges()))})

	fmt.Println(tw.Render())
	fmt.Println()
}
