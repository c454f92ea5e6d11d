package repl

import (
	"fmt"
	"strings"
)

// cmdColumns lists the columns of a table. The name is bound as a
// parameter of the pragma table-valued function, so it needs no quoting.
func cmdColumns(r *Repl, name string) {
	if name == "" {
		fmt.Println("Usage: .columns [table_name]")
		return
	}

	stmt, err := r.conn.Prepare(
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`,
	)
	if err != nil {
		renderError(err)
		return
	}
	defer stmt.Finalize()

	if err := stmt.BindText(1, name); err != nil {
		renderError(err)
		return
	}
	if err := runStatement(r, stmt); err != nil {
		renderError(err)
	}
}

// cmdCount counts the rows of a table. Identifiers cannot be bound as
// parameters, so the name is quoted instead.
func cmdCount(r *Repl, name string) {
	if name == "" {
		fmt.Println("Usage: .count [table_name]")
		return
	}
	cmdQuery(r, fmt.Sprintf(`SELECT COUNT(*) AS count FROM %s`, quoteIdent(name)))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
