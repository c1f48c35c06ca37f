// Package migrations contains dialect-aware Go database migrations. Column
// types differ per driver, so none of them can be a single SQL file.
package migrations

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect for Go migrations.
// Must be called before goose.Up. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}

// dialectDDL picks the statement for the active dialect, falling back to the
// sqlite3 entry.
func dialectDDL(byDialect map[string]string) string {
	if ddl, ok := byDialect[dialect]; ok {
		return ddl
	}
	return byDialect["sqlite3"]
}
