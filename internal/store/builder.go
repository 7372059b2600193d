package store

import (
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// builder returns an ent SQL builder for the dialect behind q. Statements
// it renders already carry the dialect's placeholders, so they are passed
// to sqlx without Rebind.
func builder(q sqlx.ExtContext) *entsql.DialectBuilder {
	if q.DriverName() == "postgres" {
		return entsql.Dialect(dialect.Postgres)
	}
	return entsql.Dialect(dialect.SQLite)
}

// columnNames splits a column list constant for use with the builder.
func columnNames(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
