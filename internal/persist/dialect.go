package persist

import (
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/zeusync/simstore/internal/config"
)

type dialect struct {
	driver string
	dir    string
	goose  goose.Dialect
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var dialects = map[string]dialect{
	config.DriverSQLite:   {driver: "sqlite", dir: "sqlite", goose: goose.DialectSQLite3},
	config.DriverPostgres: {driver: "pgx", dir: "postgres", goose: goose.DialectPostgres, numbered: true},
}

// rebind rewrites ? placeholders for the dialect.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
