package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect captures the differences between supported SQL engines
type Dialect struct {
	Name   string
	Driver string
	schema string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
}

var (
	// SQLite uses modernc.org/sqlite
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS profiles (
			identity          TEXT PRIMARY KEY,
			display_name      TEXT NOT NULL,
			level             INTEGER NOT NULL,
			experience        REAL NOT NULL,
			prestige          INTEGER NOT NULL,
			balance_mirror    REAL NOT NULL,
			reward_multiplier REAL NOT NULL,
			last_seen         INTEGER NOT NULL,
			schema_version    INTEGER NOT NULL
		)`,
	}

	// Postgres uses github.com/lib/pq
	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "postgres",
		numbered: true,
		schema: `CREATE TABLE IF NOT EXISTS profiles (
			identity          UUID PRIMARY KEY,
			display_name      TEXT NOT NULL,
			level             INTEGER NOT NULL,
			experience        DOUBLE PRECISION NOT NULL,
			prestige          INTEGER NOT NULL,
			balance_mirror    DOUBLE PRECISION NOT NULL,
			reward_multiplier DOUBLE PRECISION NOT NULL,
			last_seen         BIGINT NOT NULL,
			schema_version    INTEGER NOT NULL
		)`,
	}
)

// rebind rewrites ? placeholders for dialects that number them
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
