package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) IsValid() bool {
	return d == SQLite || d == Postgres
}

// driverName is the database/sql driver registered for the dialect.
func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// dsn adds the connection pragmas sqlite needs: foreign keys are off by
// default and concurrent writers should wait instead of failing.
func (d Dialect) dsn(source string) string {
	if d != SQLite {
		return source
	}
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// openDB opens a pool for the dialect. The directory of a sqlite file is
// created when missing.
func (d Dialect) openDB(source string) (*sql.DB, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	if d == SQLite {
		if err := os.MkdirAll(filepath.Dir(source), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open(d.driverName(), d.dsn(source))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	return db, nil
}

// rebind rewrites ? placeholders into $1, $2, ... for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
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

// ParseDialect maps a configured backend name to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("unsupported dialect %q", s)
	}
	return d, nil
}
