// Package extdb introspects an optional external database. It is used
// only as a fallback input for table specifications, when the backend
// analysis engine has no schema data for the requested table.
package extdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/docforge/docforge/internal/backend"
)

// ErrNoSchema reports that the external database knows nothing about
// the requested table.
var ErrNoSchema = errors.New("extdb: table not found")

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Identifiers cannot be bound as parameters, so table names are
// validated before being spliced into the pragma.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Inspector reads schema metadata from the configured database.
type Inspector struct {
	driver string
	dsn    string
}

// New creates an inspector. Only the sqlite driver is supported.
func New(driver, dsn string) (*Inspector, error) {
	if driver != "sqlite" {
		return nil, fmt.Errorf("extdb: unsupported driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("extdb: empty DSN")
	}
	return &Inspector{driver: driver, dsn: dsn}, nil
}

// TableColumns returns the column layout of one table. The connection
// is opened per call: fallback lookups are rare and holding a handle
// to a file owned by another system invites lock contention.
func (i *Inspector) TableColumns(ctx context.Context, table string) ([]backend.Column, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("extdb: invalid table name %q", table)
	}

	db, err := openDB(i.driver, i.dsn)
	if err != nil {
		return nil, fmt.Errorf("extdb: opening %s: %w", i.driver, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("extdb: reading schema for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []backend.Column
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("extdb: scanning column row: %w", err)
		}
		col := backend.Column{
			Name:     name,
			Type:     typ,
			Nullable: notNull == 0,
		}
		if pk == 1 {
			col.Comment = "primary key"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("extdb: iterating schema rows: %w", err)
	}

	if len(cols) == 0 {
		return nil, ErrNoSchema
	}
	return cols, nil
}
