package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrTableNotFound marks reads against a table the store does not have.
	ErrTableNotFound = errors.New("table not found")
	// ErrSchemaMismatch marks tables that lack a required column.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// =====================
// Whole-table reads
// =====================

// ReadTable loads every row of the named table. Column names and declared
// types are preserved; cells hold whatever the driver produced (int64,
// float64, string, []byte, bool, time.Time or nil).
func (db *Database) ReadTable(ctx context.Context, name string) (*Table, error) {
	if db == nil || db.DB == nil {
		return nil, fmt.Errorf("database unavailable")
	}
	table, err := db.readTable(ctx, name)
	if err != nil {
		db.logf("Error retrieving table %q from database: %v", name, err)
		return nil, err
	}
	db.logf("Loaded table %q: %d rows, %d columns", name, table.Len(), len(table.Columns))
	return table, nil
}

func (db *Database) readTable(ctx context.Context, name string) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("read table: empty table name")
	}
	query := fmt.Sprintf("SELECT * FROM %s", quoteIdent(db.Driver, name))

	rows, err := db.DB.QueryContext(ctx, query)
	if err != nil {
		if isMissingTable(err) {
			return nil, fmt.Errorf("read table %q: %w: %w", name, ErrTableNotFound, err)
		}
		return nil, fmt.Errorf("read table %q: %w", name, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read table %q columns: %w", name, err)
	}
	columns := make([]Column, len(names))
	for i, n := range names {
		columns[i] = Column{Name: n}
	}
	// Some drivers cannot describe their columns; names alone are enough.
	if types, err := rows.ColumnTypes(); err == nil && len(types) == len(columns) {
		for i, ct := range types {
			columns[i].DeclType = strings.ToUpper(strings.TrimSpace(ct.DatabaseTypeName()))
		}
	}

	table := &Table{Name: name, Columns: columns}
	for rows.Next() {
		cells := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan table %q row %d: %w", name, len(table.Rows), err)
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table %q: %w", name, err)
	}
	return table, nil
}

// quoteIdent quotes a possibly schema-qualified table name for driver.
// Genji quotes identifiers with backticks; every other engine accepts the
// ANSI double-quoted form pgx produces.
func quoteIdent(driver, name string) string {
	parts := strings.Split(name, ".")
	if driver == "genji" {
		for i, p := range parts {
			parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
		}
		return strings.Join(parts, ".")
	}
	return pgx.Identifier(parts).Sanitize()
}
