// Package sqlsource fetches report data through database/sql.
//
// It serves drivers that return several result sets from one call, read
// with Rows.NextResultSet, such as SQL Server stored procedures. The pgx
// driver is registered for PostgreSQL functions that return a single
// table; functions returning refcursors need pgsource.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/datasource/pgsource"
)

// Style selects how a procedure call is written.
type Style int

const (
	// StyleExec writes EXEC [proc] @Name = @Name with named arguments.
	StyleExec Style = iota

	// StyleCall writes SELECT * FROM "proc"("Name" => $1) with ordinal
	// arguments.
	StyleCall
)

// StyleFor returns the call style of a database/sql driver name.
func StyleFor(driver string) Style {
	switch driver {
	case "pgx", "postgres":
		return StyleCall
	}
	return StyleExec
}

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options holds database/sql pool settings applied to every locator.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Connector opens one *sql.DB per locator. Locators are driver DSNs.
type Connector struct {
	driver string
	style  Style
	opts   Options
	open   func(driver, dsn string) (*sql.DB, error)

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewConnector returns a connector for the named driver.
func NewConnector(driver string, opts Options) *Connector {
	return &Connector{
		driver: driver,
		style:  StyleFor(driver),
		opts:   opts,
		open:   sql.Open,
		dbs:    make(map[string]*sql.DB),
	}
}

// NewConnectorWithDB returns a connector that serves every locator from
// db. Used with drivers opened elsewhere.
func NewConnectorWithDB(db *sql.DB, style Style) *Connector {
	c := &Connector{style: style, dbs: make(map[string]*sql.DB)}
	c.open = func(string, string) (*sql.DB, error) { return db, nil }
	return c
}

// Connect takes a dedicated connection from the locator's pool.
func (c *Connector) Connect(ctx context.Context, locator string) (core.DataSource, error) {
	db, err := c.db(locator)
	if err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Source{conn: conn, style: c.style}, nil
}

func (c *Connector) db(locator string) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if db, ok := c.dbs[locator]; ok {
		return db, nil
	}
	db, err := c.open(c.driver, locator)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.driver, err)
	}
	if c.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.opts.MaxOpenConns)
	}
	if c.opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.opts.MaxIdleConns)
	}
	if c.opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.opts.ConnMaxLifetime)
	}
	if c.opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(c.opts.ConnMaxIdleTime)
	}
	c.dbs[locator] = db
	return db, nil
}

// Close closes every pool.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []string
	for locator, db := range c.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		delete(c.dbs, locator)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close data sources: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Source is one dedicated connection.
type Source struct {
	conn  *sql.Conn
	style Style
}

// Fetch calls the procedure and reads every result set it returns.
func (s *Source) Fetch(ctx context.Context, spec core.FetchSpec) (core.ResultSets, error) {
	query, args, err := Statement(s.style, spec.Procedure, spec.Params)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Procedure, err)
	}
	defer rows.Close()

	var tables []*core.Table
	for {
		t, err := collect(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: result set %d: %w", spec.Procedure, len(tables)+1, err)
		}
		tables = append(tables, t)
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Procedure, err)
	}
	return core.AssignSets(spec.Sets, tables), nil
}

// Close returns the connection to its pool.
func (s *Source) Close() error {
	return s.conn.Close()
}

// Statement builds the procedure call for style.
func Statement(style Style, procedure string, params core.Params) (string, []any, error) {
	if style == StyleCall {
		query, args := pgsource.CallQuery(procedure, params)
		return query, args, nil
	}

	var b strings.Builder
	b.WriteString("EXEC ")
	b.WriteString(bracketProcedure(procedure))

	args := make([]any, 0, params.Len())
	var bad []string
	params.Each(func(key string, v any) {
		if !paramName.MatchString(key) {
			bad = append(bad, key)
			return
		}
		if len(args) > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, " @%s = @%s", key, key)
		args = append(args, sql.Named(key, v))
	})
	if len(bad) > 0 {
		return "", nil, core.Errorf(core.InvalidInput, "invalid parameter names: %s", strings.Join(bad, ", "))
	}
	return b.String(), args, nil
}

func bracketProcedure(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}

func collect(rows *sql.Rows) (*core.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	t := &core.Table{Columns: cols}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, v := range values {
			values[i] = pgsource.Normalize(v)
		}
		t.Rows = append(t.Rows, values)
	}
	return t, rows.Err()
}
