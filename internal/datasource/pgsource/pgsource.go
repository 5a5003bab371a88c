// Package pgsource fetches report data from PostgreSQL functions.
//
// A report function either returns its rows directly or returns a set of
// refcursors, one per result set. Cursors are read inside the calling
// transaction, in the order the function returns them, and named after
// the declared result sets (or after themselves when the function opens
// them under a declared name).
package pgsource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/reports/internal/core"
)

// refcursorOID is the PostgreSQL type oid of refcursor.
const refcursorOID = 1790

// Config holds pool settings applied to every locator.
type Config struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// Connector opens data sources backed by one pool per locator. Locators
// are pgx connection strings.
type Connector struct {
	cfg Config

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// NewConnector returns a connector with no open pools.
func NewConnector(cfg Config) *Connector {
	return &Connector{cfg: cfg, pools: make(map[string]*pgxpool.Pool)}
}

// Connect acquires a connection from the locator's pool, creating the pool
// on first use.
func (c *Connector) Connect(ctx context.Context, locator string) (core.DataSource, error) {
	pool, err := c.pool(ctx, locator)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Source{conn: conn}, nil
}

func (c *Connector) pool(ctx context.Context, locator string) (*pgxpool.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pools[locator]; ok {
		return p, nil
	}

	poolConfig, err := pgxpool.ParseConfig(locator)
	if err != nil {
		// The locator carries credentials; keep it out of the error.
		return nil, errors.New("parse data source locator: invalid connection string")
	}
	if c.cfg.MaxConns > 0 {
		poolConfig.MaxConns = c.cfg.MaxConns
	}
	poolConfig.MinConns = c.cfg.MinConns
	if c.cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = c.cfg.MaxConnLifetime
	}
	if c.cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = c.cfg.MaxConnIdleTime
	}
	if c.cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = c.cfg.ConnectTimeout
	}

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	c.pools[locator] = p
	return p, nil
}

// Ping checks that the locator is reachable.
func (c *Connector) Ping(ctx context.Context, locator string) error {
	pool, err := c.pool(ctx, locator)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close closes every pool.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for locator, p := range c.pools {
		p.Close()
		delete(c.pools, locator)
	}
}

// Source is one acquired connection.
type Source struct {
	conn *pgxpool.Conn
}

// Fetch calls the procedure with the request parameters in order and
// reads every result set it returns.
func (s *Source) Fetch(ctx context.Context, spec core.FetchSpec) (core.ResultSets, error) {
	query, args := CallQuery(spec.Procedure, spec.Params)

	// Refcursors only live until the transaction ends.
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, cursors, err := readCall(ctx, tx, query, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Procedure, err)
	}
	if cursors == nil {
		return core.AssignSets(spec.Sets, []*core.Table{first}), nil
	}

	tables := make([]*core.Table, 0, len(cursors))
	for _, name := range cursors {
		t, err := readTable(ctx, tx, "FETCH ALL FROM "+quoteIdentifier(name))
		if err != nil {
			return nil, fmt.Errorf("%s: cursor %s: %w", spec.Procedure, name, err)
		}
		t.Name = name
		tables = append(tables, t)
	}
	return core.AssignSets(spec.Sets, tables), nil
}

// Close returns the connection to its pool.
func (s *Source) Close() error {
	s.conn.Release()
	return nil
}

// CallQuery builds the function call for procedure using named argument
// notation, one positional placeholder per parameter, in parameter order.
func CallQuery(procedure string, params core.Params) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(quoteProcedure(procedure))
	b.WriteByte('(')

	args := make([]any, 0, params.Len())
	params.Each(func(key string, v any) {
		if len(args) > 0 {
			b.WriteString(", ")
		}
		args = append(args, v)
		fmt.Fprintf(&b, "%s => $%d", quoteIdentifier(key), len(args))
	})
	b.WriteByte(')')
	return b.String(), args
}

// quoteProcedure quotes each dot-separated part of a schema-qualified name.
func quoteProcedure(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func quoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// readCall runs the function call. When it returns refcursors their
// names are returned; otherwise its rows are the only result set.
func readCall(ctx context.Context, tx pgx.Tx, query string, args []any) (*core.Table, []string, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("call: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if len(fields) == 1 && fields[0].DataTypeOID == refcursorOID {
		cursors := []string{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, nil, fmt.Errorf("read cursor name: %w", err)
			}
			cursors = append(cursors, name)
		}
		if err := rows.Err(); err != nil {
			return nil, nil, fmt.Errorf("rows error: %w", err)
		}
		return nil, cursors, nil
	}

	t, err := collect(rows)
	return t, nil, err
}

func readTable(ctx context.Context, tx pgx.Tx, query string) (*core.Table, error) {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) (*core.Table, error) {
	fields := rows.FieldDescriptions()
	t := &core.Table{Columns: make([]string, len(fields))}
	for i, f := range fields {
		t.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = Normalize(v)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return t, nil
}
