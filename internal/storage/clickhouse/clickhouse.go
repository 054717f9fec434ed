package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Conn wraps driver.Conn so the journal store and migrations share one
// construction path.
type Conn struct {
	driver.Conn
}

// NewConn opens a connection to the database named in the DSN.
func NewConn(ctx context.Context, dsn string) (*Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	return open(ctx, opts)
}

// NewConnWithDatabase opens a connection with the DSN's database replaced.
// An empty name selects no database at all, which migration code relies on
// to issue CREATE DATABASE before the target exists.
func NewConnWithDatabase(ctx context.Context, dsn, database string) (*Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	opts.Auth.Database = database
	return open(ctx, opts)
}

func open(ctx context.Context, opts *clickhouse.Options) (*Conn, error) {
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Conn{Conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.Conn.Close()
}
