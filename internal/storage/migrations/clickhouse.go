package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	chstore "chartpulse/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the target database if needed and applies
// the embedded schema files. Returns the connection to the target database
// for reuse by the stores.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	if err := ensureDatabase(ctx, dsn, dbName); err != nil {
		return nil, err
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	files, err := sqlFiles(clickhouseFS, "clickhouse")
	if err != nil {
		conn.Close()
		return nil, err
	}
	for _, file := range files {
		if err := applyClickhouseFile(ctx, conn, file); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// ensureDatabase issues CREATE DATABASE over a connection with no database
// selected, since the target may not exist yet.
func ensureDatabase(ctx context.Context, dsn, dbName string) error {
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return fmt.Errorf("connect clickhouse admin: %w", err)
	}
	defer admin.Close()

	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		return fmt.Errorf("create database %s: %w", dbName, err)
	}
	return nil
}

// applyClickhouseFile runs one embedded schema file statement by statement,
// because the driver rejects multiquery Exec.
func applyClickhouseFile(ctx context.Context, conn *chstore.Conn, name string) error {
	data, err := fs.ReadFile(clickhouseFS, "clickhouse/"+name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	sql := string(data)
	if strings.TrimSpace(sql) == "" {
		return nil
	}

	if err := checkSplittable(sql); err != nil {
		return fmt.Errorf("validate migration %s: %w", name, err)
	}
	for _, stmt := range splitStatements(sql) {
		if err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// databaseFromDSN pulls the database name out of the DSN path. The name is
// required because stores qualify nothing and rely on the selected database.
func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		return db, nil
	}
	return "", fmt.Errorf("clickhouse dsn missing database")
}
