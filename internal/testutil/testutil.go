//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provisions throwaway PostgreSQL databases holding the
// retail relations for integration tests.
package testutil

import (
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// DefaultTestConnString is the admin connection used to create test
	// databases. Override with PGEDGE_TEST_CONN.
	DefaultTestConnString = "postgres://postgres@localhost:5432/postgres"

	// TestDBPrefix prefixes every database created here.
	TestDBPrefix = "revreport_test_"
)

// RetailDB is a database created for one test.
type RetailDB struct {
	Name       string
	ConnString string
	Pool       *pgxpool.Pool
}

// adminConfig returns the admin connection config, or nil when the server
// cannot be reached.
func adminConfig() *pgxpool.Config {
	config, err := pgxpool.ParseConfig(cmp.Or(os.Getenv("PGEDGE_TEST_CONN"), DefaultTestConnString))
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config.Copy())
	if err != nil {
		return nil
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil
	}
	return config
}

// NewRetailDB creates an empty database holding the retail relations and
// connects to it. The test is skipped when PostgreSQL is unavailable. The
// database is dropped when the test passes and kept for inspection when
// it fails.
func NewRetailDB(t *testing.T, name string) *RetailDB {
	t.Helper()

	admin := adminConfig()
	if admin == nil {
		t.Skip("PostgreSQL not available, skipping integration test")
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate database name: %v", err)
	}
	rdb := &RetailDB{Name: TestDBPrefix + name + "_" + hex.EncodeToString(suffix)}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adminExec(t, ctx, admin, "CREATE DATABASE "+pgx.Identifier{rdb.Name}.Sanitize())
	t.Cleanup(func() { rdb.drop(t, admin) })

	config := admin.Copy()
	config.ConnConfig.Database = rdb.Name
	rdb.ConnString = connString(config, rdb.Name)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", rdb.Name, err)
	}
	rdb.Pool = pool

	if _, err := pool.Exec(ctx, RetailSchemaSQL); err != nil {
		t.Fatalf("Failed to create retail schema: %v", err)
	}
	return rdb
}

func (rdb *RetailDB) drop(t *testing.T, admin *pgxpool.Config) {
	if rdb.Pool != nil {
		rdb.Pool.Close()
	}
	if t.Failed() {
		t.Logf("Keeping database %s for diagnostics", rdb.Name)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, admin.Copy())
	if err != nil {
		t.Logf("Warning: failed to connect to drop %s: %v", rdb.Name, err)
		return
	}
	defer pool.Close()

	_, _ = pool.Exec(ctx, `
        SELECT pg_terminate_backend(pid)
        FROM pg_stat_activity
        WHERE datname = $1 AND pid <> pg_backend_pid()`, rdb.Name)
	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{rdb.Name}.Sanitize()); err != nil {
		t.Logf("Warning: failed to drop %s: %v", rdb.Name, err)
	}
}

func adminExec(t *testing.T, ctx context.Context, admin *pgxpool.Config, sql string) {
	t.Helper()

	pool, err := pgxpool.NewWithConfig(ctx, admin.Copy())
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, sql); err != nil {
		t.Fatalf("Failed to run %q: %v", sql, err)
	}
}

// connString renders config as a URL pointing at database. ConnString()
// on a parsed config still names the original database.
func connString(config *pgxpool.Config, database string) string {
	cc := config.ConnConfig
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cc.Host, strconv.Itoa(int(cc.Port))),
		Path:   "/" + database,
	}
	if cc.Password != "" {
		u.User = url.UserPassword(cc.User, cc.Password)
	} else {
		u.User = url.User(cc.User)
	}
	return u.String()
}
