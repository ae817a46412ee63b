// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database owns the PostgreSQL pool, the embedded goose migrations
// and the startup seed for the relational side of alcoholdb.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

//go:embed migrations
var embedMigrations embed.FS

// Pool sizes the connection pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool suits a single API instance in front of one Postgres.
func DefaultPool() Pool {
	return Pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 30 * time.Minute}
}

// Connect opens the pool, pings it within ctx and exports its stats as
// alcoholdb_db_* metrics.
func Connect(ctx context.Context, dsn string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	if pool.MaxOpen > 0 {
		db.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxIdle > 0 {
		db.SetMaxIdleConns(pool.MaxIdle)
	}
	if pool.MaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.MaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	registerStats(db)

	slog.Info("database connected", "max_open", pool.MaxOpen)
	return db, nil
}

// registerStats exposes pool statistics. A second pool in the same process
// (tests) keeps the first registration.
func registerStats(db *sql.DB) {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, "alcoholdb"))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		slog.Warn("db stats collector not registered", "error", err)
	}
}

// Migrate applies pending migrations and logs the resulting schema version.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	slog.Info("database migrations applied", "version", version)
	return nil
}
