package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options locates the MySQL database and sizes the connection pool.
// Zero pool values fall back to 25 connections recycled every 30 minutes.
type Options struct {
	User            string
	Pass            string
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders o through the driver's own config, so credentials holding
// '@', ':' or '/' survive.  Times are parsed into time.Time in UTC and the
// connection charset is utf8mb4.
func (o Options) DSN() string {
	cfg := mysql.NewConfig()
	// Charset only sets fields; it cannot fail.
	_ = cfg.Apply(mysql.Charset("utf8mb4", ""))
	cfg.User = o.User
	cfg.Passwd = o.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, o.Port)
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection within five seconds
// or ctx's deadline, whichever is sooner.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	maxConns := o.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 25
	}
	lifetime := o.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(lifetime)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
