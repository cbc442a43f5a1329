package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// ResolveDSN prefers DATABASE_URL and otherwise builds a DSN from
// POSTGRES_* / PG* variables. Empty when neither POSTGRES_PASSWORD nor
// DATABASE_URL is set.
func ResolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	if pass == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "testcasecraft")
	host := getenvDefault("PGHOST", "db")
	port := getenvDefault("PGPORT", "5432")
	db := getenvDefault("POSTGRES_DB", "testcasecraft")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Open connects with the pgx stdlib driver, tunes the pool and pings.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// SafeDSNSummary renders the DSN without the password.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
