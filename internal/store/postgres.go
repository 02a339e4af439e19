package store

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	u "arkana/internal/utils"
)

// Postgres is a fiber.Storage backed by a single key/value table.
type Postgres struct {
	db *sql.DB
}

func postgresPort(cfg u.PostgresConfig) int {
	if cfg.Port != 0 {
		return cfg.Port
	}
	return 5432
}

// postgresDSN accepts either a full postgres:// URL in Host, passed through
// as is, or discrete fields. Host may be a bare name, host:port, an IPv6
// literal with or without brackets; the port defaults to 5432.
func postgresDSN(cfg u.PostgresConfig) (string, error) {
	if strings.HasPrefix(cfg.Host, "postgres://") || strings.HasPrefix(cfg.Host, "postgresql://") {
		return cfg.Host, nil
	}
	if cfg.Host == "" {
		return "", errors.New("postgres host is empty")
	}
	if cfg.Database == "" {
		return "", errors.New("postgres database is empty")
	}
	if cfg.User == "" {
		return "", errors.New("postgres user is empty")
	}

	dsn := &url.URL{Scheme: "postgres", Host: postgresHostPort(cfg), Path: "/" + cfg.Database}
	if cfg.Password != "" {
		dsn.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		dsn.User = url.User(cfg.User)
	}
	q := dsn.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	dsn.RawQuery = q.Encode()
	return dsn.String(), nil
}

// postgresHostPort appends the configured port unless Host already has one.
func postgresHostPort(cfg u.PostgresConfig) string {
	host := cfg.Host
	port := strconv.Itoa(postgresPort(cfg))
	switch {
	case strings.HasPrefix(host, "["):
		if strings.Contains(host, "]:") {
			return host
		}
		return host + ":" + port
	case strings.Count(host, ":") == 1:
		return host
	default:
		return net.JoinHostPort(host, port)
	}
}

// NewPostgres connects, pings and makes sure the storage table exists.
func NewPostgres(cfg u.PostgresConfig) (*Postgres, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Two documents per browser at most; a handful of connections is plenty.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Postgres{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	ddl1 := `CREATE TABLE IF NOT EXISTS site_storage (
		k TEXT PRIMARY KEY,
		v BYTEA NOT NULL,
		expires_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	ddl2 := `CREATE INDEX IF NOT EXISTS idx_site_storage_expires_at ON site_storage (expires_at);`
	if _, err := s.db.ExecContext(ctx, ddl1); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl2); err != nil {
		return err
	}
	return nil
}

func (s *Postgres) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var val []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM site_storage WHERE k = $1 AND (expires_at IS NULL OR expires_at > now());`, key,
	).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return val, err
}

func (s *Postgres) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var expiresAt sql.NullTime
	if exp > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(exp), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO site_storage (k, v, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, expires_at = EXCLUDED.expires_at, updated_at = now();`,
		key, val, expiresAt)
	return err
}

func (s *Postgres) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM site_storage WHERE k = $1;`, key)
	return err
}

func (s *Postgres) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM site_storage;`)
	return err
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
