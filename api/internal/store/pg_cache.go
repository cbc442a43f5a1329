package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = sql.ErrNoRows

const schema = `
create table if not exists matrix_cache (
  cache_key   text primary key,
  engine      text not null,
  model       text not null,
  result_json jsonb not null,
  created_at  timestamptz not null default now()
)`

// PGCache stores generations in Postgres through database/sql.
type PGCache struct {
	DB     *sql.DB
	MaxAge time.Duration
}

func NewPGCache(db *sql.DB, maxAge time.Duration) *PGCache {
	return &PGCache{DB: db, MaxAge: maxAge}
}

// Migrate creates the cache table if it does not exist.
func (r *PGCache) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// Find returns the entry for key. If maxAge > 0 and the row is older,
// ErrNotFound is returned so the caller asks the model again.
func (r *PGCache) Find(ctx context.Context, key string, maxAge time.Duration) (Entry, error) {
	const q = `select result_json, created_at from matrix_cache where cache_key=$1`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, key).Scan(&js, &ts); err != nil {
		return Entry{}, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return Entry{}, ErrNotFound
	}
	var e Entry
	if err := json.Unmarshal(js, &e); err != nil {
		// broken row counts as a miss
		return Entry{}, ErrNotFound
	}
	e.CreatedAt = ts
	return e, nil
}

// Upsert writes the entry and refreshes created_at.
func (r *PGCache) Upsert(ctx context.Context, key string, e Entry) error {
	js, err := json.Marshal(e)
	if err != nil {
		return err
	}
	const q = `
insert into matrix_cache(cache_key, engine, model, result_json)
values ($1,$2,$3,$4)
on conflict (cache_key)
do update set engine=excluded.engine, model=excluded.model, result_json=excluded.result_json, created_at=now()`
	_, err = r.DB.ExecContext(ctx, q, key, e.Engine, e.Model, js)
	return err
}

// PurgeOlderThan deletes rows past age and returns the count.
func (r *PGCache) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	const q = `delete from matrix_cache where created_at < now() - make_interval(secs => $1)`
	res, err := r.DB.ExecContext(ctx, q, age.Seconds())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	e, err := r.Find(ctx, key, r.MaxAge)
	if errors.Is(err, ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *PGCache) Put(ctx context.Context, key string, e Entry) error {
	return r.Upsert(ctx, key, e)
}

func (r *PGCache) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
