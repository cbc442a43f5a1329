package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry is a cached successful generation.
type Entry struct {
	Markdown  string    `json:"markdown"`
	Engine    string    `json:"engine"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache keeps generations by input key. Get returns ok=false for missing
// and expired entries.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
}

// Key hashes everything that influences the model output.
func Key(docText, optionsKey, engine, model string) string {
	h := sha256.New()
	for _, part := range []string{docText, optionsKey, engine, model} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Nop never hits. Used when caching is disabled with CACHE_TTL=0.
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Nop) Put(context.Context, string, Entry) error         { return nil }
