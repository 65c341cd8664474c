package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"evalup/pkg/core/ingest"
)

// DefaultCacheTTL is how long a registry lookup stays fresh. Accounts are
// published once a year.
const DefaultCacheTTL = 7 * 24 * time.Hour

// RegistryCache keeps registry lookups by SIREN. Postgres is used when a pool
// is set; otherwise entries are JSON files under dir.
type RegistryCache struct {
	pool Pool
	dir  string
	now  func() time.Time
}

// NewRegistryCache creates a cache. With a nil pool and an empty dir every
// lookup misses and Put is a no-op.
func NewRegistryCache(pool Pool, dir string) (*RegistryCache, error) {
	if pool == nil && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "store: create cache dir %s", dir)
		}
	}
	return &RegistryCache{pool: pool, dir: dir, now: time.Now}, nil
}

type cacheEntry struct {
	Company   *ingest.Company `json:"company"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Get returns the cached company and when it was fetched. ok is false on a miss.
func (c *RegistryCache) Get(ctx context.Context, siren string) (company *ingest.Company, fetchedAt time.Time, ok bool, err error) {
	// 1. DB
	if c.pool != nil {
		var data []byte
		err := c.pool.QueryRow(ctx, `SELECT data, fetched_at FROM registry_cache WHERE siren = $1`, siren).
			Scan(&data, &fetchedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, time.Time{}, false, nil
			}
			return nil, time.Time{}, false, eris.Wrap(err, "store: read registry cache")
		}
		var co ingest.Company
		if err := json.Unmarshal(data, &co); err != nil {
			return nil, time.Time{}, false, eris.Wrap(err, "store: unmarshal cached company")
		}
		return &co, fetchedAt, true, nil
	}

	// 2. File system
	if c.dir == "" {
		return nil, time.Time{}, false, nil
	}
	raw, err := os.ReadFile(c.path(siren))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, eris.Wrap(err, "store: read cache file")
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Company == nil {
		// A corrupt file is treated as a miss and rewritten on the next Put.
		return nil, time.Time{}, false, nil
	}
	return entry.Company, entry.FetchedAt, true, nil
}

// Put stores company, replacing any previous entry for its SIREN.
func (c *RegistryCache) Put(ctx context.Context, company *ingest.Company) error {
	if company == nil || company.SIREN == "" {
		return eris.New("store: company without siren")
	}
	fetchedAt := c.now().UTC()

	if c.pool != nil {
		data, err := json.Marshal(company)
		if err != nil {
			return eris.Wrap(err, "store: marshal company")
		}
		query := `
			INSERT INTO registry_cache (siren, data, fetched_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (siren)
			DO UPDATE SET data = EXCLUDED.data, fetched_at = EXCLUDED.fetched_at`
		if _, err := c.pool.Exec(ctx, query, company.SIREN, data, fetchedAt); err != nil {
			return eris.Wrap(err, "store: write registry cache")
		}
		return nil
	}

	if c.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(cacheEntry{Company: company, FetchedAt: fetchedAt}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal cache entry")
	}
	if err := os.WriteFile(c.path(company.SIREN), data, 0o644); err != nil {
		return eris.Wrap(err, "store: write cache file")
	}
	return nil
}

func (c *RegistryCache) path(siren string) string {
	return filepath.Join(c.dir, siren+".json")
}

// CachedRegistry serves registry lookups from a RegistryCache and falls back
// to the wrapped client when the entry is missing or older than TTL.
type CachedRegistry struct {
	Client ingest.RegistryClient
	Cache  *RegistryCache
	TTL    time.Duration
	Logger *zap.Logger
}

var _ ingest.RegistryClient = (*CachedRegistry)(nil)

// FetchFinances implements ingest.RegistryClient. Cache failures are logged
// and never fail the lookup.
func (r *CachedRegistry) FetchFinances(ctx context.Context, siren string) (*ingest.Company, error) {
	siren, err := ingest.ValidateSIREN(siren)
	if err != nil {
		return nil, err
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	if r.Cache != nil {
		company, fetchedAt, ok, err := r.Cache.Get(ctx, siren)
		switch {
		case err != nil:
			log.Warn("registry cache read failed", zap.String("siren", siren), zap.Error(err))
		case ok && r.Cache.now().Sub(fetchedAt) < ttl:
			log.Debug("registry cache hit", zap.String("siren", siren))
			return company, nil
		}
	}

	company, err := r.Client.FetchFinances(ctx, siren)
	if err != nil {
		return nil, err
	}
	if r.Cache != nil {
		if err := r.Cache.Put(ctx, company); err != nil {
			log.Warn("registry cache write failed", zap.String("siren", siren), zap.Error(err))
		}
	}
	return company, nil
}
