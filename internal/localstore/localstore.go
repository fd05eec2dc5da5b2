package localstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"

	"github.com/meltforce/racecountdown/internal/plan"
)

// ErrMiss is returned when no settings are cached for a user.
var ErrMiss = errors.New("no cached settings")

// Cache keeps the last saved settings per user on local disk so they
// survive restarts and remote store outages.
type Cache struct {
	d *diskv.Diskv
}

// Open creates a cache rooted at dir. A leading ~ is expanded.
func Open(dir string) (*Cache, error) {
	base, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding cache dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", base, err)
	}
	return &Cache{d: diskv.New(diskv.Options{
		BasePath:     base,
		Transform:    shardTransform,
		CacheSizeMax: 256 * 1024,
	})}, nil
}

// shardTransform spreads keys over two-character directories.
func shardTransform(key string) []string {
	if len(key) < 2 {
		return []string{}
	}
	return []string{key[:2]}
}

// keyFor turns a login into a filesystem-safe key.
func keyFor(login string) string {
	sum := sha256.Sum256([]byte(login))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached draft for login.
func (c *Cache) Get(login string) (plan.Draft, error) {
	key := keyFor(login)
	if !c.d.Has(key) {
		return plan.Draft{}, ErrMiss
	}
	val, err := c.d.Read(key)
	if err != nil {
		return plan.Draft{}, fmt.Errorf("reading cached settings: %w", err)
	}
	var d plan.Draft
	if err := json.Unmarshal(val, &d); err != nil {
		return plan.Draft{}, fmt.Errorf("decoding cached settings: %w", err)
	}
	return d, nil
}

// Put stores the draft for login, replacing any previous value.
func (c *Cache) Put(login string, d plan.Draft) error {
	val, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := c.d.Write(keyFor(login), val); err != nil {
		return fmt.Errorf("writing cached settings: %w", err)
	}
	return nil
}

