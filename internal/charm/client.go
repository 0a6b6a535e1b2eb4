// ABOUTME: Charm KV client wrapper for cloud-synced playground storage
// ABOUTME: SSH-key authenticated, syncs after writes when auto sync is on
package charm

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// KeyPrefix namespaces every key the playground writes
const KeyPrefix = "playground:"

// ErrClosed is returned by operations on a client after Close
var ErrClosed = errors.New("charm client is closed")

// Config selects the charm server and local database
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// Validate checks the fields charm needs to open a database
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("charm config is required")
	}
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("charm host is required")
	}
	if strings.TrimSpace(c.DBName) == "" || strings.ContainsAny(c.DBName, `/\`) {
		return fmt.Errorf("invalid charm database name %q", c.DBName)
	}
	return nil
}

var (
	shared   *Client
	sharedMu sync.Mutex
)

// Client is a KV store backed by a charm database. It satisfies storage.KV.
type Client struct {
	cfg Config

	mu sync.Mutex
	db *kv.KV
}

// GetClient returns the process-wide client, opening it with cfg on first use
func GetClient(cfg *Config) (*Client, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil && !shared.closed() {
		return shared, nil
	}
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	shared = c
	return c, nil
}

// ResetGlobalClient closes and forgets the process-wide client
func ResetGlobalClient() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		_ = shared.Close()
	}
	shared = nil
}

// NewClient opens the charm database named by cfg, pulling remote changes first
// when auto sync is on.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// charm reads the host from the environment when opening KV
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv %s: %w", cfg.DBName, err)
	}
	if cfg.AutoSync {
		_ = db.Sync()
	}
	return &Client{cfg: *cfg, db: db}, nil
}

// Config returns the configuration the client was opened with
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db == nil
}

// Close closes the database; later calls are no-ops
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// ID returns the charm user ID of the local key
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Get returns the value for key; a missing key yields nil, nil
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrClosed
	}

	data, err := c.db.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Set writes key and pushes the change when auto sync is on
func (c *Client) Set(key string, value []byte) error {
	return c.write("set", key, func(db *kv.KV) error {
		return db.Set([]byte(key), value)
	})
}

// Delete removes key and pushes the change when auto sync is on
func (c *Client) Delete(key string) error {
	return c.write("delete", key, func(db *kv.KV) error {
		return db.Delete([]byte(key))
	})
}

func (c *Client) write(op, key string, fn func(*kv.KV) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrClosed
	}
	if err := fn(c.db); err != nil {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	if c.cfg.AutoSync {
		_ = c.db.Sync()
	}
	return nil
}

// ListKeys returns the sorted keys starting with prefix
func (c *Client) ListKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrClosed
	}

	keys, err := c.db.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return filterKeys(keys, prefix), nil
}

func filterKeys(keys [][]byte, prefix string) []string {
	var out []string
	for _, key := range keys {
		if k := string(key); strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Sync pulls and pushes changes with the charm server now
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrClosed
	}
	return c.db.Sync()
}

// Reset deletes the local database; the cloud copy is refetched on next sync
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return ErrClosed
	}
	return c.db.Reset()
}
