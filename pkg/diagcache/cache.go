// Package diagcache keeps decoded diag tables in badger so repeated runs over
// the same hours skip decompression and NetCDF decoding.
package diagcache

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vjranagit/omfseries/pkg/diag"
)

// Config holds cache configuration
type Config struct {
	Path             string
	RetentionDays    int
	CompressionLevel int
	// InMemory keeps the store off disk; Path is ignored.
	InMemory bool
}

// DefaultConfig returns default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Path:             "./cache",
		RetentionDays:    30,
		CompressionLevel: 3,
	}
}

// Cache is a diag.Reader that serves decoded tables from badger and falls
// back to the wrapped reader on a miss.
type Cache struct {
	cfg    *Config
	db     *badger.DB
	codec  *Codec
	next   diag.Reader
	logger *slog.Logger
}

// Open creates a cache in front of next
func Open(cfg *Config, next diag.Reader, logger *slog.Logger) (*Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	codec, err := NewCodec(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	return &Cache{
		cfg:    cfg,
		db:     db,
		codec:  codec,
		next:   next,
		logger: logger,
	}, nil
}

// Read implements diag.Reader. The key covers size and mtime, so a rewritten
// file is decoded again and a removed one reports fs.ErrNotExist as usual.
func (c *Cache) Read(ctx context.Context, path string) (*diag.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	key := generateKey(path, info.Size(), info.ModTime())

	table, err := c.get(key)
	switch {
	case err == nil:
		c.logger.Debug("diag cache hit", "path", path)
		table.Path = path
		return table, nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		c.logger.Warn("diag cache read failed", "path", path, "err", err)
	}

	table, err = c.next.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := c.put(key, table); err != nil {
		c.logger.Warn("diag cache write failed", "path", path, "err", err)
	}
	return table, nil
}

func (c *Cache) get(key []byte) (*diag.Table, error) {
	var payload []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			payload = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return c.codec.Decode(payload)
}

func (c *Cache) put(key []byte, table *diag.Table) error {
	payload, err := c.codec.Encode(table)
	if err != nil {
		return err
	}

	entry := badger.NewEntry(key, payload)
	if c.cfg.RetentionDays > 0 {
		entry = entry.WithTTL(time.Duration(c.cfg.RetentionDays) * 24 * time.Hour)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Close closes the store
func (c *Cache) Close() error {
	c.codec.Close()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// generateKey builds path/size/mtime keys
func generateKey(path string, size int64, modTime time.Time) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString(path)
	buf.WriteByte(0)

	binary.Write(buf, binary.BigEndian, size)
	binary.Write(buf, binary.BigEndian, modTime.UnixNano())

	return buf.Bytes()
}
