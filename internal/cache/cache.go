// Beatradar - Beatmap Recommendation Engine for osu!
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beatradar

// Package cache is the durable key-value collaborator the embedding
// application uses around engine runs, most importantly to persist the
// last computed recommendation list. The engine itself never touches it.
//
// Values are stored under an explicit kind tag chosen by the caller
// (text, binary or structured) instead of being dispatched on runtime
// type. Structured values are JSON-encoded.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/beatradar/internal/logging"
)

// KeyLastRecommendations is the well-known key the application stores
// the last engine output under.
const KeyLastRecommendations = "LastRecommendations"

// Kind prefixes namespace keys per value kind, so the same key may hold
// a text and a structured value independently.
const (
	textPrefix   = "text:"
	binPrefix    = "bin:"
	structPrefix = "struct:"
)

// Cache is a badger-backed tagged key-value store. Safe for concurrent
// use.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates or opens a cache at dir. ttl, when non-zero, expires
// every stored entry.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache at %s: %w", dir, err)
	}

	logging.Debug().Str("dir", dir).Dur("ttl", ttl).Msg("cache opened")
	return &Cache{db: db, ttl: ttl}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// StoreText stores a text value under key.
func (c *Cache) StoreText(key, value string) error {
	return c.set(textPrefix+key, []byte(value))
}

// StoreBinary stores raw bytes under key.
func (c *Cache) StoreBinary(key string, value []byte) error {
	return c.set(binPrefix+key, value)
}

// StoreStruct JSON-encodes value and stores it under key.
func (c *Cache) StoreStruct(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.set(structPrefix+key, data)
}

// TextOrDefault retrieves the text value under key, or returns def when
// absent or expired.
func (c *Cache) TextOrDefault(key, def string) string {
	data, err := c.getValue(textPrefix + key)
	if err != nil {
		return def
	}
	return string(data)
}

// BinaryOrDefault retrieves the binary value under key, or def.
func (c *Cache) BinaryOrDefault(key string, def []byte) []byte {
	data, err := c.getValue(binPrefix + key)
	if err != nil {
		return def
	}
	return data
}

// StructOrDefault decodes the structured value under key into out and
// reports whether it was found. out is untouched when absent or
// undecodable, leaving the caller's default in place.
func (c *Cache) StructOrDefault(key string, out any) bool {
	data, err := c.getValue(structPrefix + key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("discarding undecodable cache entry")
		return false
	}
	return true
}

// Delete removes all kinds stored under key.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range []string{textPrefix, binPrefix, structPrefix} {
			if err := txn.Delete([]byte(prefix + key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s%s: %w", prefix, key, err)
			}
		}
		return nil
	})
}

// set writes one entry, applying the configured TTL.
func (c *Cache) set(fullKey string, value []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(fullKey), value)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set %s: %w", fullKey, err)
		}
		return nil
	})
}

// getValue reads one entry's value copy.
func (c *Cache) getValue(fullKey string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fullKey))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
