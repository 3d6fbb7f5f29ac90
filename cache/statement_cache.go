// Package cache holds compiled statements keyed by expression fingerprint.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Statement is one compiled statement: exact SQL text plus its positional
// parameter list. Fingerprints cover literal values, so a hit returns both.
type Statement struct {
	SQL  string
	Args []any
}

type StatementCache interface {
	Get(fingerprint uint64) (*Statement, bool)
	Set(fingerprint uint64, stmt *Statement)
}

type lruCache struct {
	entries *lru.Cache[uint64, *Statement]
}

// NewLRU builds a fixed-size statement cache. Size must be positive.
func NewLRU(size int) (StatementCache, error) {
	entries, err := lru.New[uint64, *Statement](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{entries: entries}, nil
}

func (c *lruCache) Get(fingerprint uint64) (*Statement, bool) {
	return c.entries.Get(fingerprint)
}

func (c *lruCache) Set(fingerprint uint64, stmt *Statement) {
	c.entries.Add(fingerprint, stmt)
}
