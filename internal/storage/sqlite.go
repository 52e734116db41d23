// Package storage provides the SQLite-backed pattern store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the service.PatternStore interface using SQLite.
type SQLiteStore struct {
	cacheExpiry  time.Time
	db           *sql.DB
	patternCache map[string]*model.PatternEntry
	dbPath       string
	cacheMutex   sync.RWMutex
}

// cacheTTL bounds staleness of the in-memory pattern cache.
const cacheTTL = 5 * time.Minute

// NewSQLiteStore creates a new SQLite pattern store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections; a single connection
	// also serializes same-key upserts so the last writer wins.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:           db,
		dbPath:       dbPath,
		patternCache: make(map[string]*model.PatternEntry),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// getCachedPattern retrieves a pattern entry from the read cache.
func (s *SQLiteStore) getCachedPattern(key string) *model.PatternEntry {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		// Cache expired; upgrade to a write lock and clear it.
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		// Double-check after acquiring write lock
		if time.Now().After(s.cacheExpiry) {
			s.patternCache = make(map[string]*model.PatternEntry)
		}
		return nil
	}

	entry := s.patternCache[key]
	s.cacheMutex.RUnlock()
	return entry
}

// cachePattern adds a pattern entry to the read cache.
func (s *SQLiteStore) cachePattern(entry *model.PatternEntry) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.patternCache) == 0 {
		// Set cache expiry on first entry
		s.cacheExpiry = time.Now().Add(cacheTTL)
	}
	s.patternCache[entry.Key] = entry
}

// evictPattern removes a single key from the read cache.
func (s *SQLiteStore) evictPattern(key string) {
	s.cacheMutex.Lock()
	delete(s.patternCache, key)
	s.cacheMutex.Unlock()
}

// resetCache clears the read cache entirely.
func (s *SQLiteStore) resetCache() {
	s.cacheMutex.Lock()
	s.patternCache = make(map[string]*model.PatternEntry)
	s.cacheMutex.Unlock()
}

// WarmPatternCache loads all patterns into the read cache.
func (s *SQLiteStore) WarmPatternCache(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	entries, err := s.AllPatterns(ctx)
	if err != nil {
		return err
	}

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.patternCache = make(map[string]*model.PatternEntry, len(entries))
	for i := range entries {
		s.patternCache[entries[i].Key] = &entries[i]
	}

	s.cacheExpiry = time.Now().Add(cacheTTL)
	return nil
}
