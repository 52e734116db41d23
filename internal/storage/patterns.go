package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
)

// GetPattern retrieves a pattern entry by its normalized key. Returns
// common.ErrNotFound when no pattern is stored for the key.
func (s *SQLiteStore) GetPattern(ctx context.Context, key string) (*model.PatternEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	// Check cache first
	if entry := s.getCachedPattern(key); entry != nil {
		return entry, nil
	}

	var entry model.PatternEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT key, category, last_updated
		FROM patterns
		WHERE key = ?
	`, key).Scan(
		&entry.Key,
		&entry.Category,
		&entry.LastUpdated,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}

	s.cachePattern(&entry)

	return &entry, nil
}

// SavePattern inserts or overwrites the pattern for a key. The most recent
// confirmation always wins; repeated identical saves are idempotent.
func (s *SQLiteStore) SavePattern(ctx context.Context, entry *model.PatternEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(entry); err != nil {
		return err
	}

	if entry.LastUpdated.IsZero() {
		entry.LastUpdated = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (key, category, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			category = excluded.category,
			last_updated = excluded.last_updated
	`, entry.Key, entry.Category, entry.LastUpdated)

	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}

	s.cachePattern(entry)

	return nil
}

// SavePatterns upserts each entry in turn and returns the number written.
// Each upsert is atomic on its own; entries are independent keys, so no
// cross-entry atomicity is needed and a failure part-way leaves earlier
// entries applied.
func (s *SQLiteStore) SavePatterns(ctx context.Context, entries []model.PatternEntry) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: entries", ErrEmptySlice)
	}

	var written int
	for i := range entries {
		if err := s.SavePattern(ctx, &entries[i]); err != nil {
			return written, fmt.Errorf("entry %d (%q): %w", i, entries[i].Key, err)
		}
		written++
	}
	return written, nil
}

// AllPatterns returns every stored pattern entry, ordered by key. This is
// the enumerable export used for backup and debugging.
func (s *SQLiteStore) AllPatterns(ctx context.Context) ([]model.PatternEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, category, last_updated
		FROM patterns
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.PatternEntry
	for rows.Next() {
		var entry model.PatternEntry
		if err := rows.Scan(&entry.Key, &entry.Category, &entry.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DeletePattern removes a pattern entry by key.
func (s *SQLiteStore) DeletePattern(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM patterns WHERE key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	s.evictPattern(key)

	return nil
}

// ReplacePatterns atomically replaces the whole pattern set with the given
// entries. Used for bulk reload from an export.
func (s *SQLiteStore) ReplacePatterns(ctx context.Context, entries []model.PatternEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range entries {
		if err := validatePattern(&entries[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM patterns`); err != nil {
		return fmt.Errorf("failed to clear patterns: %w", err)
	}

	for i := range entries {
		entry := &entries[i]
		if entry.LastUpdated.IsZero() {
			entry.LastUpdated = time.Now()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO patterns (key, category, last_updated)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				category = excluded.category,
				last_updated = excluded.last_updated
		`, entry.Key, entry.Category, entry.LastUpdated); err != nil {
			return fmt.Errorf("failed to insert pattern %q: %w", entry.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pattern reload: %w", err)
	}

	s.resetCache()

	return nil
}
