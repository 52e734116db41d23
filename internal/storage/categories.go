package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/model"
)

// GetCategories returns the category registry, ordered by name.
func (s *SQLiteStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, parent, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var (
			category model.Category
			parent   sql.NullString
		)
		if err := rows.Scan(&category.Name, &parent, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		category.Parent = parent.String
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// CreateCategory adds a category to the registry. Adding an existing name
// is not an error; the registry is advisory and insertions are idempotent.
func (s *SQLiteStore) CreateCategory(ctx context.Context, name, parent string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var parentValue any
	if parent != "" {
		parentValue = parent
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO categories (name, parent) VALUES (?, ?)
	`, name, parentValue); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	var (
		category model.Category
		stored   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, parent, created_at FROM categories WHERE name = ?
	`, name).Scan(&category.Name, &stored, &category.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	category.Parent = stored.String

	return &category, nil
}
