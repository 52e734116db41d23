package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerline/ledgerline/internal/common"
	"github.com/ledgerline/ledgerline/internal/model"
)

// Helper function to create test storage.
func createTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestSavePatternAndGetPattern(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	entry := &model.PatternEntry{
		Key:      "wholefds mkt",
		Category: "Groceries",
	}
	if err := store.SavePattern(ctx, entry); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}
	if entry.LastUpdated.IsZero() {
		t.Error("SavePattern() should stamp a zero LastUpdated")
	}

	got, err := store.GetPattern(ctx, "wholefds mkt")
	if err != nil {
		t.Fatalf("GetPattern() error = %v", err)
	}
	if got.Category != "Groceries" {
		t.Errorf("GetPattern() category = %q, want %q", got.Category, "Groceries")
	}
}

func TestGetPattern_NotFound(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	_, err := store.GetPattern(context.Background(), "no such key")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetPattern() error = %v, want ErrNotFound", err)
	}
}

func TestSavePattern_UpsertLastWriteWins(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first := &model.PatternEntry{Key: "corner store", Category: "Groceries"}
	if err := store.SavePattern(ctx, first); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}

	second := &model.PatternEntry{Key: "corner store", Category: "Snacks"}
	if err := store.SavePattern(ctx, second); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}

	got, err := store.GetPattern(ctx, "corner store")
	if err != nil {
		t.Fatalf("GetPattern() error = %v", err)
	}
	if got.Category != "Snacks" {
		t.Errorf("category after overwrite = %q, want %q", got.Category, "Snacks")
	}

	entries, err := store.AllPatterns(ctx)
	if err != nil {
		t.Fatalf("AllPatterns() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("AllPatterns() len = %d, want 1", len(entries))
	}
}

func TestSavePattern_Validation(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		entry *model.PatternEntry
		name  string
	}{
		{name: "nil entry", entry: nil},
		{name: "empty key", entry: &model.PatternEntry{Category: "Groceries"}},
		{name: "empty category", entry: &model.PatternEntry{Key: "corner store"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.SavePattern(ctx, tt.entry); err == nil {
				t.Error("SavePattern() expected an error")
			}
		})
	}
}

func TestSavePatterns(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	entries := []model.PatternEntry{
		{Key: "corner store", Category: "Groceries"},
		{Key: "blue bottle", Category: "Coffee"},
		{Key: "shell oil", Category: "Gas"},
	}

	written, err := store.SavePatterns(ctx, entries)
	if err != nil {
		t.Fatalf("SavePatterns() error = %v", err)
	}
	if written != 3 {
		t.Errorf("SavePatterns() written = %d, want 3", written)
	}

	all, err := store.AllPatterns(ctx)
	if err != nil {
		t.Fatalf("AllPatterns() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("AllPatterns() len = %d, want 3", len(all))
	}
	// Ordered by key.
	wantOrder := []string{"blue bottle", "corner store", "shell oil"}
	for i, want := range wantOrder {
		if all[i].Key != want {
			t.Errorf("AllPatterns()[%d].Key = %q, want %q", i, all[i].Key, want)
		}
	}

	if _, err := store.SavePatterns(ctx, nil); err == nil {
		t.Error("SavePatterns(nil) expected an error")
	}
}

func TestDeletePattern(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	entry := &model.PatternEntry{Key: "corner store", Category: "Groceries"}
	if err := store.SavePattern(ctx, entry); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}

	if err := store.DeletePattern(ctx, "corner store"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	if _, err := store.GetPattern(ctx, "corner store"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetPattern() after delete error = %v, want ErrNotFound", err)
	}

	if err := store.DeletePattern(ctx, "corner store"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("DeletePattern() on missing key error = %v, want ErrNotFound", err)
	}
}

func TestReplacePatterns(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.SavePatterns(ctx, []model.PatternEntry{
		{Key: "corner store", Category: "Groceries"},
		{Key: "blue bottle", Category: "Coffee"},
	}); err != nil {
		t.Fatalf("SavePatterns() error = %v", err)
	}

	if err := store.ReplacePatterns(ctx, []model.PatternEntry{
		{Key: "shell oil", Category: "Gas"},
	}); err != nil {
		t.Fatalf("ReplacePatterns() error = %v", err)
	}

	all, err := store.AllPatterns(ctx)
	if err != nil {
		t.Fatalf("AllPatterns() error = %v", err)
	}
	if len(all) != 1 || all[0].Key != "shell oil" {
		t.Errorf("AllPatterns() after replace = %+v, want only shell oil", all)
	}

	// The cache must not resurrect replaced entries.
	if _, err := store.GetPattern(ctx, "corner store"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetPattern() for replaced key error = %v, want ErrNotFound", err)
	}
}

func TestReplacePatterns_EmptySetClearsStore(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SavePattern(ctx, &model.PatternEntry{Key: "corner store", Category: "Groceries"}); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}

	if err := store.ReplacePatterns(ctx, nil); err != nil {
		t.Fatalf("ReplacePatterns(nil) error = %v", err)
	}

	all, err := store.AllPatterns(ctx)
	if err != nil {
		t.Fatalf("AllPatterns() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("AllPatterns() len = %d, want 0", len(all))
	}
}

func TestPatternCache(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	entry := &model.PatternEntry{
		Key:         "corner store",
		Category:    "Groceries",
		LastUpdated: time.Now(),
	}
	if err := store.SavePattern(ctx, entry); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}

	// Delete the row behind the cache's back; the cached entry still
	// answers until it is evicted.
	if _, err := store.db.ExecContext(ctx, `DELETE FROM patterns`); err != nil {
		t.Fatalf("raw delete error = %v", err)
	}

	got, err := store.GetPattern(ctx, "corner store")
	if err != nil {
		t.Fatalf("GetPattern() from cache error = %v", err)
	}
	if got.Category != "Groceries" {
		t.Errorf("cached category = %q, want %q", got.Category, "Groceries")
	}

	store.resetCache()
	if _, err := store.GetPattern(ctx, "corner store"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetPattern() after cache reset error = %v, want ErrNotFound", err)
	}
}

func TestWarmPatternCache(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.SavePatterns(ctx, []model.PatternEntry{
		{Key: "corner store", Category: "Groceries"},
		{Key: "blue bottle", Category: "Coffee"},
	}); err != nil {
		t.Fatalf("SavePatterns() error = %v", err)
	}
	store.resetCache()

	if err := store.WarmPatternCache(ctx); err != nil {
		t.Fatalf("WarmPatternCache() error = %v", err)
	}

	// Loaded rows answer from cache even after the table goes away.
	if _, err := store.db.ExecContext(ctx, `DELETE FROM patterns`); err != nil {
		t.Fatalf("raw delete error = %v", err)
	}
	got, err := store.GetPattern(ctx, "blue bottle")
	if err != nil {
		t.Fatalf("GetPattern() error = %v", err)
	}
	if got.Category != "Coffee" {
		t.Errorf("category = %q, want %q", got.Category, "Coffee")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	// A second migrate on an up-to-date database is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var version int
	if err := store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestGetCategories_SeededDefaults(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	categories, err := store.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("GetCategories() error = %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("GetCategories() returned no seeded categories")
	}

	byName := make(map[string]model.Category, len(categories))
	for _, category := range categories {
		byName[category.Name] = category
	}

	whole, ok := byName["Groceries - Whole Foods"]
	if !ok {
		t.Fatal("seeded category 'Groceries - Whole Foods' missing")
	}
	if whole.Parent != "Groceries" {
		t.Errorf("parent = %q, want %q", whole.Parent, "Groceries")
	}

	gas, ok := byName["Gas"]
	if !ok {
		t.Fatal("seeded category 'Gas' missing")
	}
	if gas.Parent != "" {
		t.Errorf("top-level category parent = %q, want empty", gas.Parent)
	}
}

func TestCreateCategory(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "Charity", "")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if created.Name != "Charity" || created.Parent != "" {
		t.Errorf("CreateCategory() = %+v", created)
	}

	// Creating the same name again is idempotent and keeps the original.
	again, err := store.CreateCategory(ctx, "Charity", "Giving")
	if err != nil {
		t.Fatalf("CreateCategory() repeat error = %v", err)
	}
	if again.Parent != "" {
		t.Errorf("repeat CreateCategory() parent = %q, want original empty parent", again.Parent)
	}

	child, err := store.CreateCategory(ctx, "Charity - Local", "Charity")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if child.Parent != "Charity" {
		t.Errorf("child parent = %q, want %q", child.Parent, "Charity")
	}

	if _, err := store.CreateCategory(ctx, "", ""); err == nil {
		t.Error("CreateCategory() with empty name expected an error")
	}
}

func TestValidation_NilContext(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	//nolint:staticcheck // deliberately nil context
	if _, err := store.GetPattern(nil, "key"); err == nil {
		t.Error("GetPattern(nil ctx) expected an error")
	}
}
