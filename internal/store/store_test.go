package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/BTreeMap/Pondr/internal/models"
)

var timeEqual = cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })

// base is a Monday, ms aligned.
var base = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func mustDecision(t *testing.T, id, title string, cat models.Category, conf float64, at time.Time) models.Decision {
	t.Helper()
	why := "because " + id
	d, err := models.NewDecision(id, models.DecisionDraft{
		Title:               title,
		Category:            cat,
		SecondaryCategories: []models.Category{models.CategoryMoney},
		Confidence:          conf,
		WhyText:             &why,
		Tags:                []string{"t-" + id},
	}, at)
	if err != nil {
		t.Fatalf("NewDecision(%s): %v", id, err)
	}
	return d
}

func seed(t *testing.T, s Store) []models.Decision {
	t.Helper()
	ctx := context.Background()
	ds := []models.Decision{
		mustDecision(t, "d1", "Take the offer", models.CategoryCareer, 4, base),
		mustDecision(t, "d2", "Run 5k", models.CategoryHealth, 2, base.Add(24*time.Hour)),
		mustDecision(t, "d3", "Switch teams 100%_sure", models.CategoryCareer, 5, base.Add(48*time.Hour)),
		mustDecision(t, "d4", "Book dentist", models.CategoryHealth, 3, base.Add(72*time.Hour)),
		mustDecision(t, "d5", "Read before bed", models.CategoryLearning, 1, base.Add(7*24*time.Hour)),
	}
	for _, d := range ds {
		if err := s.CreateDecision(ctx, d); err != nil {
			t.Fatalf("CreateDecision(%s): %v", d.ID, err)
		}
	}
	return ds
}

// runStoreContract exercises every Store method against a fresh store.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	ds := seed(t, s)
	weekEnd := base.Add(7 * 24 * time.Hour)

	got, err := s.GetDecision(ctx, "d1")
	if err != nil {
		t.Fatalf("GetDecision: %v", err)
	}
	if diff := cmp.Diff(ds[0], got, timeEqual, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("GetDecision mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.GetDecision(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	inRange, err := s.ListDecisionsInRange(ctx, base, weekEnd)
	if err != nil {
		t.Fatalf("ListDecisionsInRange: %v", err)
	}
	var ids []string
	for _, d := range inRange {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"d1", "d2", "d3", "d4"}, ids); diff != "" {
		t.Errorf("range must be half-open and oldest first (-want +got):\n%s", diff)
	}

	if n, err := s.CountInRange(ctx, base, weekEnd); err != nil || n != 4 {
		t.Errorf("CountInRange = %d, %v; want 4", n, err)
	}
	if n, err := s.CountAll(ctx); err != nil || n != 5 {
		t.Errorf("CountAll = %d, %v; want 5", n, err)
	}

	first, err := s.FirstDecisionAt(ctx)
	if err != nil || first == nil || !first.Equal(base) {
		t.Errorf("FirstDecisionAt = %v, %v", first, err)
	}
	last, err := s.LastDecisionAt(ctx)
	if err != nil || last == nil || !last.Equal(weekEnd) {
		t.Errorf("LastDecisionAt = %v, %v", last, err)
	}

	counts, err := s.CategoryCountsInRange(ctx, base, weekEnd)
	if err != nil {
		t.Fatalf("CategoryCountsInRange: %v", err)
	}
	wantCounts := []models.CategoryCount{{Category: models.CategoryCareer, Count: 2}, {Category: models.CategoryHealth, Count: 2}}
	if diff := cmp.Diff(wantCounts, counts); diff != "" {
		t.Errorf("CategoryCountsInRange mismatch (-want +got):\n%s", diff)
	}

	stats, err := s.CategoryAverageConfidence(ctx, base, weekEnd.Add(time.Hour), 2)
	if err != nil {
		t.Fatalf("CategoryAverageConfidence: %v", err)
	}
	wantStats := []models.CategoryStat{
		{Category: models.CategoryCareer, Avg: 4.5, Count: 2},
		{Category: models.CategoryHealth, Avg: 2.5, Count: 2},
	}
	if diff := cmp.Diff(wantStats, stats, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("CategoryAverageConfidence mismatch (-want +got):\n%s", diff)
	}

	recent, err := s.RecentDecisions(ctx, 2)
	if err != nil || len(recent) != 2 || recent[0].ID != "d5" || recent[1].ID != "d4" {
		t.Errorf("RecentDecisions = %v, %v", recent, err)
	}

	found, err := s.ListDecisions(ctx, "100%_", 0)
	if err != nil || len(found) != 1 || found[0].ID != "d3" {
		t.Errorf("ListDecisions with escaped search = %v, %v", found, err)
	}
	if found, _ := s.ListDecisions(ctx, "%", 0); len(found) != 1 {
		t.Errorf("a literal %% must only match titles containing it, got %d", len(found))
	}
	all, err := s.ListDecisions(ctx, "", 0)
	if err != nil || len(all) != 5 || all[0].ID != "d5" {
		t.Errorf("ListDecisions = %d items, %v", len(all), err)
	}

	title := "Take the better offer"
	edited, err := ds[0].ApplyEdit(models.DecisionEdit{Title: &title}, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if err := s.UpdateDecision(ctx, edited); err != nil {
		t.Fatalf("UpdateDecision: %v", err)
	}
	got, _ = s.GetDecision(ctx, "d1")
	if got.Title != title || !got.UpdatedAt.Equal(base.Add(time.Hour)) || got.Confidence != 4 {
		t.Errorf("UpdateDecision did not persist edit: %+v", got)
	}
	if err := s.UpdateDecision(ctx, models.Decision{ID: "missing", Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}

	if _, ok, err := s.GetState(ctx, "k"); ok || err != nil {
		t.Errorf("GetState on empty key = %v, %v", ok, err)
	}
	for _, v := range []string{"one", "two"} {
		if err := s.SetState(ctx, "k", v); err != nil {
			t.Fatalf("SetState: %v", err)
		}
	}
	if v, ok, err := s.GetState(ctx, "k"); v != "two" || !ok || err != nil {
		t.Errorf("GetState = %q, %v, %v; want last write", v, ok, err)
	}
}

func TestInMemoryStore(t *testing.T) {
	runStoreContract(t, NewInMemoryStore())
}

func TestInMemoryStore_Empty(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	if first, err := s.FirstDecisionAt(ctx); first != nil || err != nil {
		t.Errorf("FirstDecisionAt on empty store = %v, %v", first, err)
	}
	if last, err := s.LastDecisionAt(ctx); last != nil || err != nil {
		t.Errorf("LastDecisionAt on empty store = %v, %v", last, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(WithSQLiteDSN(filepath.Join(t.TempDir(), "sub", "pondr.db")))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pondr.db")
	s1, err := NewSQLiteStore(WithSQLiteDSN(path))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	seed(t, s1)
	s1.Close()

	s2, err := NewSQLiteStore(WithSQLiteDSN(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if n, _ := s2.CountAll(context.Background()); n != 5 {
		t.Errorf("expected 5 decisions after reopen, got %d", n)
	}
}

func TestSQLiteStore_MalformedListColumns(t *testing.T) {
	s, err := NewSQLiteStore(WithSQLiteDSN(filepath.Join(t.TempDir(), "pondr.db")))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	_, err = s.db.Exec(`INSERT INTO decisions (`+decisionColumns+`) VALUES ('bad', 'x', 'other', 'not json', 3, 3, NULL, '{', 0, 0)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	d, err := s.GetDecision(context.Background(), "bad")
	if err != nil {
		t.Fatalf("GetDecision: %v", err)
	}
	if len(d.SecondaryCategories) != 0 || len(d.Tags) != 0 || d.WhyText != nil {
		t.Errorf("malformed columns should decode as empty, got %+v", d)
	}
}

func TestSQLiteStore_NoDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected error without DSN")
	}
}

func TestPostgresStore(t *testing.T) {
	// This test requires a running PostgreSQL instance.
	// Set the DATABASE_URL environment variable for connection string.
	connStr := getenvOrSkip(t, "DATABASE_URL")
	pgStore, err := NewPostgresStore(WithPostgresDSN(connStr))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer pgStore.Close()
	// Clean up tables before test
	pgStore.db.Exec("DELETE FROM decisions")
	pgStore.db.Exec("DELETE FROM app_state")
	runStoreContract(t, pgStore)
}

func TestPlaceholderRewrite(t *testing.T) {
	pg := &sqlStore{numbered: true}
	if got := pg.q("a = ? AND b < ?"); got != "a = $1 AND b < $2" {
		t.Errorf("unexpected rewrite %q", got)
	}
	lite := &sqlStore{}
	if got := lite.q("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query should be unchanged, got %q", got)
	}
}

func TestDetectDSNType(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost/db":     DSNTypePostgres,
		"postgresql://localhost/db":       DSNTypePostgres,
		"host=localhost user=me dbname=x": DSNTypePostgres,
		"/var/lib/pondr/pondr.db":         DSNTypeSQLite,
		"pondr.db":                        DSNTypeSQLite,
	}
	for dsn, want := range tests {
		if got := DetectDSNType(dsn); got != want {
			t.Errorf("DetectDSNType(%q) = %q, want %q", dsn, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\"): %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", s)
	}

	s, err = Open(filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected SQLite store, got %T", s)
	}
}

func TestLikePattern(t *testing.T) {
	for in, want := range map[string]string{
		"abc":  "%abc%",
		"50%":  `%50\%%`,
		"a_b":  `%a\_b%`,
		`c:\x`: `%c:\\x%`,
	} {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func getenvOrSkip(t *testing.T, key string) string {
	v := ""
	if val, ok := syscall.Getenv(key); ok {
		v = val
	}
	if v == "" {
		t.Skipf("env %s not set", key)
	}
	return v
}

func ExampleDetectDSNType() {
	fmt.Println(DetectDSNType("postgres://localhost/pondr"))
	fmt.Println(DetectDSNType("pondr.db"))
	// Output:
	// postgres
	// sqlite3
}
