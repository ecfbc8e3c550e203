package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
)

// sqlStore implements Store over database/sql. The SQLite and PostgreSQL
// backends differ only in driver, placeholder style and connection setup.
type sqlStore struct {
	db   *sql.DB
	name string
	// numbered switches ? placeholders to $1, $2, ...
	numbered bool
}

// q rewrites ? placeholders for the backend.
func (s *sqlStore) q(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateDecision inserts a new decision.
func (s *sqlStore) CreateDecision(ctx context.Context, d models.Decision) error {
	secondary, err := encodeList(d.SecondaryCategories)
	if err != nil {
		slog.Error(s.name+" CreateDecision marshal failed", "error", err, "id", d.ID)
		return fmt.Errorf("failed to encode secondary categories: %w", err)
	}
	tags, err := encodeList(d.Tags)
	if err != nil {
		slog.Error(s.name+" CreateDecision marshal failed", "error", err, "id", d.ID)
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO decisions (`+decisionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.Title, string(d.Category), secondary, d.Confidence, d.Feeling,
		nullableString(d.WhyText), tags, toMillis(d.CreatedAt), toMillis(d.UpdatedAt))
	if err != nil {
		slog.Error(s.name+" CreateDecision failed", "error", err, "id", d.ID)
		return fmt.Errorf("failed to insert decision %s: %w", d.ID, err)
	}
	slog.Debug(s.name+" CreateDecision succeeded", "id", d.ID, "category", d.Category)
	return nil
}

// UpdateDecision writes the editable fields (title, why text, updated time).
func (s *sqlStore) UpdateDecision(ctx context.Context, d models.Decision) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE decisions SET title = ?, why_text = ?, updated_at = ? WHERE id = ?`),
		d.Title, nullableString(d.WhyText), toMillis(d.UpdatedAt), d.ID)
	if err != nil {
		slog.Error(s.name+" UpdateDecision failed", "error", err, "id", d.ID)
		return fmt.Errorf("failed to update decision %s: %w", d.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.Debug(s.name+" UpdateDecision not found", "id", d.ID)
		return ErrNotFound
	}
	slog.Debug(s.name+" UpdateDecision succeeded", "id", d.ID)
	return nil
}

// GetDecision loads one decision by id.
func (s *sqlStore) GetDecision(ctx context.Context, id string) (models.Decision, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`), id)
	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetDecision not found", "id", id)
		return models.Decision{}, ErrNotFound
	}
	if err != nil {
		slog.Error(s.name+" GetDecision failed", "error", err, "id", id)
		return models.Decision{}, fmt.Errorf("failed to get decision %s: %w", id, err)
	}
	slog.Debug(s.name+" GetDecision found", "id", id)
	return d, nil
}

// ListDecisions returns decisions newest first, optionally filtered by title.
func (s *sqlStore) ListDecisions(ctx context.Context, search string, limit int) ([]models.Decision, error) {
	var rows *sql.Rows
	var err error
	search = strings.TrimSpace(search)
	if search != "" {
		rows, err = s.db.QueryContext(ctx, s.q(`SELECT `+decisionColumns+` FROM decisions
			WHERE title LIKE ? ESCAPE '\' ORDER BY created_at DESC, id DESC LIMIT ?`), likePattern(search), listLimit(limit))
	} else {
		rows, err = s.db.QueryContext(ctx, s.q(`SELECT `+decisionColumns+` FROM decisions
			ORDER BY created_at DESC, id DESC LIMIT ?`), listLimit(limit))
	}
	if err != nil {
		slog.Error(s.name+" ListDecisions query failed", "error", err, "search_set", search != "")
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	out, err := scanDecisions(rows)
	if err != nil {
		slog.Error(s.name+" ListDecisions scan failed", "error", err)
		return nil, err
	}
	slog.Debug(s.name+" ListDecisions succeeded", "count", len(out), "search_set", search != "")
	return out, nil
}

// ListDecisionsInRange returns decisions created in [start, end), oldest first.
func (s *sqlStore) ListDecisionsInRange(ctx context.Context, start, end time.Time) ([]models.Decision, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+decisionColumns+` FROM decisions
		WHERE created_at >= ? AND created_at < ? ORDER BY created_at ASC, id ASC`), toMillis(start), toMillis(end))
	if err != nil {
		slog.Error(s.name+" ListDecisionsInRange query failed", "error", err, "start", start, "end", end)
		return nil, fmt.Errorf("failed to list decisions in range: %w", err)
	}
	out, err := scanDecisions(rows)
	if err != nil {
		slog.Error(s.name+" ListDecisionsInRange scan failed", "error", err)
		return nil, err
	}
	slog.Debug(s.name+" ListDecisionsInRange succeeded", "count", len(out))
	return out, nil
}

// CountInRange counts decisions created in [start, end).
func (s *sqlStore) CountInRange(ctx context.Context, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(1) FROM decisions WHERE created_at >= ? AND created_at < ?`),
		toMillis(start), toMillis(end)).Scan(&n)
	if err != nil {
		slog.Error(s.name+" CountInRange failed", "error", err)
		return 0, fmt.Errorf("failed to count decisions in range: %w", err)
	}
	return n, nil
}

// CountAll counts every decision.
func (s *sqlStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM decisions`).Scan(&n); err != nil {
		slog.Error(s.name+" CountAll failed", "error", err)
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return n, nil
}

// FirstDecisionAt returns the earliest creation time, or nil when empty.
func (s *sqlStore) FirstDecisionAt(ctx context.Context) (*time.Time, error) {
	t, err := scanOptionalMillis(s.db.QueryRowContext(ctx, `SELECT MIN(created_at) FROM decisions`))
	if err != nil {
		slog.Error(s.name+" FirstDecisionAt failed", "error", err)
		return nil, fmt.Errorf("failed to read first decision time: %w", err)
	}
	return t, nil
}

// LastDecisionAt returns the latest creation time, or nil when empty.
func (s *sqlStore) LastDecisionAt(ctx context.Context) (*time.Time, error) {
	t, err := scanOptionalMillis(s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM decisions`))
	if err != nil {
		slog.Error(s.name+" LastDecisionAt failed", "error", err)
		return nil, fmt.Errorf("failed to read last decision time: %w", err)
	}
	return t, nil
}

// CategoryCountsInRange groups primary categories in [start, end). Equal
// counts are ordered by first appearance.
func (s *sqlStore) CategoryCountsInRange(ctx context.Context, start, end time.Time) ([]models.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT category, COUNT(1) AS n FROM decisions
		WHERE created_at >= ? AND created_at < ?
		GROUP BY category ORDER BY n DESC, MIN(created_at) ASC, category ASC`), toMillis(start), toMillis(end))
	if err != nil {
		slog.Error(s.name+" CategoryCountsInRange query failed", "error", err)
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	out, err := scanCategoryCounts(rows)
	if err != nil {
		slog.Error(s.name+" CategoryCountsInRange scan failed", "error", err)
		return nil, err
	}
	slog.Debug(s.name+" CategoryCountsInRange succeeded", "categories", len(out))
	return out, nil
}

// CategoryAverageConfidence averages confidence per category in [start, end)
// for categories with at least minCount decisions.
func (s *sqlStore) CategoryAverageConfidence(ctx context.Context, start, end time.Time, minCount int) ([]models.CategoryStat, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT category, AVG(confidence) AS avg, COUNT(1) AS n FROM decisions
		WHERE created_at >= ? AND created_at < ?
		GROUP BY category HAVING COUNT(1) >= ?
		ORDER BY avg DESC, MIN(created_at) ASC, category ASC`), toMillis(start), toMillis(end), minCount)
	if err != nil {
		slog.Error(s.name+" CategoryAverageConfidence query failed", "error", err)
		return nil, fmt.Errorf("failed to average category confidence: %w", err)
	}
	out, err := scanCategoryStats(rows)
	if err != nil {
		slog.Error(s.name+" CategoryAverageConfidence scan failed", "error", err)
		return nil, err
	}
	slog.Debug(s.name+" CategoryAverageConfidence succeeded", "categories", len(out), "min_count", minCount)
	return out, nil
}

// RecentDecisions returns up to limit decisions, newest first.
func (s *sqlStore) RecentDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+decisionColumns+` FROM decisions
		ORDER BY created_at DESC, id DESC LIMIT ?`), listLimit(limit))
	if err != nil {
		slog.Error(s.name+" RecentDecisions query failed", "error", err)
		return nil, fmt.Errorf("failed to list recent decisions: %w", err)
	}
	out, err := scanDecisions(rows)
	if err != nil {
		slog.Error(s.name+" RecentDecisions scan failed", "error", err)
		return nil, err
	}
	return out, nil
}

// GetState reads a value from app_state.
func (s *sqlStore) GetState(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM app_state WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetState not found", "key", key)
		return "", false, nil
	}
	if err != nil {
		slog.Error(s.name+" GetState failed", "error", err, "key", key)
		return "", false, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return v, true, nil
}

// SetState writes a value to app_state, replacing any previous value.
func (s *sqlStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, value, toMillis(time.Now()))
	if err != nil {
		slog.Error(s.name+" SetState failed", "error", err, "key", key)
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	slog.Debug(s.name+" SetState succeeded", "key", key)
	return nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	slog.Debug("Closing " + s.name + " database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close "+s.name+" database", "error", err)
	} else {
		slog.Debug(s.name + " database connection closed successfully")
	}
	return err
}
