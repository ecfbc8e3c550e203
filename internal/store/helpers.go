package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
)

// decisionColumns lists the decisions table columns in scan order.
const decisionColumns = `id, title, category, secondary_categories, confidence, feeling, why_text, tags, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// toMillis stores times as Unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// encodeList marshals a string-like slice into a JSON text column.
func encodeList[T ~string](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeList reads a JSON text column. Malformed values decode to an empty list.
func decodeList[T ~string](raw string, column, id string) []T {
	out := []T{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Debug("store: malformed list column, treating as empty", "column", column, "id", id, "error", err)
		return []T{}
	}
	return out
}

// nullableString maps a nil pointer to NULL.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// scanDecision scans one decisions row selected with decisionColumns.
func scanDecision(row rowScanner) (models.Decision, error) {
	var d models.Decision
	var secondary, tags string
	var why sql.NullString
	var created, updated int64
	if err := row.Scan(&d.ID, &d.Title, &d.Category, &secondary, &d.Confidence, &d.Feeling,
		&why, &tags, &created, &updated); err != nil {
		return d, err
	}
	d.SecondaryCategories = decodeList[models.Category](secondary, "secondary_categories", d.ID)
	d.Tags = decodeList[string](tags, "tags", d.ID)
	if why.Valid {
		w := why.String
		d.WhyText = &w
	}
	d.CreatedAt = fromMillis(created)
	d.UpdatedAt = fromMillis(updated)
	return d, nil
}

// scanDecisions drains rows into a slice.
func scanDecisions(rows *sql.Rows) ([]models.Decision, error) {
	defer rows.Close()
	var out []models.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decision rows: %w", err)
	}
	return out, nil
}

// likePattern escapes LIKE metacharacters in q and wraps it for substring matching.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// scanCategoryCounts drains (category, count) rows.
func scanCategoryCounts(rows *sql.Rows) ([]models.CategoryCount, error) {
	defer rows.Close()
	var out []models.CategoryCount
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", err)
	}
	return out, nil
}

// scanCategoryStats drains (category, avg, count) rows.
func scanCategoryStats(rows *sql.Rows) ([]models.CategoryStat, error) {
	defer rows.Close()
	var out []models.CategoryStat
	for rows.Next() {
		var c models.CategoryStat
		var avg sql.NullFloat64
		if err := rows.Scan(&c.Category, &avg, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		if !avg.Valid {
			continue
		}
		c.Avg = avg.Float64
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category stats: %w", err)
	}
	return out, nil
}

// scanOptionalMillis converts a nullable MIN/MAX aggregate into a time pointer.
func scanOptionalMillis(row *sql.Row) (*time.Time, error) {
	var ms sql.NullInt64
	if err := row.Scan(&ms); err != nil {
		return nil, err
	}
	if !ms.Valid {
		return nil, nil
	}
	t := fromMillis(ms.Int64)
	return &t, nil
}
