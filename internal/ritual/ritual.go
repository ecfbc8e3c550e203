// Package ritual persists the small records behind the weekly reflection
// ritual: first use, last reflection, the cached reflections, the gentle
// question history, the previous-week grace flag, the week start setting and
// the install id.
//
// Records are JSON values in a key/value table, last write wins. A record that
// fails to decode or validate is reported as absent, never as an error.
package ritual

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/Pondr/internal/questions"
	"github.com/BTreeMap/Pondr/internal/window"
)

// Keys of the records kept in app_state.
const (
	KeyFirstUseAt        = "first_use_at"
	KeyLastReflectionAt  = "last_reflection_at"
	KeyRollingCache      = "reflection_cache_rolling"
	KeyQuestionHistory   = "gentle_question_history"
	KeyPreviousWeekGrace = "previous_week_grace"
	KeyPreviousWeekCache = "previous_week_reflection"
	KeyWeekStartDay      = "week_start_day"
	KeyInstallID         = "install_id"
)

// KV is the key/value side of the store.
type KV interface {
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
}

// Cache is a generated reflection bound to the window it describes.
type Cache struct {
	WindowStart         time.Time `json:"windowStart"`
	WindowEnd           time.Time `json:"windowEnd"`
	GeneratedAt         time.Time `json:"generatedAt"`
	ReflectionText      string    `json:"reflectionText"`
	ObservedPatternText string    `json:"observedPatternText"`
	GentleQuestionText  *string   `json:"gentleQuestionText"`
	// Source names the engine that produced the text.
	Source string `json:"source,omitempty"`
}

// Matches reports whether c was generated for exactly r.
func (c Cache) Matches(r window.Range) bool {
	return c.WindowStart.Equal(r.Start) && c.WindowEnd.Equal(r.End)
}

// Grace records the one-time previous-week generation.
type Grace struct {
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"usedAt"`
}

// Store reads and writes ritual records through a KV.
type Store struct {
	kv KV
}

// New wraps kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.kv.GetState(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.SetState(ctx, key, string(b)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func malformed(key string, err error) {
	slog.Debug("ritual: malformed record treated as absent", "key", key, "error", err)
}

// ---- Timestamps ----

func (s *Store) getTime(ctx context.Context, key string) (time.Time, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, perr := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if perr != nil {
		malformed(key, perr)
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (s *Store) setTime(ctx context.Context, key string, t time.Time) error {
	if err := s.kv.SetState(ctx, key, t.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// FirstUseAt returns the recorded first use time.
func (s *Store) FirstUseAt(ctx context.Context) (time.Time, bool, error) {
	return s.getTime(ctx, KeyFirstUseAt)
}

// EnsureFirstUseAt returns the first use time, recording now if none exists.
func (s *Store) EnsureFirstUseAt(ctx context.Context, now time.Time) (time.Time, error) {
	t, ok, err := s.FirstUseAt(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return t, nil
	}
	if err := s.setTime(ctx, KeyFirstUseAt, now); err != nil {
		return time.Time{}, err
	}
	slog.Debug("ritual: first use recorded", "at", now)
	return now, nil
}

// LastReflectionAt returns when the last rolling reflection was generated.
func (s *Store) LastReflectionAt(ctx context.Context) (time.Time, bool, error) {
	return s.getTime(ctx, KeyLastReflectionAt)
}

// SetLastReflectionAt records a successful generation.
func (s *Store) SetLastReflectionAt(ctx context.Context, t time.Time) error {
	return s.setTime(ctx, KeyLastReflectionAt, t)
}

// ---- Reflection caches ----

// cacheRecord mirrors Cache with optional fields so missing values are detectable.
type cacheRecord struct {
	WindowStart         *string         `json:"windowStart"`
	WindowEnd           *string         `json:"windowEnd"`
	GeneratedAt         *string         `json:"generatedAt"`
	ReflectionText      *string         `json:"reflectionText"`
	ObservedPatternText *string         `json:"observedPatternText"`
	GentleQuestionText  json.RawMessage `json:"gentleQuestionText"`
	Source              string          `json:"source"`
}

func parseStamp(field string, v *string) (time.Time, error) {
	if v == nil {
		return time.Time{}, fmt.Errorf("missing %s", field)
	}
	t, err := time.Parse(time.RFC3339Nano, *v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t, nil
}

// DecodeCache validates a stored cache record.
func DecodeCache(raw string) (Cache, error) {
	var rec cacheRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Cache{}, err
	}
	var c Cache
	var err error
	if c.WindowStart, err = parseStamp("windowStart", rec.WindowStart); err != nil {
		return Cache{}, err
	}
	if c.WindowEnd, err = parseStamp("windowEnd", rec.WindowEnd); err != nil {
		return Cache{}, err
	}
	if c.GeneratedAt, err = parseStamp("generatedAt", rec.GeneratedAt); err != nil {
		return Cache{}, err
	}
	if rec.ReflectionText == nil || rec.ObservedPatternText == nil {
		return Cache{}, fmt.Errorf("missing reflection text")
	}
	c.ReflectionText = *rec.ReflectionText
	c.ObservedPatternText = *rec.ObservedPatternText
	if q := strings.TrimSpace(string(rec.GentleQuestionText)); q != "" && q != "null" {
		var text string
		if err := json.Unmarshal(rec.GentleQuestionText, &text); err != nil {
			return Cache{}, fmt.Errorf("invalid gentleQuestionText: %w", err)
		}
		c.GentleQuestionText = &text
	}
	c.Source = rec.Source
	return c, nil
}

func (s *Store) getCache(ctx context.Context, key string) (Cache, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return Cache{}, false, err
	}
	c, derr := DecodeCache(raw)
	if derr != nil {
		malformed(key, derr)
		return Cache{}, false, nil
	}
	return c, true, nil
}

// RollingCache returns the cached rolling reflection.
func (s *Store) RollingCache(ctx context.Context) (Cache, bool, error) {
	return s.getCache(ctx, KeyRollingCache)
}

// SetRollingCache replaces the cached rolling reflection.
func (s *Store) SetRollingCache(ctx context.Context, c Cache) error {
	return s.putJSON(ctx, KeyRollingCache, c)
}

// PreviousWeekCache returns the cached previous-week reflection.
func (s *Store) PreviousWeekCache(ctx context.Context) (Cache, bool, error) {
	return s.getCache(ctx, KeyPreviousWeekCache)
}

// SetPreviousWeekCache replaces the cached previous-week reflection.
func (s *Store) SetPreviousWeekCache(ctx context.Context, c Cache) error {
	return s.putJSON(ctx, KeyPreviousWeekCache, c)
}

// ---- Question history ----

// QuestionHistory returns the gentle question history. Non-string ids are
// dropped and a malformed record yields an empty history.
func (s *Store) QuestionHistory(ctx context.Context) (questions.History, error) {
	raw, ok, err := s.get(ctx, KeyQuestionHistory)
	if err != nil || !ok {
		return questions.History{}, err
	}
	var rec struct {
		IDs []any `json:"lastUsedQuestionIds"`
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		malformed(KeyQuestionHistory, err)
		return questions.History{}, nil
	}
	h := questions.History{LastUsedIDs: []string{}}
	for _, v := range rec.IDs {
		if id, ok := v.(string); ok {
			h.LastUsedIDs = append(h.LastUsedIDs, id)
		}
	}
	return h, nil
}

// SetQuestionHistory replaces the gentle question history.
func (s *Store) SetQuestionHistory(ctx context.Context, h questions.History) error {
	if h.LastUsedIDs == nil {
		h.LastUsedIDs = []string{}
	}
	return s.putJSON(ctx, KeyQuestionHistory, h)
}

// ---- Previous-week grace ----

// PreviousWeekGrace returns the grace flag. A record whose used flag is not a
// boolean counts as unused; a bad usedAt is dropped.
func (s *Store) PreviousWeekGrace(ctx context.Context) (Grace, error) {
	raw, ok, err := s.get(ctx, KeyPreviousWeekGrace)
	if err != nil || !ok {
		return Grace{}, err
	}
	var rec struct {
		Used   json.RawMessage `json:"used"`
		UsedAt json.RawMessage `json:"usedAt"`
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		malformed(KeyPreviousWeekGrace, err)
		return Grace{}, nil
	}
	var g Grace
	if err := json.Unmarshal(rec.Used, &g.Used); err != nil {
		malformed(KeyPreviousWeekGrace, err)
		return Grace{}, nil
	}
	var at time.Time
	if len(rec.UsedAt) > 0 && json.Unmarshal(rec.UsedAt, &at) == nil && !at.IsZero() {
		g.UsedAt = &at
	}
	return g, nil
}

// SetPreviousWeekGrace replaces the grace flag.
func (s *Store) SetPreviousWeekGrace(ctx context.Context, g Grace) error {
	return s.putJSON(ctx, KeyPreviousWeekGrace, g)
}

// ---- Settings ----

// WeekStartDay returns the stored week start, or window.DefaultWeekStartDay
// when unset or out of range.
func (s *Store) WeekStartDay(ctx context.Context) (time.Weekday, error) {
	raw, ok, err := s.get(ctx, KeyWeekStartDay)
	if err != nil || !ok {
		return window.DefaultWeekStartDay, err
	}
	n, perr := strconv.Atoi(strings.TrimSpace(raw))
	if perr != nil || n < 0 || n > 6 {
		malformed(KeyWeekStartDay, fmt.Errorf("invalid week start %q", raw))
		return window.DefaultWeekStartDay, nil
	}
	return time.Weekday(n), nil
}

// SetWeekStartDay stores the week start. Only 0 (Sunday) through 6 are accepted.
func (s *Store) SetWeekStartDay(ctx context.Context, day time.Weekday) error {
	if day < time.Sunday || day > time.Saturday {
		return fmt.Errorf("week start day %d out of range", day)
	}
	if err := s.kv.SetState(ctx, KeyWeekStartDay, strconv.Itoa(int(day))); err != nil {
		return fmt.Errorf("failed to write %s: %w", KeyWeekStartDay, err)
	}
	return nil
}

// InstallID returns the stable id used to seed composed reflections,
// creating one on first call.
func (s *Store) InstallID(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, KeyInstallID)
	if err != nil {
		return "", err
	}
	if ok {
		return strings.TrimSpace(raw), nil
	}
	id := uuid.NewString()
	if err := s.kv.SetState(ctx, KeyInstallID, id); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", KeyInstallID, err)
	}
	slog.Debug("ritual: install id created")
	return id, nil
}
