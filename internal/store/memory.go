package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
)

// InMemoryStore is a simple in-memory store used when no DSN is configured
// and in tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	decisions map[string]models.Decision
	state     map[string]string
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		decisions: make(map[string]models.Decision),
		state:     make(map[string]string),
	}
}

func cloneDecision(d models.Decision) models.Decision {
	d.SecondaryCategories = append([]models.Category{}, d.SecondaryCategories...)
	d.Tags = append([]string{}, d.Tags...)
	if d.WhyText != nil {
		w := *d.WhyText
		d.WhyText = &w
	}
	return d
}

// sorted returns every decision oldest first, ties broken by id.
func (s *InMemoryStore) sorted() []models.Decision {
	out := make([]models.Decision, 0, len(s.decisions))
	for _, d := range s.decisions {
		out = append(out, cloneDecision(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *InMemoryStore) inRange(start, end time.Time) []models.Decision {
	var out []models.Decision
	for _, d := range s.sorted() {
		if !d.CreatedAt.Before(start) && d.CreatedAt.Before(end) {
			out = append(out, d)
		}
	}
	return out
}

func newestFirst(ds []models.Decision) []models.Decision {
	for i, j := 0, len(ds)-1; i < j; i, j = i+1, j-1 {
		ds[i], ds[j] = ds[j], ds[i]
	}
	return ds
}

func (s *InMemoryStore) CreateDecision(_ context.Context, d models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[d.ID] = cloneDecision(d)
	slog.Debug("InMemoryStore CreateDecision succeeded", "id", d.ID)
	return nil
}

func (s *InMemoryStore) UpdateDecision(_ context.Context, d models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.decisions[d.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title = d.Title
	cur.WhyText = cloneDecision(d).WhyText
	cur.UpdatedAt = d.UpdatedAt
	s.decisions[d.ID] = cur
	return nil
}

func (s *InMemoryStore) GetDecision(_ context.Context, id string) (models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[id]
	if !ok {
		return models.Decision{}, ErrNotFound
	}
	return cloneDecision(d), nil
}

func (s *InMemoryStore) ListDecisions(_ context.Context, search string, limit int) ([]models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []models.Decision
	for _, d := range newestFirst(s.sorted()) {
		if needle != "" && !strings.Contains(strings.ToLower(d.Title), needle) {
			continue
		}
		out = append(out, d)
		if len(out) == listLimit(limit) {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListDecisionsInRange(_ context.Context, start, end time.Time) ([]models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inRange(start, end), nil
}

func (s *InMemoryStore) CountInRange(_ context.Context, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inRange(start, end)), nil
}

func (s *InMemoryStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decisions), nil
}

func (s *InMemoryStore) FirstDecisionAt(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sorted()
	if len(all) == 0 {
		return nil, nil
	}
	t := all[0].CreatedAt
	return &t, nil
}

func (s *InMemoryStore) LastDecisionAt(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sorted()
	if len(all) == 0 {
		return nil, nil
	}
	t := all[len(all)-1].CreatedAt
	return &t, nil
}

func (s *InMemoryStore) CategoryCountsInRange(_ context.Context, start, end time.Time) ([]models.CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CategoryCount
	idx := map[models.Category]int{}
	for _, d := range s.inRange(start, end) {
		i, ok := idx[d.Category]
		if !ok {
			i = len(out)
			idx[d.Category] = i
			out = append(out, models.CategoryCount{Category: d.Category})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (s *InMemoryStore) CategoryAverageConfidence(_ context.Context, start, end time.Time, minCount int) ([]models.CategoryStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats []models.CategoryStat
	idx := map[models.Category]int{}
	for _, d := range s.inRange(start, end) {
		i, ok := idx[d.Category]
		if !ok {
			i = len(stats)
			idx[d.Category] = i
			stats = append(stats, models.CategoryStat{Category: d.Category})
		}
		stats[i].Avg += float64(d.Confidence)
		stats[i].Count++
	}
	var out []models.CategoryStat
	for _, st := range stats {
		if st.Count < minCount {
			continue
		}
		st.Avg /= float64(st.Count)
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Avg > out[j].Avg })
	return out, nil
}

func (s *InMemoryStore) RecentDecisions(_ context.Context, limit int) ([]models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := newestFirst(s.sorted())
	if n := listLimit(limit); len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *InMemoryStore) GetState(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok, nil
}

func (s *InMemoryStore) SetState(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
	return nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }

// compile-time interface checks
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
