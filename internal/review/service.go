// Package review orchestrates the weekly reflection ritual on top of the
// decision store: insight snapshots, unlock evaluation, reflection generation
// with caching, gentle questions and the one-time previous-week grace.
//
// Every evaluation captures a single now from the service clock and derives
// all windows from it.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/Pondr/internal/composer"
	"github.com/BTreeMap/Pondr/internal/genai"
	"github.com/BTreeMap/Pondr/internal/insights"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/questions"
	"github.com/BTreeMap/Pondr/internal/reflection"
	"github.com/BTreeMap/Pondr/internal/ritual"
	"github.com/BTreeMap/Pondr/internal/store"
	"github.com/BTreeMap/Pondr/internal/unlock"
	"github.com/BTreeMap/Pondr/internal/window"
)

var (
	// ErrLocked means no new reflection may be generated now.
	ErrLocked = errors.New("reflection is locked")
	// ErrGraceUsed means the previous-week reflection was already spent.
	ErrGraceUsed = errors.New("previous-week reflection already used")
)

// Engine selects how reflection text is produced.
type Engine string

const (
	EngineTemplate Engine = "template"
	EngineComposer Engine = "composer"
	EngineRemote   Engine = "remote"
)

// ParseEngine accepts an engine name in any case. Empty means template.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineTemplate:
		return EngineTemplate, nil
	case EngineComposer:
		return EngineComposer, nil
	case EngineRemote:
		return EngineRemote, nil
	}
	return "", fmt.Errorf("unknown reflection engine %q", s)
}

// Outcome is the result of a reflection request.
type Outcome struct {
	State  unlock.State `json:"state"`
	Window window.Range `json:"window"`
	// Reflection is nil unless the state is cached or a reflection was generated.
	Reflection *ritual.Cache `json:"reflection,omitempty"`
	Summary    *Summary      `json:"summary,omitempty"`
}

// Service runs the reflection ritual. It is safe for use by one process at a time.
type Service struct {
	store      store.Store
	ritual     *ritual.Store
	selector   *questions.Selector
	reflector  genai.Reflector
	engine     Engine
	policy     unlock.Policy
	days       int
	weekStart  *time.Weekday
	historyMax int
	now        func() time.Time
}

// Opts holds configuration for the review service.
type Opts struct {
	Reflector  genai.Reflector
	Selector   *questions.Selector
	Engine     Engine
	Policy     unlock.Policy
	Days       int
	WeekStart  *time.Weekday
	HistoryMax int
	Clock      func() time.Time
}

// Option configures the review service.
type Option func(*Opts)

// WithReflector enables remote generation through r.
func WithReflector(r genai.Reflector) Option {
	return func(o *Opts) { o.Reflector = r }
}

// WithSelector overrides the gentle-question selector.
func WithSelector(s *questions.Selector) Option {
	return func(o *Opts) { o.Selector = s }
}

// WithEngine selects the reflection engine.
func WithEngine(e Engine) Option {
	return func(o *Opts) { o.Engine = e }
}

// WithPolicy selects the unlock policy.
func WithPolicy(p unlock.Policy) Option {
	return func(o *Opts) { o.Policy = p }
}

// WithDays sets the rolling window length in days.
func WithDays(days int) Option {
	return func(o *Opts) { o.Days = days }
}

// WithWeekStartDay overrides the persisted week start setting.
func WithWeekStartDay(day time.Weekday) Option {
	return func(o *Opts) { o.WeekStart = &day }
}

// WithHistoryMax bounds the gentle-question history.
func WithHistoryMax(n int) Option {
	return func(o *Opts) { o.HistoryMax = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// NewService builds a Service over st.
func NewService(st store.Store, opts ...Option) *Service {
	cfg := Opts{
		Engine:     EngineTemplate,
		Policy:     unlock.PolicyRolling,
		Days:       unlock.DefaultDays,
		HistoryMax: questions.DefaultHistoryMax,
		Clock:      time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Selector == nil {
		cfg.Selector = questions.NewSelector()
	}
	return &Service{
		store:      st,
		ritual:     ritual.New(st),
		selector:   cfg.Selector,
		reflector:  cfg.Reflector,
		engine:     cfg.Engine,
		policy:     cfg.Policy,
		days:       cfg.Days,
		weekStart:  cfg.WeekStart,
		historyMax: cfg.HistoryMax,
		now:        cfg.Clock,
	}
}

// Ritual exposes the ritual record store.
func (s *Service) Ritual() *ritual.Store { return s.ritual }

// ---- Decisions ----

// LogDecision validates draft and stores it as a new decision.
func (s *Service) LogDecision(ctx context.Context, draft models.DecisionDraft) (models.Decision, error) {
	now := s.now()
	d, err := models.NewDecision(uuid.NewString(), draft, now)
	if err != nil {
		return models.Decision{}, err
	}
	if err := s.store.CreateDecision(ctx, d); err != nil {
		return models.Decision{}, fmt.Errorf("failed to save decision: %w", err)
	}
	if _, err := s.ritual.EnsureFirstUseAt(ctx, now); err != nil {
		return models.Decision{}, fmt.Errorf("failed to record first use: %w", err)
	}
	slog.Debug("review decision logged", "id", d.ID, "category", d.Category)
	return d, nil
}

// EditDecision changes the title and why text of an existing decision.
func (s *Service) EditDecision(ctx context.Context, id string, edit models.DecisionEdit) (models.Decision, error) {
	d, err := s.store.GetDecision(ctx, id)
	if err != nil {
		return models.Decision{}, err
	}
	updated, err := d.ApplyEdit(edit, s.now())
	if err != nil {
		return models.Decision{}, err
	}
	if err := s.store.UpdateDecision(ctx, updated); err != nil {
		return models.Decision{}, fmt.Errorf("failed to update decision: %w", err)
	}
	slog.Debug("review decision edited", "id", id)
	return updated, nil
}

// GetDecision returns one decision by id.
func (s *Service) GetDecision(ctx context.Context, id string) (models.Decision, error) {
	return s.store.GetDecision(ctx, id)
}

// ListDecisions returns decisions newest first, optionally filtered by title.
func (s *Service) ListDecisions(ctx context.Context, search string, limit int) ([]models.Decision, error) {
	return s.store.ListDecisions(ctx, search, limit)
}

// ---- Settings ----

// WeekStartDay returns the configured override, else the persisted setting.
func (s *Service) WeekStartDay(ctx context.Context) (time.Weekday, error) {
	if s.weekStart != nil {
		return *s.weekStart, nil
	}
	return s.ritual.WeekStartDay(ctx)
}

// SetWeekStartDay persists the week start setting.
func (s *Service) SetWeekStartDay(ctx context.Context, day time.Weekday) error {
	return s.ritual.SetWeekStartDay(ctx, day)
}

// ---- Insights ----

// Insights builds the insight cards for the current moment.
func (s *Service) Insights(ctx context.Context) (insights.Snapshot, error) {
	now := s.now()
	ws, err := s.WeekStartDay(ctx)
	if err != nil {
		return insights.Snapshot{}, err
	}
	in, err := insights.Collect(ctx, s.store, now, ws)
	if err != nil {
		return insights.Snapshot{}, err
	}
	return insights.Build(in), nil
}

// WeekSummary summarizes the current calendar week.
func (s *Service) WeekSummary(ctx context.Context) (Summary, error) {
	now := s.now()
	ws, err := s.WeekStartDay(ctx)
	if err != nil {
		return Summary{}, err
	}
	w := window.CurrentWeek(now, ws)
	return s.summarize(ctx, now, w, previousRange(w, 7*window.Day))
}

// previousRange is the window of the given length ending where w starts.
func previousRange(w window.Range, length time.Duration) window.Range {
	return window.Range{Start: w.Start.Add(-length), End: w.Start}
}

// summarize reads the history for cur and for the disjoint window prev.
func (s *Service) summarize(ctx context.Context, now time.Time, cur, prev window.Range) (Summary, error) {
	in := SummaryInput{Now: now, Window: cur}
	var err error
	if in.Decisions, err = s.store.ListDecisionsInRange(ctx, cur.Start, cur.End); err != nil {
		return Summary{}, fmt.Errorf("failed to list window: %w", err)
	}
	if in.Previous, err = s.store.ListDecisionsInRange(ctx, prev.Start, prev.End); err != nil {
		return Summary{}, fmt.Errorf("failed to list previous window: %w", err)
	}
	if in.TotalCount, err = s.store.CountAll(ctx); err != nil {
		return Summary{}, fmt.Errorf("failed to count decisions: %w", err)
	}
	if in.FirstAt, err = s.store.FirstDecisionAt(ctx); err != nil {
		return Summary{}, fmt.Errorf("failed to read first decision time: %w", err)
	}
	recent := insights.RecentRange(now)
	if in.RecentCount, err = s.store.CountInRange(ctx, recent.Start, recent.End); err != nil {
		return Summary{}, fmt.Errorf("failed to count recent decisions: %w", err)
	}
	return Summarize(in), nil
}

// ---- Reflection ritual ----

// unlockInput gathers the ritual records for an evaluation at now.
func (s *Service) unlockInput(ctx context.Context, now time.Time, ws time.Weekday) (unlock.Input, *ritual.Cache, error) {
	in := unlock.Input{Now: now, Days: s.days, Policy: s.policy, WeekStartDay: ws}

	first, err := s.ritual.EnsureFirstUseAt(ctx, now)
	if err != nil {
		return unlock.Input{}, nil, err
	}
	in.FirstUseAt = &first

	last, ok, err := s.ritual.LastReflectionAt(ctx)
	if err != nil {
		return unlock.Input{}, nil, err
	}
	if ok {
		in.LastReflectionAt = &last
	}

	var cached *ritual.Cache
	c, ok, err := s.ritual.RollingCache(ctx)
	if err != nil {
		return unlock.Input{}, nil, err
	}
	if ok {
		cached = &c
		in.CachedGeneratedAt = &c.GeneratedAt
	}

	q := s.queryRange(unlock.ActiveWindow(in))
	n, err := s.store.CountInRange(ctx, q.Start, q.End)
	if err != nil {
		return unlock.Input{}, nil, fmt.Errorf("failed to count window: %w", err)
	}
	in.HasDecisionInWindow = n > 0
	return in, cached, nil
}

// queryRange converts an active window to a half-open store range. Rolling
// windows include now itself.
func (s *Service) queryRange(w window.Range) window.Range {
	if s.policy == unlock.PolicyWeekday {
		return w
	}
	return window.Range{Start: w.Start, End: w.End.Add(time.Millisecond)}
}

// Status evaluates the unlock state without generating anything.
func (s *Service) Status(ctx context.Context) (Outcome, error) {
	now := s.now()
	ws, err := s.WeekStartDay(ctx)
	if err != nil {
		return Outcome{}, err
	}
	in, cached, err := s.unlockInput(ctx, now, ws)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{State: unlock.Evaluate(in), Window: unlock.ActiveWindow(in)}
	if out.State.Kind == unlock.KindCached {
		out.Reflection = cached
	}
	return out, nil
}

// Reflect returns the cached reflection for the active window or, when
// unlocked, generates and caches a new one. A locked state is returned along
// with an error wrapping ErrLocked.
func (s *Service) Reflect(ctx context.Context) (Outcome, error) {
	now := s.now()
	ws, err := s.WeekStartDay(ctx)
	if err != nil {
		return Outcome{}, err
	}
	in, cached, err := s.unlockInput(ctx, now, ws)
	if err != nil {
		return Outcome{}, err
	}
	w := unlock.ActiveWindow(in)
	state := unlock.Evaluate(in)
	out := Outcome{State: state, Window: w}

	switch state.Kind {
	case unlock.KindCached:
		out.Reflection = cached
		return out, nil
	case unlock.KindUnlocked:
	default:
		return out, fmt.Errorf("%w: %s", ErrLocked, state.Kind)
	}

	days := in.Days
	if days <= 0 {
		days = unlock.DefaultDays
	}
	length := time.Duration(days) * window.Day
	if s.policy == unlock.PolicyWeekday {
		length = 7 * window.Day
	}
	sum, err := s.summarize(ctx, now, s.queryRange(w), previousRange(w, length))
	if err != nil {
		return Outcome{}, err
	}
	sum.Window = w
	c, questionID, err := s.generate(ctx, now, w, sum)
	if err != nil {
		return Outcome{}, err
	}

	if err := s.ritual.SetRollingCache(ctx, c); err != nil {
		return Outcome{}, err
	}
	if err := s.ritual.SetLastReflectionAt(ctx, now); err != nil {
		return Outcome{}, err
	}
	if err := s.recordQuestion(ctx, questionID); err != nil {
		return Outcome{}, err
	}
	slog.Info("review reflection generated", "window", w.String(), "source", c.Source, "decisions", sum.DecisionCount)
	out.Reflection = &c
	out.Summary = &sum
	return out, nil
}

// PreviousWeekReflection spends the one-time grace on the previous calendar
// week. Once generated the stored reflection is returned on later calls.
func (s *Service) PreviousWeekReflection(ctx context.Context) (Outcome, error) {
	now := s.now()
	ws, err := s.WeekStartDay(ctx)
	if err != nil {
		return Outcome{}, err
	}
	w := window.PreviousWeek(now, ws)
	out := Outcome{Window: w}

	if c, ok, err := s.ritual.PreviousWeekCache(ctx); err != nil {
		return Outcome{}, err
	} else if ok && c.Matches(w) {
		out.State = unlock.State{Kind: unlock.KindCached}
		out.Reflection = &c
		return out, nil
	}

	grace, err := s.ritual.PreviousWeekGrace(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if grace.Used {
		return out, ErrGraceUsed
	}

	sum, err := s.summarize(ctx, now, w, previousRange(w, 7*window.Day))
	if err != nil {
		return Outcome{}, err
	}
	if sum.DecisionCount == 0 {
		out.State = unlock.State{Kind: unlock.KindLockedData}
		return out, fmt.Errorf("%w: %s", ErrLocked, out.State.Kind)
	}

	c, questionID, err := s.generate(ctx, now, w, sum)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.ritual.SetPreviousWeekCache(ctx, c); err != nil {
		return Outcome{}, err
	}
	if err := s.ritual.SetPreviousWeekGrace(ctx, ritual.Grace{Used: true, UsedAt: &now}); err != nil {
		return Outcome{}, err
	}
	if err := s.recordQuestion(ctx, questionID); err != nil {
		return Outcome{}, err
	}
	slog.Info("review previous-week reflection generated", "window", w.String(), "source", c.Source)
	out.State = unlock.State{Kind: unlock.KindUnlocked}
	out.Reflection = &c
	out.Summary = &sum
	return out, nil
}

// ---- Generation ----

// generate produces reflection text for w with the configured engine. The
// returned question id, if any, is recorded by the caller once the
// reflection is stored.
func (s *Service) generate(ctx context.Context, now time.Time, w window.Range, sum Summary) (ritual.Cache, string, error) {
	c := ritual.Cache{WindowStart: w.Start, WindowEnd: w.End, GeneratedAt: now}

	if s.engine == EngineRemote && s.reflector != nil {
		if r, ok := s.generateRemote(ctx, sum); ok {
			c.ReflectionText = r.ReflectionText
			c.ObservedPatternText = r.ObservedPatternText
			c.GentleQuestionText = r.GentleQuestionText
			c.Source = string(EngineRemote)
			if c.GentleQuestionText != nil {
				return c, "", nil
			}
			sel, err := s.nextQuestion(ctx, sum)
			if err != nil || sel == nil {
				return c, "", err
			}
			c.GentleQuestionText = &sel.Text
			return c, sel.Question.ID, nil
		}
		composed, err := s.compose(ctx, c, sum)
		return composed, "", err
	}
	if s.engine == EngineComposer || s.engine == EngineRemote {
		composed, err := s.compose(ctx, c, sum)
		return composed, "", err
	}

	res := reflection.Reflect(sum.ReflectionInputs())
	c.ReflectionText = res.ReflectionText
	c.ObservedPatternText = res.ObservedPatternText
	c.Source = string(EngineTemplate)
	sel, err := s.nextQuestion(ctx, sum)
	if err != nil || sel == nil {
		return c, "", err
	}
	c.GentleQuestionText = &sel.Text
	return c, sel.Question.ID, nil
}

// generateRemote asks the reflector once and retries once in strict mode.
func (s *Service) generateRemote(ctx context.Context, sum Summary) (genai.Reflection, bool) {
	m := sum.RemoteMetrics()
	r, err := s.reflector.GenerateReflection(ctx, m, false)
	if err == nil {
		return r, true
	}
	slog.Warn("review remote reflection failed, retrying", "error", err)
	r, err = s.reflector.GenerateReflection(ctx, m, true)
	if err == nil {
		return r, true
	}
	slog.Warn("review remote reflection failed, falling back to composer", "error", err)
	return genai.Reflection{}, false
}

// compose fills c from the seeded composer. The observed pattern comes from
// the template bank and the question is embedded in the composed text.
func (s *Service) compose(ctx context.Context, c ritual.Cache, sum Summary) (ritual.Cache, error) {
	installID, err := s.ritual.InstallID(ctx)
	if err != nil {
		return ritual.Cache{}, err
	}
	comp := composer.Compose(installID, c.WindowStart, sum.ComposerMetrics())
	c.ReflectionText = comp.Text
	c.ObservedPatternText = reflection.Reflect(sum.ReflectionInputs()).ObservedPatternText
	c.Source = string(EngineComposer)
	return c, nil
}

// nextQuestion picks a gentle question for an active week. An empty week
// gets none.
func (s *Service) nextQuestion(ctx context.Context, sum Summary) (*questions.Selection, error) {
	if sum.DecisionCount == 0 {
		return nil, nil
	}
	h, err := s.ritual.QuestionHistory(ctx)
	if err != nil {
		return nil, err
	}
	sel, err := s.selector.Select(sum.QuestionPatterns(), h)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// recordQuestion moves id to the front of the question history.
func (s *Service) recordQuestion(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	h, err := s.ritual.QuestionHistory(ctx)
	if err != nil {
		return err
	}
	return s.ritual.SetQuestionHistory(ctx, questions.Next(h, id, s.historyMax))
}
