package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/Pondr/internal/confidence"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/tone"
)

// ReflectionSystemPrompt frames every reflection request.
const ReflectionSystemPrompt = "You are a careful, non-judgmental reflection writer."

const limitedDataNote = "With limited data, this is just a snapshot."

var (
	// ErrMalformedReflection means the response was not the expected JSON object.
	ErrMalformedReflection = errors.New("malformed reflection response")
	// ErrBannedLanguage means the response contained prescriptive wording.
	ErrBannedLanguage = errors.New("reflection contains banned language")
)

// ReflectionMetrics is the bundle sent to the model. Nothing outside it may
// appear in the reflection.
type ReflectionMetrics struct {
	WindowStart        time.Time
	WindowEnd          time.Time
	DecisionCount      int
	FocusInsight       string
	MostCommonCategory models.Category
	AvgConfidence      *float64
	Trend              models.Trend
	Direction          models.DirectionStatus
	NotablePatterns    []string
}

// Reflection is a parsed model answer.
type Reflection struct {
	ReflectionText      string  `json:"reflection"`
	ObservedPatternText string  `json:"observedPattern"`
	GentleQuestionText  *string `json:"question"`
}

// Reflector generates reflections remotely.
type Reflector interface {
	GenerateReflection(ctx context.Context, m ReflectionMetrics, strict bool) (Reflection, error)
}

// BuildReflectionPrompt renders the user message for m. strict adds the final
// banned-word check used on retries.
func BuildReflectionPrompt(m ReflectionMetrics, strict bool) string {
	dash := "—"
	category := dash
	if m.MostCommonCategory != "" {
		category = m.MostCommonCategory.Label()
	}
	avg := dash
	if m.AvgConfidence != nil {
		avg = strconv.FormatFloat(*m.AvgConfidence, 'f', 1, 64)
	}
	focus := m.FocusInsight
	if focus == "" {
		focus = dash
	}
	patterns := dash
	if len(m.NotablePatterns) > 0 {
		patterns = strings.Join(m.NotablePatterns, " | ")
	}

	var b strings.Builder
	b.WriteString("Write a short weekly reflection about a person's logged decisions.\n\n")
	b.WriteString(tone.BuildGuardGuide(strict))
	b.WriteString("\nOUTPUT FORMAT:\n")
	b.WriteString("Return ONLY valid JSON with this shape and nothing else:\n")
	b.WriteString(`{"reflection":"...","observedPattern":"...","question":null | "..."}` + "\n")
	b.WriteString("\nCONTENT REQUIREMENTS:\n")
	b.WriteString("- reflection: 3–5 sentences, calm and descriptive.\n")
	b.WriteString("- observedPattern: exactly 1 sentence naming one pattern from the metrics.\n")
	b.WriteString("- question: optional, one open reflective question, or null.\n")
	if m.DecisionCount <= 2 {
		b.WriteString("- Mention once: \"" + limitedDataNote + "\"\n")
	}
	b.WriteString("\nWINDOW:\n")
	b.WriteString("Start: " + m.WindowStart.Format(time.RFC3339) + "\n")
	b.WriteString("End: " + m.WindowEnd.Format(time.RFC3339) + "\n")
	b.WriteString("\nMETRICS:\n")
	fmt.Fprintf(&b, "- Decisions logged: %d\n", m.DecisionCount)
	b.WriteString("- Focus insight: " + focus + "\n")
	b.WriteString("- Most common category: " + category + "\n")
	b.WriteString("- Avg confidence: " + avg + "\n")
	b.WriteString("- Confidence trend: " + confidence.TrendCopy(m.Trend) + "\n")
	b.WriteString("- Direction: " + confidence.CopyForDirection(m.Direction).Title + "\n")
	b.WriteString("- Notable patterns: " + patterns + "\n")
	return b.String()
}

// ParseReflection decodes a model answer. Code fences around the JSON are
// tolerated; an empty reflection or pattern is an error and a blank question
// becomes nil.
func ParseReflection(raw string) (Reflection, error) {
	body := strings.TrimSpace(raw)
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}
	var r Reflection
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return Reflection{}, fmt.Errorf("%w: %v", ErrMalformedReflection, err)
	}
	r.ReflectionText = strings.TrimSpace(r.ReflectionText)
	r.ObservedPatternText = strings.TrimSpace(r.ObservedPatternText)
	if r.ReflectionText == "" || r.ObservedPatternText == "" {
		return Reflection{}, fmt.Errorf("%w: missing reflection or observedPattern", ErrMalformedReflection)
	}
	if r.GentleQuestionText != nil {
		q := strings.TrimSpace(*r.GentleQuestionText)
		if q == "" {
			r.GentleQuestionText = nil
		} else {
			r.GentleQuestionText = &q
		}
	}
	return r, nil
}

// Texts returns every non-empty text field of r.
func (r Reflection) Texts() []string {
	out := []string{r.ReflectionText, r.ObservedPatternText}
	if r.GentleQuestionText != nil {
		out = append(out, *r.GentleQuestionText)
	}
	return out
}

// GenerateReflection asks the model for a reflection over m. A response with
// banned wording is rejected with ErrBannedLanguage.
func (c *Client) GenerateReflection(ctx context.Context, m ReflectionMetrics, strict bool) (Reflection, error) {
	raw, err := c.GeneratePromptWithContext(ctx, ReflectionSystemPrompt, BuildReflectionPrompt(m, strict))
	if err != nil {
		return Reflection{}, err
	}
	r, err := ParseReflection(raw)
	if err != nil {
		return Reflection{}, err
	}
	if texts := r.Texts(); tone.ContainsBanned(texts...) {
		v := tone.Violations(strings.Join(texts, "\n"))
		return Reflection{}, fmt.Errorf("%w: %s", ErrBannedLanguage, strings.Join(v, ", "))
	}
	return r, nil
}

var _ Reflector = (*Client)(nil)
