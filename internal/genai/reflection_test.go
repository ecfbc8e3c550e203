package genai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BTreeMap/Pondr/internal/models"
)

func sampleMetrics() ReflectionMetrics {
	avg := 3.5
	return ReflectionMetrics{
		WindowStart:        time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		WindowEnd:          time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		DecisionCount:      5,
		FocusInsight:       "Most of your decisions this week were about Health.",
		MostCommonCategory: models.CategoryHealth,
		AvgConfidence:      &avg,
		Trend:              models.TrendUp,
		Direction:          models.DirectionStable,
		NotablePatterns:    []string{"Health and Career overlapped", "tag: sleep"},
	}
}

func TestBuildReflectionPrompt(t *testing.T) {
	p := BuildReflectionPrompt(sampleMetrics(), false)
	for _, want := range []string{
		"CRITICAL BOUNDARIES",
		"OUTPUT FORMAT",
		`"observedPattern"`,
		"Decisions logged: 5",
		"Most common category: Health",
		"Avg confidence: 3.5",
		"Confidence has been trending up recently.",
		"Your current direction looks Stable.",
		"Health and Career overlapped | tag: sleep",
		"Start: 2026-01-05T00:00:00Z",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "FINAL CHECK") {
		t.Error("non-strict prompt should not carry the final check")
	}
	if strings.Contains(p, limitedDataNote) {
		t.Error("limited data note should only appear for small counts")
	}
}

func TestBuildReflectionPrompt_StrictAndLowData(t *testing.T) {
	m := ReflectionMetrics{DecisionCount: 1, Trend: models.TrendNA, Direction: models.DirectionStable}
	p := BuildReflectionPrompt(m, true)
	if !strings.Contains(p, "FINAL CHECK") {
		t.Error("strict prompt missing final check")
	}
	if !strings.Contains(p, limitedDataNote) {
		t.Error("low data prompt missing snapshot note")
	}
	for _, want := range []string{"Most common category: —", "Avg confidence: —", "Notable patterns: —", "Focus insight: —"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParseReflection(t *testing.T) {
	r, err := ParseReflection("```json\n{\"reflection\":\" A calm week. \",\"observedPattern\":\"Health led.\",\"question\":\"  \"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ReflectionText != "A calm week." || r.ObservedPatternText != "Health led." {
		t.Errorf("unexpected parse: %+v", r)
	}
	if r.GentleQuestionText != nil {
		t.Errorf("blank question should be nil")
	}

	r, err = ParseReflection(`{"reflection":"a","observedPattern":"b","question":"What stood out?"}`)
	if err != nil || r.GentleQuestionText == nil || *r.GentleQuestionText != "What stood out?" {
		t.Errorf("question not kept: %+v, %v", r, err)
	}

	for _, bad := range []string{"not json", `{"reflection":"","observedPattern":"b"}`, `{"reflection":"a"}`} {
		if _, err := ParseReflection(bad); !errors.Is(err, ErrMalformedReflection) {
			t.Errorf("ParseReflection(%q) = %v, want ErrMalformedReflection", bad, err)
		}
	}
}

func TestGenerateReflection(t *testing.T) {
	mock := &mockChatService{resp: reply(`{"reflection":"You logged five decisions.","observedPattern":"Health came up most.","question":null}`)}
	client := &Client{chat: mock, model: DefaultModel}
	r, err := client.GenerateReflection(context.Background(), sampleMetrics(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ReflectionText != "You logged five decisions." {
		t.Errorf("unexpected reflection %q", r.ReflectionText)
	}
	if len(mock.params) != 1 || len(mock.params[0].Messages) != 2 {
		t.Fatalf("unexpected calls: %d", len(mock.params))
	}
}

func TestGenerateReflection_BannedLanguage(t *testing.T) {
	mock := &mockChatService{resp: reply(`{"reflection":"You should rest more.","observedPattern":"Health came up most.","question":null}`)}
	client := &Client{chat: mock, model: DefaultModel}
	_, err := client.GenerateReflection(context.Background(), sampleMetrics(), false)
	if !errors.Is(err, ErrBannedLanguage) {
		t.Fatalf("expected ErrBannedLanguage, got %v", err)
	}
}

func TestGenerateReflection_BannedStemInsideWord(t *testing.T) {
	for _, body := range []string{
		`{"reflection":"Your avoidance of career choices stood out.","observedPattern":"Career came up most.","question":null}`,
		`{"reflection":"A calm week.","observedPattern":"Retrying later may help.","question":null}`,
		`{"reflection":"A calm week.","observedPattern":"Money came up most.","question":"What felt fixated?"}`,
	} {
		client := &Client{chat: &mockChatService{resp: reply(body)}, model: DefaultModel}
		if _, err := client.GenerateReflection(context.Background(), sampleMetrics(), false); !errors.Is(err, ErrBannedLanguage) {
			t.Errorf("expected ErrBannedLanguage for %s, got %v", body, err)
		}
	}
}

func TestGenerateReflection_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("down")}}
	if _, err := client.GenerateReflection(context.Background(), sampleMetrics(), false); err == nil {
		t.Fatal("expected error")
	}
}
