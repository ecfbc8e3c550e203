// Package tone guards generated reflection text against prescriptive or
// judgmental language and builds the boundary snippet injected into remote
// generation prompts.
package tone

import "strings"

// ---- Banned vocabulary ----

// BannedWords is the fixed list of stems a reflection must never contain.
var BannedWords = []string{"should", "try", "avoid", "fix", "improve"}

// ---- Public API ----

// Violations returns the banned stems found in text, in BannedWords order.
// Matching is case-insensitive and counts a stem anywhere inside a word, so
// "avoidance", "retrying" and "entry" are all hits.
func Violations(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, w := range BannedWords {
		if strings.Contains(lower, w) {
			out = append(out, w)
		}
	}
	return out
}

// ContainsBanned reports whether any of texts contains a banned stem.
func ContainsBanned(texts ...string) bool {
	for _, t := range texts {
		if len(Violations(t)) > 0 {
			return true
		}
	}
	return false
}

// BuildGuardGuide produces the boundary rules injected into a generation
// prompt. strict appends the final-check line used on retries.
func BuildGuardGuide(strict bool) string {
	var b strings.Builder
	b.WriteString("CRITICAL BOUNDARIES:\n")
	b.WriteString("- Only describe the patterns in the METRICS below.\n")
	b.WriteString("- Never recommend actions.\n")
	b.WriteString("- Never judge.\n")
	b.WriteString("- Never use the words: " + strings.Join(BannedWords, ", ") + ".\n")
	b.WriteString("- Ask at most one reflective question.\n")
	if strict {
		b.WriteString("\nFINAL CHECK: If you would include any banned words, remove them and keep the tone descriptive only.\n")
	}
	return b.String()
}
