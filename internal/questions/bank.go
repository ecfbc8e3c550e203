package questions

import "strconv"

// Bucket groups questions that fit one weekly pattern.
type Bucket string

const (
	BucketLowData            Bucket = "LOW_DATA"
	BucketDirectionGrowing   Bucket = "DIRECTION_GROWING"
	BucketDirectionStable    Bucket = "DIRECTION_STABLE"
	BucketDirectionDrifting  Bucket = "DIRECTION_DRIFTING"
	BucketConfidenceTrend    Bucket = "CONFIDENCE_TREND"
	BucketCategoryFocus      Bucket = "CATEGORY_FOCUS"
	BucketCategoryConfidence Bucket = "CATEGORY_CONFIDENCE"
)

// Question is one reflective prompt. Text may contain {Category}.
type Question struct {
	ID     string `json:"id"`
	Bucket Bucket `json:"bucket"`
	Text   string `json:"text"`
}

// Bank maps each bucket to its fixed question pool.
type Bank map[Bucket][]Question

func bucket(b Bucket, texts ...string) []Question {
	out := make([]Question, len(texts))
	for i, text := range texts {
		out[i] = Question{ID: string(b) + "_" + strconv.Itoa(i+1), Bucket: b, Text: text}
	}
	return out
}

// DefaultBank is the packaged question set.
var DefaultBank = Bank{
	BucketLowData: bucket(BucketLowData,
		"Even with only a few decisions logged, what stands out to you?",
		"What do you notice about how these recent choices felt?",
		"What made these decisions feel worth writing down?",
		"How did you feel while making these choices?",
		"What feels most noticeable about this week so far?",
	),
	BucketDirectionGrowing: bucket(BucketDirectionGrowing,
		"What seems to support feeling confident in your recent decisions?",
		"What do these recent choices say about what is working right now?",
		"What feels steady or supportive about the way you have been deciding lately?",
		"What helps decisions feel clearer during weeks like this one?",
	),
	BucketDirectionStable: bucket(BucketDirectionStable,
		"What feels consistent about the way you have been making decisions recently?",
		"What do these patterns suggest about your current pace?",
		"What feels familiar or steady about your recent choices?",
		"What tends to help keep a sense of balance in weeks like this one?",
	),
	BucketDirectionDrifting: bucket(BucketDirectionDrifting,
		"What do you notice when decisions feel less certain?",
		"What seems to shape how steady decisions feel during busier periods?",
		"What feels most demanding about making choices right now?",
		"What tends to affect clarity when things feel unsettled?",
	),
	BucketConfidenceTrend: bucket(BucketConfidenceTrend,
		"What tends to influence how confident decisions feel over time?",
		"What feels different when confidence shifts from week to week?",
		"What usually supports confidence when it runs higher?",
		"What do you notice when confidence feels more mixed?",
		"What seems to shape how sure or unsure decisions feel lately?",
	),
	BucketCategoryFocus: bucket(BucketCategoryFocus,
		"When decisions involve {Category}, what tends to matter most to you?",
		"What stands out about how you approach decisions related to {Category}?",
		"What feels important when choices span different areas of life?",
		"How do priorities shift when decisions touch several areas at once?",
	),
	BucketCategoryConfidence: bucket(BucketCategoryConfidence,
		"What tends to make decisions about {Category} feel clearer?",
		"What feels different when decisions involve {Category}?",
		"What do you notice about how confidence varies across different areas?",
		"What influences how certain decisions feel depending on the context?",
	),
}

// AllText returns every question text in the bank.
func (b Bank) AllText() []string {
	var out []string
	for _, qs := range b {
		for _, q := range qs {
			out = append(out, q.Text)
		}
	}
	return out
}
