package ai

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Review is the structured shape the collaborator is prompted to emit.
type Review struct {
	Score           int      `json:"score"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Suggestions     []string `json:"suggestions"`
	BestPractices   []string `json:"bestPractices"`
	PotentialIssues []string `json:"potentialIssues"`
	Summary         string   `json:"summary"`
}

const fallbackScore = 75

// ParseReview extracts the structured review from raw model output.
// Models wrap JSON in markdown fences or prose more often than not, so
// the object is located leniently before unmarshaling. When no valid
// review object can be recovered the fallback contract applies: a
// default-scored review carrying the raw text as its only suggestion
// and summary. This never fails.
func ParseReview(raw string) Review {
	if candidate, ok := extractJSON(raw); ok {
		var rv Review
		if err := json.Unmarshal([]byte(candidate), &rv); err == nil {
			normalize(&rv, raw)
			return rv
		}
	}
	return Review{
		Score:           fallbackScore,
		Strengths:       []string{},
		Improvements:    []string{},
		Suggestions:     []string{raw},
		BestPractices:   []string{},
		PotentialIssues: []string{},
		Summary:         raw,
	}
}

// extractJSON finds the review object in raw: as-is, inside a ```json
// fence, or as the widest brace-delimited substring.
func extractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if fenced, ok := stripFence(s); ok {
		s = fenced
	}
	if gjson.Valid(s) && gjson.Parse(s).IsObject() {
		return s, true
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		inner := s[start : end+1]
		if gjson.Valid(inner) && gjson.Parse(inner).IsObject() {
			return inner, true
		}
	}
	return "", false
}

func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s), true
}

// normalize keeps the parsed review presentable: nil slices become
// empty ones and a missing summary falls back to the raw text.
func normalize(rv *Review, raw string) {
	if rv.Strengths == nil {
		rv.Strengths = []string{}
	}
	if rv.Improvements == nil {
		rv.Improvements = []string{}
	}
	if rv.Suggestions == nil {
		rv.Suggestions = []string{}
	}
	if rv.BestPractices == nil {
		rv.BestPractices = []string{}
	}
	if rv.PotentialIssues == nil {
		rv.PotentialIssues = []string{}
	}
	if rv.Summary == "" {
		rv.Summary = raw
	}
}
