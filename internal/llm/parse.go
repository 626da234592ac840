package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	fallbackDepartment = "General"
	fallbackPriority   = "medium"
	fallbackCategory   = "general"
	maxTitleRunes      = 80
)

var priorityAliases = map[string]string{
	"low":      "low",
	"minor":    "low",
	"medium":   "medium",
	"normal":   "medium",
	"moderate": "medium",
	"high":     "high",
	"major":    "high",
	"urgent":   "urgent",
	"critical": "urgent",
}

// FallbackCategorization is substituted when categorization is unavailable.
func FallbackCategorization() Categorization {
	return Categorization{
		Department:   fallbackDepartment,
		Priority:     fallbackPriority,
		Category:     fallbackCategory,
		Tags:         []string{},
		ActionItems:  []string{},
		Stakeholders: []string{},
	}
}

// NormalizePriority maps model wording onto low|medium|high|urgent, defaulting to medium.
func NormalizePriority(raw string) string {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return p
	}
	return fallbackPriority
}

type rawCategorization struct {
	Department   string          `json:"department"`
	Priority     string          `json:"priority"`
	Category     string          `json:"category"`
	Tags         json.RawMessage `json:"tags"`
	ActionItems  json.RawMessage `json:"actionItems"`
	Deadline     *string         `json:"deadline"`
	Stakeholders json.RawMessage `json:"stakeholders"`
}

func parseCategorization(raw string, departments []string) (Categorization, error) {
	var parsed rawCategorization
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return Categorization{}, fmt.Errorf("categorization parse: %w", err)
	}

	out := FallbackCategorization()
	if d := matchDepartment(parsed.Department, departments); d != "" {
		out.Department = d
	}
	out.Priority = NormalizePriority(parsed.Priority)
	if c := strings.TrimSpace(parsed.Category); c != "" {
		out.Category = c
	}
	out.Tags = dedupeFold(stringList(parsed.Tags))
	out.ActionItems = stringList(parsed.ActionItems)
	out.Stakeholders = stringList(parsed.Stakeholders)
	if parsed.Deadline != nil {
		if d := strings.TrimSpace(*parsed.Deadline); d != "" && !strings.EqualFold(d, "null") {
			out.Deadline = &d
		}
	}
	return out, nil
}

// matchDepartment canonicalizes against the catalog case-insensitively. Names outside the
// catalog are kept since the department set is open.
func matchDepartment(raw string, departments []string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	for _, d := range departments {
		if strings.EqualFold(d, name) {
			return d
		}
	}
	return name
}

// stringList accepts a JSON array of strings or a single string and never returns nil.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			if s := strings.TrimSpace(single); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	for _, item := range list {
		var s string
		switch v := item.(type) {
		case string:
			s = v
		case float64, bool:
			s = fmt.Sprint(v)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupeFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// parseScores returns exactly n scores in [0,1]; missing or non-finite entries become 0.
func parseScores(raw string, n int) ([]float64, error) {
	var parsed struct {
		Scores []any `json:"scores"`
	}
	body := extractJSONObject(raw)
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		var bare []any
		if errArr := json.Unmarshal([]byte(strings.TrimSpace(raw)), &bare); errArr != nil {
			return nil, fmt.Errorf("similarity parse: %w", err)
		}
		parsed.Scores = bare
	}

	out := make([]float64, n)
	for i := 0; i < n && i < len(parsed.Scores); i++ {
		out[i] = clampScore(parsed.Scores[i])
	}
	return out, nil
}

func clampScore(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err != nil {
			return 0
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func cleanTitle(raw string) string {
	line := strings.TrimSpace(raw)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.TrimPrefix(line, "Title:")
	line = strings.Trim(strings.TrimSpace(line), "\"'`*#")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) > maxTitleRunes {
		line = strings.TrimSpace(string([]rune(line)[:maxTitleRunes]))
	}
	return line
}

// extractJSONObject strips Markdown fences or prose around the outermost JSON object.
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
