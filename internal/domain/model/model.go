// Package model contains domain models passed between layers.
package model

// Condition is one entry of the knowledge base. Symptoms are canonical,
// lowercase tokens matched exactly against normalized input.
type Condition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Causes      string   `json:"causes" yaml:"causes"`
	Symptoms    []string `json:"symptoms" yaml:"symptoms"`
	Meds        []string `json:"meds" yaml:"meds"`
}

// Clone returns a deep copy so callers cannot mutate shared slices.
// Missing lists come back empty, never nil, so they encode as [].
func (c Condition) Clone() Condition {
	c.Symptoms = cloneStrings(c.Symptoms)
	c.Meds = cloneStrings(c.Meds)
	return c
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// ScoredCondition is a Condition annotated with how well it matched.
type ScoredCondition struct {
	Condition
	Score      float64 `json:"score"`
	MatchCount int     `json:"matchCount"`
}

// Prediction is the result of scoring one symptom list.
type Prediction struct {
	Input  []string          `json:"input"`
	Scored []ScoredCondition `json:"scored"`
}

// HistoryEntry is a persisted past query.
type HistoryEntry struct {
	Query string `json:"query"`
	When  string `json:"when"`
	Top   string `json:"top"`
}
