// Package scoring ranks knowledge-base conditions against reported symptoms.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/medtracker/internal/domain/model"
)

// Scorer ranks conditions by the share of their canonical symptoms present
// in the input. It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	conditions []model.Condition
	limit      int
}

// NewScorer creates a scorer over conditions, kept in declaration order.
// Canonical symptoms are lowercased once here.
func NewScorer(conditions []model.Condition, opts ...Option) *Scorer {
	s := &Scorer{
		conditions: make([]model.Condition, len(conditions)),
		limit:      DefaultLimit,
	}
	for i, c := range conditions {
		c = c.Clone()
		for j, sym := range c.Symptoms {
			c.Symptoms[j] = strings.ToLower(sym)
		}
		s.conditions[i] = c
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Limit returns the maximum number of results Score returns.
func (s *Scorer) Limit() int { return s.limit }

// Score ranks every condition against tokens and returns the best ones.
//
// score = matchCount / max(1, len(symptoms)), rounded half-to-even to two
// decimals. Results are ordered by score then matchCount, both descending;
// full ties keep declaration order.
func (s *Scorer) Score(tokens []string) []model.ScoredCondition {
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}

	results := make([]model.ScoredCondition, 0, len(s.conditions))
	for _, c := range s.conditions {
		matches := 0
		for _, sym := range c.Symptoms {
			if _, ok := present[sym]; ok {
				matches++
			}
		}
		results = append(results, model.ScoredCondition{
			Condition:  c.Clone(),
			Score:      round2(float64(matches) / float64(max(1, len(c.Symptoms)))),
			MatchCount: matches,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].MatchCount > results[j].MatchCount
	})

	if len(results) > s.limit {
		results = results[:s.limit]
	}
	return results
}

// Predict normalizes raw items and scores them.
func (s *Scorer) Predict(items []any) model.Prediction {
	input := Normalize(items)
	return model.Prediction{Input: input, Scored: s.Score(input)}
}

// PredictStrings is Predict for callers that already hold plain strings.
func (s *Scorer) PredictStrings(symptoms []string) model.Prediction {
	input := NormalizeStrings(symptoms)
	return model.Prediction{Input: input, Scored: s.Score(input)}
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
