package spdxer

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	// suggestCutoff is the minimum similarity ratio for a catalog identifier
	// to be offered as a correction.
	suggestCutoff = 0.6
	// suggestLimit caps how many suggestions a lookup miss carries.
	suggestLimit = 5
)

// Suggester ranks catalog identifiers that resemble a misspelled lookup.
// Both strategies satisfy the same contract; which one a catalog uses is
// decided at construction time.
type Suggester interface {
	Suggest(id string) []string
}

// suggestParams zeroes out scores below the cutoff so near-misses never rank.
var suggestParams = levenshtein.NewParams().MinScore(suggestCutoff)

// similaritySuggester ranks by edit-distance similarity, descending, with
// ties broken by catalog order.
type similaritySuggester struct {
	ids []string
}

// NewSimilaritySuggester returns the primary suggestion strategy.
func NewSimilaritySuggester(ids []string) Suggester {
	return &similaritySuggester{ids: ids}
}

func (s *similaritySuggester) Suggest(id string) []string {
	type scored struct {
		id    string
		score float64
	}

	var candidates []scored
	for _, candidate := range s.ids {
		score := levenshtein.Similarity(id, candidate, suggestParams)
		if score >= suggestCutoff {
			candidates = append(candidates, scored{id: candidate, score: score})
		}
	}

	// Stable sort keeps catalog order for equal scores
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > suggestLimit {
		candidates = candidates[:suggestLimit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

// substringSuggester is the fallback strategy: case-insensitive containment
// in either direction, catalog order preserved.
type substringSuggester struct {
	ids []string
}

// NewSubstringSuggester returns the fallback suggestion strategy.
func NewSubstringSuggester(ids []string) Suggester {
	return &substringSuggester{ids: ids}
}

func (s *substringSuggester) Suggest(id string) []string {
	lower := strings.ToLower(id)
	var out []string
	for _, candidate := range s.ids {
		cl := strings.ToLower(candidate)
		if strings.Contains(cl, lower) || strings.Contains(lower, cl) {
			out = append(out, candidate)
			if len(out) == suggestLimit {
				break
			}
		}
	}
	return out
}
