// Package scoring converts finding lists into severity-weighted scores.
package scoring

import (
	"math"

	"github.com/proximodev/releasepass/internal/qa"
)

// Penalties maps a severity tier to its fixed score deduction.
type Penalties map[qa.Severity]int

// DefaultPenalties is the standard deduction table.
func DefaultPenalties() Penalties {
	return Penalties{
		qa.SeverityBlocker:  40,
		qa.SeverityCritical: 20,
		qa.SeverityHigh:     10,
		qa.SeverityMedium:   5,
		qa.SeverityLow:      2,
	}
}

// PenaltiesFromConfig builds a table from the string-keyed config map,
// falling back to the default for any missing tier.
func PenaltiesFromConfig(raw map[string]int) Penalties {
	p := DefaultPenalties()
	for k, v := range raw {
		p[qa.Severity(k)] = v
	}
	return p
}

// Scorer computes scores from finding lists. It is a pure value: the same
// findings always yield the same score.
type Scorer struct {
	penalties     Penalties
	passThreshold int
}

// NewScorer builds a Scorer. Nil penalties fall back to the default table; a
// non-positive threshold falls back to 50.
func NewScorer(penalties Penalties, passThreshold int) *Scorer {
	if penalties == nil {
		penalties = DefaultPenalties()
	}
	if passThreshold <= 0 {
		passThreshold = 50
	}
	return &Scorer{penalties: penalties, passThreshold: passThreshold}
}

// Score starts at 100 and subtracts the penalty for every non-ignored FAIL
// carrying a severity, clamped to [0,100].
func (s *Scorer) Score(items []qa.ResultItem) int {
	score := 100
	for _, item := range items {
		if item.Status != qa.ItemFail || item.Ignored || item.Severity == "" {
			continue
		}
		score -= s.penalties[item.Severity]
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// IsPassing reports whether a score clears the configured threshold.
func (s *Scorer) IsPassing(score int) bool {
	return score >= s.passThreshold
}

// IssueCount counts the non-ignored FAIL findings.
func IssueCount(items []qa.ResultItem) int {
	n := 0
	for _, item := range items {
		if item.Status == qa.ItemFail && !item.Ignored {
			n++
		}
	}
	return n
}

// Aggregate returns the mean of per-URL scores rounded to the nearest
// integer. Zero inputs report zero; callers treat that case as an
// operational failure before getting here.
func Aggregate(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(scores))))
}
