package pattern

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/buildledger/ledgerroute/internal/model"
)

// DefaultThreshold is the minimum score for a suggestion to be emitted.
const DefaultThreshold = 70

// fuzzyFloor is the per-token similarity below which two tokens are treated
// as unrelated. Keeps short tokens from picking up noise credit.
const fuzzyFloor = 0.7

// Suggestion is a scored project candidate for a transaction with no
// matching rule.
type Suggestion struct {
	ProjectID string
	Score     int
}

// Scorer produces similarity-based project suggestions when no rule matches.
type Scorer struct {
	threshold int
}

// NewScorer creates a scorer with the given suggestion threshold (0-100).
func NewScorer(threshold int) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{threshold: threshold}
}

// Score computes the best candidate for the transaction. It returns nil when
// no candidate reaches the threshold; the transaction then stays unrouted.
// Ties break toward the lexicographically smaller project id so repeated
// evaluations are deterministic.
func (s *Scorer) Score(txn model.Transaction, candidates []model.Project) *Suggestion {
	text := strings.Join([]string{txn.Memo, txn.CounterpartyName, txn.Description}, " ")
	txnTokens := tokenize(text)
	if len(txnTokens) == 0 {
		return nil
	}

	var best *Suggestion
	for _, project := range candidates {
		score := similarity(txnTokens, tokenize(project.Name+" "+project.Code))
		if score < s.threshold {
			continue
		}
		if best == nil || score > best.Score || (score == best.Score && project.ID < best.ProjectID) {
			best = &Suggestion{ProjectID: project.ID, Score: score}
		}
	}

	return best
}

// similarity scores transaction tokens against project tokens on a 0-100
// scale. Each project token contributes its best match against any
// transaction token (1.0 for an exact hit, a Levenshtein-derived fraction for
// near misses); the score blends the single best token hit with overall
// coverage. Improving any token's overlap can only raise both components, so
// the score is monotonic in textual overlap.
func similarity(txnTokens, projectTokens []string) int {
	if len(projectTokens) == 0 {
		return 0
	}

	var bestToken, total float64
	for _, pt := range projectTokens {
		var best float64
		for _, tt := range txnTokens {
			sim := tokenSimilarity(pt, tt)
			if sim > best {
				best = sim
			}
		}
		if best > bestToken {
			bestToken = best
		}
		total += best
	}

	coverage := total / float64(len(projectTokens))
	score := 100 * (0.6*bestToken + 0.4*coverage)
	return int(score + 0.5)
}

// tokenSimilarity compares two normalized tokens: 1 for equality, otherwise
// one minus the normalized Levenshtein distance, floored to zero below
// fuzzyFloor.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}

	sim := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	if sim < fuzzyFloor {
		return 0
	}
	return sim
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
