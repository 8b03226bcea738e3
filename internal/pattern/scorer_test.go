package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildledger/ledgerroute/internal/model"
)

func TestScorerSuggestsAboveThreshold(t *testing.T) {
	scorer := NewScorer(DefaultThreshold)
	txn := txnWithMemo("Lumber purchase")
	candidates := []model.Project{
		{ID: "proj-lumber", Name: "Lumber Co Renovation"},
		{ID: "proj-tower", Name: "Riverside Tower"},
	}

	suggestion := scorer.Score(txn, candidates)
	require.NotNil(t, suggestion)
	assert.Equal(t, "proj-lumber", suggestion.ProjectID)
	assert.GreaterOrEqual(t, suggestion.Score, DefaultThreshold)
	assert.LessOrEqual(t, suggestion.Score, 100)
}

func TestScorerBelowThresholdReturnsNil(t *testing.T) {
	scorer := NewScorer(DefaultThreshold)
	txn := txnWithMemo("Office snacks")
	candidates := []model.Project{
		{ID: "proj-tower", Name: "Riverside Tower"},
	}

	assert.Nil(t, scorer.Score(txn, candidates))
}

func TestScorerEmptyInputs(t *testing.T) {
	scorer := NewScorer(DefaultThreshold)

	assert.Nil(t, scorer.Score(txnWithMemo(""), []model.Project{{ID: "p", Name: "Anything"}}))
	assert.Nil(t, scorer.Score(txnWithMemo("lumber"), nil))
}

// Adding overlapping text must never lower the score.
func TestScorerMonotonicity(t *testing.T) {
	scorer := NewScorer(1)
	candidates := []model.Project{{ID: "proj-lumber", Name: "Lumber Co Renovation"}}

	narrow := scorer.Score(txnWithMemo("Lumber purchase"), candidates)
	wide := scorer.Score(txnWithMemo("Lumber renovation purchase"), candidates)

	require.NotNil(t, narrow)
	require.NotNil(t, wide)
	assert.GreaterOrEqual(t, wide.Score, narrow.Score)
}

func TestScorerDeterministicTieBreak(t *testing.T) {
	scorer := NewScorer(1)
	txn := txnWithMemo("lumber delivery")
	candidates := []model.Project{
		{ID: "proj-b", Name: "Lumber"},
		{ID: "proj-a", Name: "Lumber"},
	}

	for i := 0; i < 20; i++ {
		suggestion := scorer.Score(txn, candidates)
		require.NotNil(t, suggestion)
		assert.Equal(t, "proj-a", suggestion.ProjectID)
	}
}

func TestScorerUsesCounterpartyAndDescription(t *testing.T) {
	scorer := NewScorer(DefaultThreshold)
	txn := model.Transaction{
		ID:               "txn-1",
		CounterpartyName: "Riverside Tower LLC",
	}
	candidates := []model.Project{{ID: "proj-tower", Name: "Riverside Tower"}}

	suggestion := scorer.Score(txn, candidates)
	require.NotNil(t, suggestion)
	assert.Equal(t, "proj-tower", suggestion.ProjectID)
}

func TestTokenSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, tokenSimilarity("lumber", "lumber"), 0.001)
	// One edit across six runes clears the floor.
	assert.InDelta(t, 0.833, tokenSimilarity("lumber", "lumbar"), 0.01)
	// Unrelated tokens are floored to zero.
	assert.Zero(t, tokenSimilarity("lumber", "granite"))
	assert.Zero(t, tokenSimilarity("", "x"))
}

func TestScorerThresholdDefaulting(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewScorer(0).threshold)
	assert.Equal(t, 85, NewScorer(85).threshold)
}
