package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevenshteinDistance(t *testing.T) {
	require.Equal(t, 0, LevenshteinDistance("Workout", "workout"))
	require.Equal(t, 1, LevenshteinDistance("workot", "workout"))
	require.Equal(t, 3, LevenshteinDistance("", "abc"))
	require.Equal(t, 0, LevenshteinDistance("più", "piu"))
}

func TestMatchKeywordToleratesTypos(t *testing.T) {
	require.True(t, MatchKeyword("I feel so STRESSED today", "stressed"))
	require.True(t, MatchKeyword("went to the gym, feeling exausted", "exhausted"))
	require.True(t, MatchKeyword("my weekly reprt please", "report"))
	// short keywords need an exact hit
	require.False(t, MatchKeyword("I ran", "run"))
	require.False(t, MatchKeyword("hello there", ""))
}

func TestMatchAnyReturnsFirstHit(t *testing.T) {
	k, ok := MatchAny("how was my week?", []string{"report", "week"})
	require.True(t, ok)
	require.Equal(t, "week", k)

	_, ok = MatchAny("good morning", []string{"report", "week"})
	require.False(t, ok)
}

func TestCountMatchesWeighsExactWords(t *testing.T) {
	exact := CountMatches("training run today", []string{"training"})
	partial := CountMatches("pretraining", []string{"training"})
	fuzzy := CountMatches("trainin session", []string{"training"})
	require.Greater(t, exact, partial)
	require.Greater(t, partial, fuzzy)
	require.Zero(t, CountMatches("nothing here", []string{"training"}))
}
