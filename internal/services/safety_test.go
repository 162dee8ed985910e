package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterInputAllowsNormalText(t *testing.T) {
	v := FilterInput("can I book a haircut for tomorrow at 2pm?")
	require.True(t, v.Allowed)
	require.Empty(t, v.BlockedTerms)
}

func TestFilterInputBlocksRestrictedTerms(t *testing.T) {
	v := FilterInput("is your botox fda approved?")
	require.False(t, v.Allowed)
	require.Contains(t, v.BlockedTerms, "fda approved")
}

func TestFilterInputCatchesHomoglyphBypass(t *testing.T) {
	// "gu4r4nteed" folds back to "guaranteed".
	v := FilterInput("is the treatment gu4r4nteed to work")
	require.False(t, v.Allowed)
	require.Contains(t, v.BlockedTerms, "guaranteed (bypass)")
}

func TestFilterInputCatchesSeparatorPadding(t *testing.T) {
	v := FilterInput("this m.i.r.a.c.l.e product")
	require.False(t, v.Allowed)
	require.Contains(t, v.BlockedTerms, "miracle (bypass)")
}

func TestFilterOutputPassesCleanText(t *testing.T) {
	v := FilterOutput("Our keratin treatment leaves hair smooth for weeks.")
	require.True(t, v.Safe)
	require.False(t, v.Substituted)
	require.Equal(t, "Our keratin treatment leaves hair smooth for weeks.", v.Filtered)
}

func TestFilterOutputSubstitutesSalvageablePhrases(t *testing.T) {
	v := FilterOutput("This serum cures split ends.")
	require.True(t, v.Safe)
	require.True(t, v.Substituted)
	require.Equal(t, "This serum may improve the appearance of split ends.", v.Filtered)
}

func TestFilterOutputFallsBackWhenRestrictedContentSurvives(t *testing.T) {
	// "fda approved" has no safe substitution, so the whole text is replaced.
	v := FilterOutput("Our fillers are fda approved and very popular.")
	require.False(t, v.Safe)
	require.Equal(t, SafeFallbackReply, v.Filtered)
	require.Contains(t, v.BlockedTerms, "fda approved")
}

func TestSafeFallbackReplyPassesTheBattery(t *testing.T) {
	require.Empty(t, scanBattery(SafeFallbackReply))
}
