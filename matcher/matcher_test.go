package matcher

import (
	"testing"

	"voicecmd/model"

	"github.com/stretchr/testify/require"
)

type staticSource []model.Command

func (s staticSource) List() []model.Command { return s }

func commands(phrases ...string) staticSource {
	out := make(staticSource, len(phrases))
	for i, p := range phrases {
		out[i] = model.Command{ID: p, Phrase: p, Type: model.TypeKeyboard, Action: p}
	}
	return out
}

func TestEmptyInputMatchesNothing(t *testing.T) {
	m := New(commands("mute"), Options{})

	_, ok := m.FindMatchingCommand("")
	require.False(t, ok)
	_, ok = m.FindMatchingCommand("   \t")
	require.False(t, ok)
}

func TestExactMatchIsCaseAndSpaceInsensitive(t *testing.T) {
	m := New(commands("Open Browser"), Options{})

	r, ok := m.Match("  open BROWSER ")
	require.True(t, ok)
	require.Equal(t, Exact, r.Strategy)
	require.Equal(t, "Open Browser", r.Command.Phrase)
}

func TestExactBeatsEarlierFuzzyCandidate(t *testing.T) {
	m := New(commands("volume upp", "volume up"), Options{})

	r, ok := m.Match("volume up")
	require.True(t, ok)
	require.Equal(t, Exact, r.Strategy)
	require.Equal(t, "volume up", r.Command.Phrase)
}

func TestSubstringFollowsListingOrder(t *testing.T) {
	r, ok := New(commands("play music", "play"), Options{}).Match("please play music now")
	require.True(t, ok)
	require.Equal(t, Substring, r.Strategy)
	require.Equal(t, "play music", r.Command.Phrase)

	r, ok = New(commands("play", "play music"), Options{}).Match("please play music now")
	require.True(t, ok)
	require.Equal(t, Substring, r.Strategy)
	require.Equal(t, "play", r.Command.Phrase)
}

func TestSubstringBeatsFuzzy(t *testing.T) {
	m := New(commands("mutes", "mute"), Options{})

	r, ok := m.Match("mute it")
	require.True(t, ok)
	require.Equal(t, Substring, r.Strategy)
	require.Equal(t, "mute", r.Command.Phrase)
}

func TestFuzzyThreshold(t *testing.T) {
	m := New(commands("volume up"), Options{Strategies: []Strategy{Fuzzy}})

	r, ok := m.Match("volume ups")
	require.True(t, ok)
	require.Equal(t, Fuzzy, r.Strategy)
	require.InDelta(t, 0.9, r.Score, 1e-9)

	_, ok = m.Match("turn it up")
	require.False(t, ok)
}

func TestFuzzyReturnsFirstAboveThresholdNotBest(t *testing.T) {
	m := New(commands("volume dow", "volume down"), Options{})

	r, ok := m.Match("volume dawn")
	require.True(t, ok)
	require.Equal(t, Fuzzy, r.Strategy)
	require.Equal(t, "volume dow", r.Command.Phrase)
}

func TestDefaultPipelineFindsMisheardPhrase(t *testing.T) {
	m := New(commands("mute", "volume up"), Options{})

	cmd, ok := m.FindMatchingCommand("volume upp")
	require.True(t, ok)
	require.Equal(t, "volume up", cmd.Phrase)
}

func TestConfigurableThresholdAndOrder(t *testing.T) {
	src := commands("volume up")

	strict, loose, zero := 0.95, 0.5, 0.0
	_, ok := New(src, Options{Threshold: &strict}).Match("volume op")
	require.False(t, ok)

	_, ok = New(src, Options{Threshold: &loose}).Match("volume op")
	require.True(t, ok)

	_, ok = New(src, Options{}).Match("turn it down please")
	require.False(t, ok)

	r, ok := New(src, Options{Threshold: &zero}).Match("turn it down please")
	require.True(t, ok)
	require.Equal(t, Fuzzy, r.Strategy)

	m := New(commands("play", "play musik"), Options{Strategies: []Strategy{Exact, Fuzzy, Substring}})
	r, ok = m.Match("play music")
	require.True(t, ok)
	require.Equal(t, Fuzzy, r.Strategy)
	require.Equal(t, "play musik", r.Command.Phrase)
}

func TestParseStrategy(t *testing.T) {
	st, err := ParseStrategy(" Fuzzy")
	require.NoError(t, err)
	require.Equal(t, Fuzzy, st)

	_, err = ParseStrategy("phonetic")
	require.Error(t, err)
}
