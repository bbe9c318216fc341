package similarity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "", 0},
		{"volume up", "volume up", 1},
		{"volume up", "volume ups", 0.9},
		{"kitten", "sitting", 1 - 3.0/7},
		{"Mute", "mute", 0.75},
		{"café", "cafe", 0.75},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, Score(tc.a, tc.b), 1e-9, "%q vs %q", tc.a, tc.b)
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []string{"", "a", "mute", "volume up", "turn it up", "открыть браузер", "zzzzzzzzzzzz"}
	for _, a := range inputs {
		require.Equal(t, 1.0, Score(a, a))
		for _, b := range inputs {
			s := Score(a, b)
			require.GreaterOrEqual(t, s, 0.0)
			require.LessOrEqual(t, s, 1.0)
			require.Equal(t, s, Score(b, a))
		}
	}
}
