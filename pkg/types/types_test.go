package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"anl", "ges", "both"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}

	for _, s := range []string{"", "Both", "omf", "anl "} {
		_, err := ParseMode(s)
		assert.ErrorIs(t, err, ErrInvalidArgument, "mode %q", s)
	}
}

func TestModeLabels(t *testing.T) {
	assert.Equal(t, []Label{LabelGuess}, ModeGuess.Labels())
	assert.Equal(t, []Label{LabelAnalysis}, ModeAnalysis.Labels())
	assert.Equal(t, []Label{LabelGuess, LabelAnalysis}, ModeBoth.Labels())
	assert.Nil(t, Mode("x").Labels())
}

func TestMaxAbs(t *testing.T) {
	tests := []struct {
		name  string
		in    HourlySeries
		want  float64
		found bool
	}{
		{"empty", HourlySeries{}, 0, false},
		{"all missing", HourlySeries{math.NaN(), math.NaN()}, 0, false},
		{"negative wins", HourlySeries{2, math.NaN(), -3.5}, 3.5, true},
		{"zeros", HourlySeries{0, 0}, 0, true},
		{"inf ignored", HourlySeries{math.Inf(1), 1}, 1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.in.MaxAbs()
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNullable(t *testing.T) {
	s := HourlySeries{1.5, math.NaN(), -2}
	out := s.Nullable()

	require.Len(t, out, 3)
	require.NotNil(t, out[0])
	assert.Equal(t, 1.5, *out[0])
	assert.Nil(t, out[1])
	assert.Equal(t, -2.0, *out[2])
	assert.True(t, s.Missing(1))
	assert.False(t, s.Missing(2))
}

func TestSeriesSet(t *testing.T) {
	set := SeriesSet{
		{Label: LabelGuess, Values: HourlySeries{1}},
		{Label: LabelAnalysis, Values: HourlySeries{2}},
	}

	v, ok := set.Get(LabelAnalysis)
	require.True(t, ok)
	assert.Equal(t, HourlySeries{2}, v)

	_, ok = SeriesSet{set[0]}.Get(LabelAnalysis)
	assert.False(t, ok)

	assert.Equal(t, []Label{LabelGuess, LabelAnalysis}, set.Labels())
}
