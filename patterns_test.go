package breathe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatterns(t *testing.T) {
	tests := []struct {
		key       PatternKey
		texts     []string
		durations []time.Duration
	}{
		{SimplePattern, []string{"Вдох", "Выдох"}, []time.Duration{3 * time.Second, 3 * time.Second}},
		{FourSevenEight, []string{"Вдох", "Задержка", "Выдох"}, []time.Duration{4 * time.Second, 7 * time.Second, 8 * time.Second}},
		{BoxPattern, []string{"Вдох", "Задержка", "Выдох", "Пауза"}, []time.Duration{4 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			p, ok := GetPattern(tt.key)
			require.True(t, ok)
			require.Len(t, p.Phases, len(tt.texts))
			for i, ph := range p.Phases {
				assert.Equal(t, tt.texts[i], ph.Text)
				assert.Equal(t, tt.durations[i], ph.Duration)
				assert.NotEmpty(t, ph.Subtext)
			}
		})
	}
}

func TestPatternKeysCoverAllPatterns(t *testing.T) {
	assert.Len(t, PatternKeys, len(patterns))
	for _, k := range PatternKeys {
		_, ok := GetPattern(k)
		assert.True(t, ok, k)
	}
	_, ok := GetPattern("nope")
	assert.False(t, ok)
}

func TestCycleDuration(t *testing.T) {
	p, _ := GetPattern(FourSevenEight)
	assert.Equal(t, 19*time.Second, p.CycleDuration())
}

func TestIsDurationPreset(t *testing.T) {
	for _, d := range []time.Duration{time.Minute, 3 * time.Minute, 5 * time.Minute, 10 * time.Minute} {
		assert.True(t, IsDurationPreset(d), d)
	}
	assert.False(t, IsDurationPreset(2*time.Minute))
	assert.True(t, IsDurationPreset(DefaultDuration))
}
