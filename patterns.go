package breathe

import (
	"slices"
	"time"
)

type PatternKey string

const (
	SimplePattern  PatternKey = "simple"
	FourSevenEight PatternKey = "478"
	BoxPattern     PatternKey = "box"
)

// Phase is one step of a breathing pattern.
type Phase struct {
	Text     string
	Subtext  string
	Duration time.Duration
}

type Pattern struct {
	Key     PatternKey
	Name    string
	Summary string
	Phases  []Phase
}

// CycleDuration is the length of one full pass through the pattern's phases.
func (p Pattern) CycleDuration() time.Duration {
	var d time.Duration
	for _, ph := range p.Phases {
		d += ph.Duration
	}
	return d
}

// IdlePhase is displayed whenever no session is running.
var IdlePhase = Phase{Text: "Дышите", Subtext: "Следуйте за кругом"}

var patterns = map[PatternKey]Pattern{
	SimplePattern: {
		Key:     SimplePattern,
		Name:    "Простое дыхание",
		Summary: "3 сек вдох / 3 сек выдох",
		Phases: []Phase{
			{Text: "Вдох", Subtext: "Медленно вдыхайте", Duration: 3 * time.Second},
			{Text: "Выдох", Subtext: "Медленно выдыхайте", Duration: 3 * time.Second},
		},
	},
	FourSevenEight: {
		Key:     FourSevenEight,
		Name:    "4-7-8 дыхание",
		Summary: "4 вдох / 7 задержка / 8 выдох",
		Phases: []Phase{
			{Text: "Вдох", Subtext: "4 секунды", Duration: 4 * time.Second},
			{Text: "Задержка", Subtext: "7 секунд", Duration: 7 * time.Second},
			{Text: "Выдох", Subtext: "8 секунд", Duration: 8 * time.Second},
		},
	},
	BoxPattern: {
		Key:     BoxPattern,
		Name:    "Квадратное дыхание",
		Summary: "4-4-4-4 секунды",
		Phases: []Phase{
			{Text: "Вдох", Subtext: "4 секунды", Duration: 4 * time.Second},
			{Text: "Задержка", Subtext: "4 секунды", Duration: 4 * time.Second},
			{Text: "Выдох", Subtext: "4 секунды", Duration: 4 * time.Second},
			{Text: "Пауза", Subtext: "4 секунды", Duration: 4 * time.Second},
		},
	},
}

// PatternKeys lists the bundled patterns in display order.
var PatternKeys = []PatternKey{SimplePattern, FourSevenEight, BoxPattern}

func GetPattern(key PatternKey) (Pattern, bool) {
	p, ok := patterns[key]
	return p, ok
}

// DurationPresets are the selectable session lengths.
var DurationPresets = []time.Duration{
	1 * time.Minute,
	3 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

const (
	DefaultDuration = 5 * time.Minute
	DefaultPattern  = SimplePattern
	DefaultVolume   = 50
)

func IsDurationPreset(d time.Duration) bool {
	return slices.Contains(DurationPresets, d)
}
