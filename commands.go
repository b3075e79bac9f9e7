package breathe

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	DurationOption   = "duration"
	PatternOption    = "pattern"
	AudioOption      = "audio"
	VolumeOption     = "volume"
	LevelOption      = "level"
	SchemeOption     = "scheme"
	BackgroundOption = "background"
)

func float64Ptr(f float64) *float64 {
	return &f
}

func durationChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(DurationPresets))
	for _, d := range DurationPresets {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d мин", int(d.Minutes())),
			Value: int(d.Seconds()),
		})
	}
	return choices
}

func patternChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(PatternKeys))
	for _, k := range PatternKeys {
		p, _ := GetPattern(k)
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  p.Name,
			Value: string(k),
		})
	}
	return choices
}

var BreatheCommand = discordgo.ApplicationCommand{
	Name:        "breathe",
	Description: "open a guided breathing session",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        DurationOption,
			Description: "session length (Default: 5 min)",
			Choices:     durationChoices(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        PatternOption,
			Description: "breathing pattern (Default: simple)",
			Choices:     patternChoices(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        AudioOption,
			Description: "play background music in your voice channel (Default: true)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        VolumeOption,
			Description: "background music volume (Default: 50)",
			MinValue:    float64Ptr(0),
			MaxValue:    100,
		},
	},
}

var VolumeCommand = discordgo.ApplicationCommand{
	Name:        "breathe-volume",
	Description: "set the background music volume of this channel's session",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        LevelOption,
			Description: "volume from 0 (silent) to 100 (full)",
			Required:    true,
			MinValue:    float64Ptr(0),
			MaxValue:    100,
		},
	},
}

var ThemeCommand = discordgo.ApplicationCommand{
	Name:        "breathe-theme",
	Description: "change the colors of this channel's session",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        SchemeOption,
			Description: "color scheme",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "light", Value: string(LightScheme)},
				{Name: "dark", Value: string(DarkScheme)},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        BackgroundOption,
			Description: "background color as hex, e.g. #1e1f22",
		},
	},
}

// Commands is everything cmd/register publishes.
var Commands = []*discordgo.ApplicationCommand{
	&BreatheCommand,
	&VolumeCommand,
	&ThemeCommand,
}
