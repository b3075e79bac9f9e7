package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/benjamonnguyen/breathe-go/cmd/bot/dgutils"
	"github.com/bwmarrin/discordgo"
)

// component action types
const (
	actionDuration = "duration"
	actionPattern  = "pattern"
	actionAudio    = "audio"
	actionVolDown  = "vol_down"
	actionVolUp    = "vol_up"
	actionStart    = "start"
	actionPause    = "pause"
	actionStop     = "stop"
	actionNew      = "new"
	actionClose    = "close"
)

const volumeStep = 10

const (
	timerBarLength     = 20
	timerBarFilledChar = "⣶"
	timerBarEmptyChar  = "⡀"
)

// SessionMessageComponents renders the view for a snapshot.
func SessionMessageComponents(v SessionView) []discordgo.MessageComponent {
	switch v.State {
	case breathe.SessionRunning, breathe.SessionPaused:
		return activeView(v)
	case breathe.SessionComplete:
		return completeView(v)
	default:
		return setupView(v)
	}
}

// ClosedMessageComponents replaces the view once its session is closed.
func ClosedMessageComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		dgutils.TextDisplay("Сессия закрыта. Используйте /breathe, чтобы начать новую."),
	}
}

func header() discordgo.MessageComponent {
	return dgutils.TextDisplay("## Медитация дыхания\nНайдите покой через осознанное дыхание")
}

func customID(action string, v SessionView) string {
	return dgutils.InteractionID{Type: action, TextCID: v.TextCID}.ToCustomID()
}

func setupView(v SessionView) []discordgo.MessageComponent {
	durations := make([]discordgo.SelectMenuOption, 0, len(breathe.DurationPresets))
	for _, d := range breathe.DurationPresets {
		durations = append(durations, discordgo.SelectMenuOption{
			Label:   fmt.Sprintf("%d мин", int(d.Minutes())),
			Value:   strconv.Itoa(int(d.Seconds())),
			Default: d == v.Duration,
		})
	}
	patterns := make([]discordgo.SelectMenuOption, 0, len(breathe.PatternKeys))
	for _, k := range breathe.PatternKeys {
		p, _ := breathe.GetPattern(k)
		patterns = append(patterns, discordgo.SelectMenuOption{
			Label:       p.Name,
			Value:       string(k),
			Description: p.Summary,
			Default:     k == v.Pattern.Key,
		})
	}

	settings := discordgo.Container{
		AccentColor: accent(v),
		Components: []discordgo.MessageComponent{
			dgutils.TextDisplay("### Продолжительность сессии"),
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType: discordgo.StringSelectMenu,
					CustomID: customID(actionDuration, v),
					Options:  durations,
				},
			}},
			dgutils.TextDisplay("### Техника дыхания"),
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType: discordgo.StringSelectMenu,
					CustomID: customID(actionPattern, v),
					Options:  patterns,
				},
			}},
			dgutils.TextDisplay("### Фоновые звуки\n" + volumeText(v)),
			audioRow(v),
		},
	}

	return []discordgo.MessageComponent{
		header(),
		settings,
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Начать медитацию",
				Style:    discordgo.SuccessButton,
				CustomID: customID(actionStart, v),
			},
			closeButton(v),
		}},
	}
}

func activeView(v SessionView) []discordgo.MessageComponent {
	timer := []string{
		"# " + formatRemaining(v.Remaining),
		timerBar(v.Progress),
		fmt.Sprintf("%d мин • %s", int(v.Duration.Minutes()), v.Pattern.Name),
	}
	pauseLabel := "Пауза"
	if v.State == breathe.SessionPaused {
		timer = append(timer, "*На паузе*")
		pauseLabel = "Продолжить"
	}

	return []discordgo.MessageComponent{
		header(),
		discordgo.Container{
			AccentColor: accent(v),
			Components: []discordgo.MessageComponent{
				dgutils.TextDisplay(strings.Join(timer, "\n")),
			},
		},
		discordgo.Container{
			AccentColor: phaseAccent(v),
			Components: []discordgo.MessageComponent{
				dgutils.TextDisplay(fmt.Sprintf("## %s\n%s", v.Phase.Text, v.Phase.Subtext)),
			},
		},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    pauseLabel,
				Style:    discordgo.PrimaryButton,
				CustomID: customID(actionPause, v),
			},
			discordgo.Button{
				Label:    "Остановить",
				Style:    discordgo.DangerButton,
				CustomID: customID(actionStop, v),
			},
		}},
		dgutils.TextDisplay(volumeText(v)),
		audioRow(v),
	}
}

func completeView(v SessionView) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		header(),
		discordgo.Container{
			AccentColor: accent(v),
			Components: []discordgo.MessageComponent{
				dgutils.TextDisplay(fmt.Sprintf(
					"## 🧘 Медитация завершена\nПрекрасная работа! Вы потратили время на заботу о себе.\n\n**Время медитации**\n%d минут",
					int(v.Duration.Minutes()),
				)),
			},
		},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Новая сессия",
				Style:    discordgo.SuccessButton,
				CustomID: customID(actionNew, v),
			},
			closeButton(v),
		}},
	}
}

func audioRow(v SessionView) discordgo.ActionsRow {
	audioLabel, audioStyle := "Включить музыку", discordgo.SecondaryButton
	if v.AudioEnabled {
		audioLabel, audioStyle = "Выключить музыку", discordgo.PrimaryButton
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    audioLabel,
			Style:    audioStyle,
			CustomID: customID(actionAudio, v),
		},
		discordgo.Button{
			Label:    fmt.Sprintf("🔉 -%d", volumeStep),
			Style:    discordgo.SecondaryButton,
			Disabled: v.Volume <= 0,
			CustomID: customID(actionVolDown, v),
		},
		discordgo.Button{
			Label:    fmt.Sprintf("🔊 +%d", volumeStep),
			Style:    discordgo.SecondaryButton,
			Disabled: v.Volume >= 100,
			CustomID: customID(actionVolUp, v),
		},
	}}
}

func closeButton(v SessionView) discordgo.Button {
	return discordgo.Button{
		Label:    "Закрыть",
		Style:    discordgo.SecondaryButton,
		CustomID: customID(actionClose, v),
	}
}

func volumeText(v SessionView) string {
	if !v.AudioEnabled {
		return fmt.Sprintf("Музыка выключена • громкость %d%%", v.Volume)
	}
	return fmt.Sprintf("Музыка включена • громкость %d%%", v.Volume)
}

// accent is the theme background, or grey while paused.
func accent(v SessionView) *int {
	if v.State == breathe.SessionPaused {
		return dgutils.ColorLightGrey.ToInt()
	}
	return dgutils.Color(breathe.RGB(v.Colors.Background)).ToInt()
}

func phaseAccent(v SessionView) *int {
	if v.State == breathe.SessionPaused {
		return dgutils.ColorLightGrey.ToInt()
	}
	return dgutils.Color(breathe.RGB(v.Colors.Foreground)).ToInt()
}

func formatRemaining(d time.Duration) string {
	secs := max(0, int(d/time.Second))
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// timerBar fills with elapsed progress, clamped to 100%.
func timerBar(progress float64) string {
	p := min(max(progress, 0), 100)
	filled := int(math.Round(p / 100 * timerBarLength))
	return strings.Repeat(timerBarFilledChar, filled) + strings.Repeat(timerBarEmptyChar, timerBarLength-filled)
}
