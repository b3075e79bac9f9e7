package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/benjamonnguyen/breathe-go/cmd/bot/dgutils"
	"github.com/benjamonnguyen/breathe-go/cmd/bot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
)

const (
	defaultErrorMsg    = "Что-то пошло не так. Попробуйте ещё раз чуть позже."
	noSessionMsg       = "В этом канале нет открытой сессии. Используйте /breathe."
	sessionActiveMsg   = "В этом канале уже идёт медитация."
	invalidDurationMsg = "Выберите длительность 1, 3, 5 или 10 минут."
	unknownPatternMsg  = "Такой техники дыхания нет."
)

// voiceChannelLookup returns the user's current voice channel or "" if there is none.
type voiceChannelLookup func(guildID, userID string) breathe.VoiceChannelID

type themeSetter interface {
	SetTheme(breathe.TextChannelID, breathe.Theme)
}

func OpenSession(ctx context.Context, sessionManager SessionManager, dm DiscordMessenger, voiceChannel voiceChannelLookup, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionApplicationCommand {
		return false
	}
	data := m.ApplicationCommandData()
	if data.Name != breathe.BreatheCommand.Name {
		return false
	}

	user := dgutils.GetUser(m.Interaction)
	if user == nil {
		return true
	}
	req := openSessionRequest{
		guildID:   m.GuildID,
		textCID:   breathe.TextChannelID(m.ChannelID),
		userID:    user.ID,
		overrides: parseOverrides(data.Options),
	}
	if m.GuildID != "" {
		req.voiceCID = voiceChannel(m.GuildID, user.ID)
	}
	if req.voiceCID == "" {
		log.Debug("user not in voice - audio unavailable", "uid", user.ID, "gid", m.GuildID)
	}

	view, err := sessionManager.Open(ctx, req)
	if err != nil {
		msg := sessionErrorMsg(err)
		if msg == defaultErrorMsg {
			log.Error("failed to open session", "cid", m.ChannelID, "err", err)
		}
		if err := dm.RespondEphemeral(m.Interaction, msg); err != nil {
			log.Error(err)
		}
		return true
	}

	msg, err := dm.Respond(m.Interaction, true, SessionMessageComponents(view)...)
	if err != nil {
		log.Error("failed to respond with view", "cid", m.ChannelID, "err", err)
		_ = sessionManager.Close(req.textCID)
		return true
	}
	if err := sessionManager.BindMessage(req.textCID, msg.ID); err != nil {
		log.Error("failed to bind view message", "cid", m.ChannelID, "err", err)
	}
	return true
}

func parseOverrides(opts []*discordgo.ApplicationCommandInteractionDataOption) sessionOverrides {
	o := noOverrides()
	byName := dgutils.OptionMap(opts)
	if opt, ok := byName[breathe.DurationOption]; ok {
		if d := time.Duration(opt.IntValue()) * time.Second; breathe.IsDurationPreset(d) {
			o.duration = Optional(d)
		}
	}
	if opt, ok := byName[breathe.PatternOption]; ok {
		if key := breathe.PatternKey(opt.StringValue()); isPattern(key) {
			o.pattern = Optional(key)
		}
	}
	if opt, ok := byName[breathe.AudioOption]; ok {
		o.audio = Optional(opt.BoolValue())
	}
	if opt, ok := byName[breathe.VolumeOption]; ok {
		o.volume = Optional(clampVolume(int(opt.IntValue())))
	}
	return o
}

func isPattern(key breathe.PatternKey) bool {
	_, ok := breathe.GetPattern(key)
	return ok
}

func SetVolume(sessionManager SessionManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionApplicationCommand {
		return false
	}
	data := m.ApplicationCommandData()
	if data.Name != breathe.VolumeCommand.Name {
		return false
	}

	reply := func(content string) {
		if err := dm.RespondEphemeral(m.Interaction, content); err != nil {
			log.Error(err)
		}
	}
	ctrl, err := sessionManager.Get(breathe.TextChannelID(m.ChannelID))
	if err != nil {
		reply(noSessionMsg)
		return true
	}
	opt, ok := dgutils.OptionMap(data.Options)[breathe.LevelOption]
	if !ok {
		reply(defaultErrorMsg)
		return true
	}
	view, err := ctrl.SetVolume(int(opt.IntValue()))
	if err != nil {
		log.Error("failed to set volume", "cid", m.ChannelID, "err", err)
		reply(defaultErrorMsg)
		return true
	}
	reply(fmt.Sprintf("Громкость: %d%%", view.Volume))
	return true
}

func SetTheme(host themeSetter, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionApplicationCommand {
		return false
	}
	data := m.ApplicationCommandData()
	if data.Name != breathe.ThemeCommand.Name {
		return false
	}

	reply := func(content string) {
		if err := dm.RespondEphemeral(m.Interaction, content); err != nil {
			log.Error(err)
		}
	}
	opts := dgutils.OptionMap(data.Options)
	var theme breathe.Theme
	if opt, ok := opts[breathe.SchemeOption]; ok {
		scheme, err := breathe.ParseColorScheme(opt.StringValue())
		if err != nil {
			reply("Неизвестная схема: " + opt.StringValue())
			return true
		}
		theme.Scheme = scheme
	}
	if opt, ok := opts[breathe.BackgroundOption]; ok {
		if err := breathe.ValidateHexColor(opt.StringValue()); err != nil {
			reply("Неверный цвет: " + opt.StringValue())
			return true
		}
		theme.Background = opt.StringValue()
	}

	host.SetTheme(breathe.TextChannelID(m.ChannelID), theme)
	log.Debug("theme changed", "cid", m.ChannelID, "scheme", theme.Scheme, "background", theme.Background)
	reply("Тема обновлена.")
	return true
}

// HandleSessionAction handles every component of a session view.
func HandleSessionAction(ctx context.Context, sessionManager SessionManager, dm DiscordMessenger, m *discordgo.InteractionCreate) bool {
	if m.Type != discordgo.InteractionMessageComponent {
		return false
	}

	data := m.MessageComponentData()
	id, err := dgutils.FromCustomID(data.CustomID)
	if err != nil {
		return false
	}
	switch id.Type {
	case actionDuration, actionPattern, actionAudio, actionVolDown, actionVolUp,
		actionStart, actionPause, actionStop, actionNew, actionClose:
	default:
		return false
	}

	if err := dm.DeferMessageUpdate(m.Interaction); err != nil {
		log.Error("failed to ack action", "action", id.Type, "err", err)
		return true
	}
	followup := func(content string) {
		if err := dm.FollowupEphemeral(m.Interaction, content); err != nil {
			log.Error(err)
		}
	}

	if id.Type == actionClose {
		if err := sessionManager.Close(id.TextCID); err != nil && !errors.Is(err, models.ErrSessionNotFound) {
			log.Error("failed to close session", "cid", id.TextCID, "err", err)
		}
		return true
	}

	ctrl, err := sessionManager.Get(id.TextCID)
	if err != nil {
		followup(noSessionMsg)
		return true
	}

	err = applyAction(ctx, sessionManager, ctrl, id, data.Values, dgutils.GetUser(m.Interaction))
	switch {
	case err == nil:
		log.Debug("applied action", "action", id.Type, "cid", id.TextCID)
	case errors.Is(err, models.ErrInvalidTransition):
		// stale view, e.g. a double click; the renderer already shows the current state
		log.Debug("ignored action", "action", id.Type, "cid", id.TextCID, "err", err)
	default:
		msg := sessionErrorMsg(err)
		if msg == defaultErrorMsg {
			log.Error("failed action", "action", id.Type, "cid", id.TextCID, "err", err)
		}
		followup(msg)
	}
	return true
}

// sessionErrorMsg is the text shown to the user for err.
func sessionErrorMsg(err error) string {
	switch {
	case errors.Is(err, models.ErrSessionClosed), errors.Is(err, models.ErrSessionNotFound):
		return noSessionMsg
	case errors.Is(err, models.ErrSessionActive):
		return sessionActiveMsg
	case errors.Is(err, models.ErrInvalidDuration):
		return invalidDurationMsg
	case errors.Is(err, models.ErrUnknownPattern):
		return unknownPatternMsg
	default:
		return defaultErrorMsg
	}
}

func applyAction(ctx context.Context, sessionManager SessionManager, ctrl *SessionController, id dgutils.InteractionID, values []string, user *discordgo.User) error {
	var err error
	switch id.Type {
	case actionDuration:
		if len(values) == 0 {
			return models.ErrInvalidDuration
		}
		secs, convErr := strconv.Atoi(values[0])
		if convErr != nil {
			return fmt.Errorf("%w: %s", models.ErrInvalidDuration, values[0])
		}
		_, err = ctrl.SelectDuration(time.Duration(secs) * time.Second)
	case actionPattern:
		if len(values) == 0 {
			return models.ErrUnknownPattern
		}
		_, err = ctrl.SelectPattern(breathe.PatternKey(values[0]))
	case actionAudio:
		_, err = ctrl.ToggleAudio()
	case actionVolDown:
		_, err = ctrl.StepVolume(-volumeStep)
	case actionVolUp:
		_, err = ctrl.StepVolume(volumeStep)
	case actionStart:
		userID := ""
		if user != nil {
			userID = user.ID
		}
		_, err = sessionManager.Start(ctx, id.TextCID, userID)
	case actionPause:
		_, err = ctrl.TogglePause()
	case actionStop:
		_, err = ctrl.Stop()
	case actionNew:
		_, err = ctrl.NewSession()
	}
	return err
}
