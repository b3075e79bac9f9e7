// Package dgutils contains utility wrappers around github.com/bwmarrin/discordgo
package dgutils

import (
	"fmt"
	"strings"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/bwmarrin/discordgo"
)

func GetUser(m *discordgo.Interaction) *discordgo.User {
	if m.Member != nil {
		return m.Member.User
	}
	return m.User
}

// InteractionID is a component custom ID of the form type:textChannelID.
type InteractionID struct {
	Type    string
	TextCID breathe.TextChannelID
}

func FromCustomID(customID string) (InteractionID, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return InteractionID{}, fmt.Errorf("invalid customID: %s", customID)
	}
	return InteractionID{
		Type:    parts[0],
		TextCID: breathe.TextChannelID(parts[1]),
	}, nil
}

func (id InteractionID) ToCustomID() string {
	return fmt.Sprintf("%s:%s", id.Type, id.TextCID)
}

// OptionMap indexes command options by name.
func OptionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

type Color int

const (
	ColorDefault   Color = 0x000000
	ColorWhite     Color = 0xffffff
	ColorAqua      Color = 0x1abc9c
	ColorGreen     Color = 0x57f287
	ColorRed       Color = 0xed4245
	ColorGrey      Color = 0x95a5a6
	ColorLightGrey Color = 0xbcc0c0
	ColorDarkAqua  Color = 0x11806a
)

func (c Color) ToInt() *int {
	i := int(c)
	return &i
}

func TextDisplay(content string) discordgo.TextDisplay {
	return discordgo.TextDisplay{
		Content: content,
	}
}
