package discordgo

import (
	"sync"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
)

// Host is the process-wide Discord side of every session view: bot presence
// and the per-channel theme.
type Host struct {
	cl      *discordgo.Session
	botName string
	l       *log.Logger

	presence sync.Once

	mu       sync.Mutex
	theme    breathe.Theme
	themes   map[breathe.TextChannelID]breathe.Theme
	handlers map[breathe.TextChannelID][]func(breathe.Theme)
}

func NewHost(cl *discordgo.Session, botName string, theme breathe.Theme, l *log.Logger) *Host {
	if l == nil {
		l = log.Default()
	}
	return &Host{
		cl:       cl,
		botName:  botName,
		l:        l,
		theme:    theme,
		themes:   make(map[breathe.TextChannelID]breathe.Theme),
		handlers: make(map[breathe.TextChannelID][]func(breathe.Theme)),
	}
}

// SetTheme records the theme for a channel and notifies its view.
func (h *Host) SetTheme(cID breathe.TextChannelID, t breathe.Theme) {
	h.mu.Lock()
	h.themes[cID] = t
	handlers := append([]func(breathe.Theme){}, h.handlers[cID]...)
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(t)
	}
}

func (h *Host) Theme(cID breathe.TextChannelID) breathe.Theme {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.themes[cID]; ok {
		return t
	}
	return h.theme
}

// Bridge returns the bridge for the view in channel cID.
func (h *Host) Bridge(cID breathe.TextChannelID) *Bridge {
	return &Bridge{h: h, cID: cID}
}

// Release drops theme subscriptions for channel cID.
func (h *Host) Release(cID breathe.TextChannelID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, cID)
}

func (h *Host) setPresence() {
	h.presence.Do(func() {
		if err := h.cl.UpdateGameStatus(0, h.botName); err != nil {
			h.l.Warn("failed to set presence", "err", err)
		}
	})
}

// Bridge connects one session view to Discord.
type Bridge struct {
	h   *Host
	cID breathe.TextChannelID

	mu        sync.Mutex
	messageID string
	expand    bool
	pinned    bool
}

func (b *Bridge) Ready() {
	b.h.setPresence()
}

// Expand pins the view message. If the message does not exist yet, the pin
// happens once it is bound.
func (b *Bridge) Expand() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expand = true
	b.pin()
}

// BindMessage sets the message the view is rendered into.
func (b *Bridge) BindMessage(messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.messageID == messageID {
		return
	}
	b.messageID = messageID
	b.pinned = false
	b.pin()
}

// Unpin is called when the view is closed.
func (b *Bridge) Unpin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pinned {
		return
	}
	if err := b.h.cl.ChannelMessageUnpin(string(b.cID), b.messageID); err != nil {
		b.h.l.Debug("failed to unpin", "cid", b.cID, "err", err)
	}
	b.pinned = false
}

func (b *Bridge) pin() {
	if !b.expand || b.pinned || b.messageID == "" {
		return
	}
	if err := b.h.cl.ChannelMessagePin(string(b.cID), b.messageID); err != nil {
		// requires Manage Messages
		b.h.l.Debug("failed to pin", "cid", b.cID, "err", err)
		return
	}
	b.pinned = true
}

func (b *Bridge) Theme() breathe.Theme {
	return b.h.Theme(b.cID)
}

func (b *Bridge) OnThemeChange(fn func(breathe.Theme)) {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	b.h.handlers[b.cID] = append(b.h.handlers[b.cID], fn)
}
