package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Thiht/transactor"
	"github.com/benjamonnguyen/breathe-go"
	"github.com/benjamonnguyen/breathe-go/cmd/bot/models"
	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type sessionOverrides struct {
	duration optional[time.Duration]
	pattern  optional[breathe.PatternKey]
	audio    optional[bool]
	volume   optional[int]
}

func noOverrides() sessionOverrides {
	return sessionOverrides{
		duration: EmptyOptional[time.Duration](),
		pattern:  EmptyOptional[breathe.PatternKey](),
		audio:    EmptyOptional[bool](),
		volume:   EmptyOptional[int](),
	}
}

type openSessionRequest struct {
	guildID string
	textCID breathe.TextChannelID
	// voiceCID is empty when the user is not in a voice channel
	voiceCID  breathe.VoiceChannelID
	userID    string
	overrides sessionOverrides
}

type SessionManager interface {
	// Open creates the setup view for a channel, replacing a view that is not active.
	Open(context.Context, openSessionRequest) (SessionView, error)
	// BindMessage starts rendering the channel's view into messageID.
	BindMessage(cID breathe.TextChannelID, messageID string) error
	Get(breathe.TextChannelID) (*SessionController, error)
	// Start starts the channel's session and saves the settings as userID's preferences.
	Start(ctx context.Context, cID breathe.TextChannelID, userID string) (SessionView, error)
	Close(breathe.TextChannelID) error
	Shutdown()
}

// viewBridge is a HostBridge bound to one view message.
type viewBridge interface {
	HostBridge
	BindMessage(messageID string)
	Unpin()
}

type sessionManagerConfig struct {
	repo              breathe.PreferencesRepo
	tx                transactor.Transactor
	clock             Clock
	newPlayer         func(guildID string, vcID breathe.VoiceChannelID) AudioPlayer
	newBridge         func(breathe.TextChannelID) viewBridge
	releaseBridge     func(breathe.TextChannelID)
	editView          func(cID breathe.TextChannelID, messageID string, components []discordgo.MessageComponent) error
	renderInterval    time.Duration
	excludePausedTime bool
	l                 *log.Logger
}

type channelSession struct {
	ctrl      *SessionController
	bridge    viewBridge
	renderer  *viewRenderer
	messageID string
}

type sessionManager struct {
	cfg   sessionManagerConfig
	l     *log.Logger
	cache *sessionCache
}

func NewSessionManager(cfg sessionManagerConfig) SessionManager {
	if cfg.l == nil {
		cfg.l = log.Default()
	}
	if cfg.clock == nil {
		cfg.clock = realClock{}
	}
	if cfg.newPlayer == nil {
		cfg.newPlayer = func(string, breathe.VoiceChannelID) AudioPlayer { return noopPlayer{} }
	}
	if cfg.newBridge == nil {
		cfg.newBridge = func(breathe.TextChannelID) viewBridge { return noopViewBridge{} }
	}
	if cfg.releaseBridge == nil {
		cfg.releaseBridge = func(breathe.TextChannelID) {}
	}
	return &sessionManager{
		cfg: cfg,
		l:   cfg.l,
		cache: &sessionCache{
			sessions: make(map[breathe.TextChannelID]*channelSession),
		},
	}
}

func (m *sessionManager) Open(ctx context.Context, req openSessionRequest) (SessionView, error) {
	prefs := m.preferences(ctx, req.userID)
	applyOverrides(&prefs, req.overrides)

	var replaced *channelSession
	s, err := m.cache.Replace(req.textCID, func(existing *channelSession) (*channelSession, error) {
		if existing != nil {
			if existing.ctrl.Snapshot().State.IsActive() {
				return nil, models.ErrSessionActive
			}
			// release before the new view subscribes to the channel's theme
			m.release(req.textCID, existing)
			replaced = existing
		}
		bridge := m.cfg.newBridge(req.textCID)
		ctrl := NewSessionController(controllerConfig{
			id:                breathe.SessionID(uuid.NewString()),
			textCID:           req.textCID,
			prefs:             prefs,
			excludePausedTime: m.cfg.excludePausedTime,
			clock:             m.cfg.clock,
			player:            m.cfg.newPlayer(req.guildID, req.voiceCID),
			bridge:            bridge,
			l:                 m.l,
		})
		return &channelSession{ctrl: ctrl, bridge: bridge}, nil
	})
	if err != nil {
		return SessionView{}, err
	}
	if replaced != nil {
		m.finalize(req.textCID, replaced)
	}
	v := s.ctrl.Snapshot()
	m.l.Info("opened session", "sid", v.SessionID, "cid", req.textCID, "uid", req.userID)
	return v, nil
}

func (m *sessionManager) BindMessage(cID breathe.TextChannelID, messageID string) error {
	return m.cache.Update(cID, func(s *channelSession) {
		if s.renderer != nil {
			s.renderer.Stop()
		}
		s.messageID = messageID
		s.bridge.BindMessage(messageID)
		s.renderer = newViewRenderer(func(v SessionView) error {
			return m.cfg.editView(cID, messageID, SessionMessageComponents(v))
		}, m.cfg.renderInterval, m.l)
		s.ctrl.OnUpdate(s.renderer.Push)
	})
}

func (m *sessionManager) Get(cID breathe.TextChannelID) (*SessionController, error) {
	s := m.cache.Get(cID)
	if s == nil {
		return nil, models.ErrSessionNotFound
	}
	return s.ctrl, nil
}

func (m *sessionManager) Start(ctx context.Context, cID breathe.TextChannelID, userID string) (SessionView, error) {
	ctrl, err := m.Get(cID)
	if err != nil {
		return SessionView{}, err
	}
	v, err := ctrl.Start()
	if err != nil {
		return v, err
	}
	m.l.Info("started session", "sid", v.SessionID, "cid", cID, "duration", v.Duration, "pattern", v.Pattern.Key)

	prefs := breathe.PreferencesRecord{
		UserID:       userID,
		Duration:     v.Duration,
		PatternKey:   v.Pattern.Key,
		AudioEnabled: v.AudioEnabled,
		Volume:       v.Volume,
	}
	err = m.cfg.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := m.cfg.repo.UpsertPreferences(ctx, prefs)
		return err
	})
	if err != nil {
		m.l.Error("failed to save preferences", "uid", userID, "err", err)
	}
	return v, nil
}

func (m *sessionManager) Close(cID breathe.TextChannelID) error {
	s := m.cache.Remove(cID)
	if s == nil {
		return models.ErrSessionNotFound
	}
	m.release(cID, s)
	m.finalize(cID, s)
	m.l.Info("closed session", "cid", cID)
	return nil
}

func (m *sessionManager) Shutdown() {
	all := m.cache.RemoveAll()
	var wg sync.WaitGroup
	for cID, s := range all {
		wg.Go(func() {
			m.release(cID, s)
			m.finalize(cID, s)
		})
	}
	wg.Wait()
	m.l.Info("closed all sessions", "count", len(all))
}

// preferences falls back to defaults when none are stored or the store fails.
func (m *sessionManager) preferences(ctx context.Context, userID string) breathe.PreferencesRecord {
	existing, err := m.cfg.repo.GetPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, breathe.ErrNotFound) {
			m.l.Error("failed to get preferences", "uid", userID, "err", err)
		}
		return breathe.DefaultPreferences(userID)
	}
	return existing.PreferencesRecord
}

func applyOverrides(p *breathe.PreferencesRecord, o sessionOverrides) {
	p.Duration = o.duration.OrElse(p.Duration)
	p.PatternKey = o.pattern.OrElse(p.PatternKey)
	p.AudioEnabled = o.audio.OrElse(p.AudioEnabled)
	p.Volume = o.volume.OrElse(p.Volume)
}

// release stops timers, audio and rendering.
func (m *sessionManager) release(cID breathe.TextChannelID, s *channelSession) {
	s.ctrl.Close()
	if s.renderer != nil {
		s.renderer.Stop()
	}
	m.cfg.releaseBridge(cID)
}

// finalize replaces the released view with the closed message.
func (m *sessionManager) finalize(cID breathe.TextChannelID, s *channelSession) {
	if s.messageID == "" {
		return
	}
	s.bridge.Unpin()
	if err := m.cfg.editView(cID, s.messageID, ClosedMessageComponents()); err != nil {
		m.l.Error("failed to edit closed view", "cid", cID, "err", err)
	}
}

type noopViewBridge struct {
	noopBridge
}

func (noopViewBridge) BindMessage(string) {}

func (noopViewBridge) Unpin() {}

// Cache

type sessionCache struct {
	mu       sync.Mutex
	sessions map[breathe.TextChannelID]*channelSession
}

// Replace stores the result of fn, which is called with the current entry under the cache lock.
func (c *sessionCache) Replace(cID breathe.TextChannelID, fn func(existing *channelSession) (*channelSession, error)) (*channelSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := fn(c.sessions[cID])
	if err != nil {
		return nil, err
	}
	c.sessions[cID] = s
	return s, nil
}

func (c *sessionCache) Update(cID breathe.TextChannelID, fn func(*channelSession)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sessions[cID]
	if s == nil {
		return models.ErrSessionNotFound
	}
	fn(s)
	return nil
}

func (c *sessionCache) Get(cID breathe.TextChannelID) *channelSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[cID]
}

func (c *sessionCache) Remove(cID breathe.TextChannelID) *channelSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sessions[cID]
	delete(c.sessions, cID)
	return s
}

func (c *sessionCache) RemoveAll() map[breathe.TextChannelID]*channelSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.sessions
	c.sessions = make(map[breathe.TextChannelID]*channelSession)
	return all
}
