// Package discordgo provides Discord API adapters using package github.com/bwmarrin/discordgo
package discordgo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"layeh.com/gopus"
)

const (
	sampleRate = 48000
	channels   = 2
	frameSize  = 960
	maxBytes   = frameSize * channels * 2
)

var errNotOpen = errors.New("voice sink is not open")

// VoiceSink encodes PCM frames with opus and streams them into a voice channel.
// The channel is joined on the first Open and left on Close.
type VoiceSink struct {
	cl  *discordgo.Session
	gID string
	cID string
	l   *log.Logger

	mu  sync.Mutex
	enc *gopus.Encoder
	vc  *discordgo.VoiceConnection
}

func NewVoiceSink(cl *discordgo.Session, gID, cID string, l *log.Logger) *VoiceSink {
	if l == nil {
		l = log.Default()
	}
	return &VoiceSink{
		cl:  cl,
		gID: gID,
		cID: cID,
		l:   l.With("gid", gID, "vcid", cID),
	}
}

func (s *VoiceSink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
		if err != nil {
			return fmt.Errorf("new opus encoder: %w", err)
		}
		s.enc = enc
	}
	if s.vc == nil {
		vc, err := s.cl.ChannelVoiceJoin(s.gID, s.cID, false, true)
		if err != nil {
			return fmt.Errorf("join voice channel: %w", err)
		}
		s.vc = vc
		s.l.Debug("joined voice channel")
	}
	return s.vc.Speaking(true)
}

func (s *VoiceSink) Send(ctx context.Context, pcm []int16) error {
	s.mu.Lock()
	enc, vc := s.enc, s.vc
	s.mu.Unlock()
	if enc == nil || vc == nil {
		return errNotOpen
	}

	packet, err := enc.Encode(pcm, frameSize, maxBytes)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	select {
	case vc.OpusSend <- packet:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *VoiceSink) Idle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vc == nil {
		return
	}
	if err := s.vc.Speaking(false); err != nil {
		s.l.Debug("failed to stop speaking", "err", err)
	}
}

func (s *VoiceSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vc == nil {
		return nil
	}
	vc := s.vc
	s.vc = nil
	s.l.Debug("leaving voice channel")
	return vc.Disconnect()
}
