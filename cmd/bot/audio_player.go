package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var ErrAudioUnavailable = errors.New("audio unavailable")

// AudioPlayer loops a single background track.
type AudioPlayer interface {
	// Play starts or continues playback from the retained position. It does not block.
	Play() error
	// Pause stops playback and keeps the position.
	Pause()
	Rewind()
	// SetVolume sets the linear gain in percent and applies to the next frame.
	SetVolume(v int)
	Close()
}

// frameSink consumes PCM frames in real time.
type frameSink interface {
	// Open prepares the sink for a playing period.
	Open() error
	// Send blocks until the frame is accepted or ctx is done.
	Send(ctx context.Context, pcm []int16) error
	// Idle is called when a playing period ends.
	Idle()
	Close() error
}

type trackPlayer struct {
	mu     sync.Mutex
	track  pcmTrack
	sink   frameSink
	l      *log.Logger
	volume atomic.Int32

	// pos is owned by the streaming goroutine while playing
	pos    int
	cancel context.CancelFunc
	done   chan struct{}
}

func newTrackPlayer(track pcmTrack, sink frameSink, l *log.Logger) *trackPlayer {
	if l == nil {
		l = log.Default()
	}
	p := &trackPlayer{
		track: track,
		sink:  sink,
		l:     l,
	}
	p.volume.Store(100)
	return p
}

func (p *trackPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.play()
}

func (p *trackPlayer) play() error {
	if p.cancel != nil {
		select {
		case <-p.done:
			// the stream ended on a sink error, e.g. a dropped voice connection
			p.cancel()
			p.cancel = nil
			p.done = nil
			p.sink.Idle()
		default:
			return nil
		}
	}
	if len(p.track) == 0 {
		return ErrAudioUnavailable
	}
	if err := p.sink.Open(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.stream(ctx, p.done)
	return nil
}

func (p *trackPlayer) stream(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	pos := p.pos
	defer func() { p.pos = pos }()
	for {
		frame := scale(p.track[pos], int(p.volume.Load()))
		if err := p.sink.Send(ctx, frame); err != nil {
			if ctx.Err() == nil {
				p.l.Warn("audio stream stopped", "err", err)
			}
			return
		}
		pos = (pos + 1) % len(p.track)
	}
}

func (p *trackPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
}

// Rewind moves to the start of the track and keeps playing if it was.
func (p *trackPlayer) Rewind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	playing := p.cancel != nil
	p.stop()
	p.pos = 0
	if playing {
		if err := p.play(); err != nil {
			p.l.Warn("failed to restart audio", "err", err)
		}
	}
}

func (p *trackPlayer) SetVolume(v int) {
	p.volume.Store(int32(clampVolume(v)))
}

func (p *trackPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
	if err := p.sink.Close(); err != nil {
		p.l.Warn("failed to close audio sink", "err", err)
	}
}

func (p *trackPlayer) stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	p.sink.Idle()
}

// scale applies a linear gain of v percent.
func scale(frame []int16, v int) []int16 {
	out := make([]int16, len(frame))
	for i, s := range frame {
		out[i] = int16(int32(s) * int32(v) / 100)
	}
	return out
}

// asyncPlayer runs the commands of p in call order on its own goroutine.
// Joining a voice channel can take seconds, and callers hold their session lock.
type asyncPlayer struct {
	p AudioPlayer
	l *log.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newAsyncPlayer(p AudioPlayer, l *log.Logger) *asyncPlayer {
	if l == nil {
		l = log.Default()
	}
	a := &asyncPlayer{
		p:    p,
		l:    l,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// Play queues playback and returns at once. Failures are logged.
func (a *asyncPlayer) Play() error {
	a.enqueue(func() {
		if err := a.p.Play(); err != nil {
			a.l.Warn("audio playback failed", "err", err)
		}
	})
	return nil
}

func (a *asyncPlayer) Pause() {
	a.enqueue(a.p.Pause)
}

func (a *asyncPlayer) Rewind() {
	a.enqueue(a.p.Rewind)
}

func (a *asyncPlayer) SetVolume(v int) {
	a.p.SetVolume(v)
}

// Close queues the final close and does not wait for it.
func (a *asyncPlayer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.queue = append(a.queue, a.p.Close)
	a.closed = true
	a.signal()
}

func (a *asyncPlayer) enqueue(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.queue = append(a.queue, fn)
	a.signal()
}

func (a *asyncPlayer) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *asyncPlayer) run() {
	defer close(a.done)
	for range a.wake {
		a.mu.Lock()
		queue, closed := a.queue, a.closed
		a.queue = nil
		a.mu.Unlock()

		for _, fn := range queue {
			fn()
		}
		if closed {
			return
		}
	}
}

// noopPlayer is used when no voice channel or track is available.
type noopPlayer struct{}

func (noopPlayer) Play() error { return ErrAudioUnavailable }

func (noopPlayer) Pause() {}

func (noopPlayer) Rewind() {}

func (noopPlayer) SetVolume(int) {}

func (noopPlayer) Close() {}
