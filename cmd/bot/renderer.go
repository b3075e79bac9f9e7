package main

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// viewRenderer is the single writer of one view message. It coalesces
// updates so only the latest snapshot is written. Countdown-only updates are
// written at most once per interval; everything else is written at once.
type viewRenderer struct {
	edit     func(SessionView) error
	interval time.Duration
	l        *log.Logger

	mu         sync.Mutex
	pending    *SessionView
	urgent     bool
	lastSeq    uint64
	lastRender time.Time

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newViewRenderer(edit func(SessionView) error, interval time.Duration, l *log.Logger) *viewRenderer {
	if l == nil {
		l = log.Default()
	}
	r := &viewRenderer{
		edit:     edit,
		interval: interval,
		l:        l,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Push queues u, dropping it if a newer snapshot was already queued or written.
func (r *viewRenderer) Push(u SessionUpdate) {
	r.mu.Lock()
	if u.View.Seq <= r.lastSeq || (r.pending != nil && u.View.Seq <= r.pending.Seq) {
		r.mu.Unlock()
		return
	}
	v := u.View
	r.pending = &v
	r.urgent = r.urgent || u.Urgent()
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Stop discards anything pending and waits for an in-flight write.
func (r *viewRenderer) Stop() {
	r.once.Do(func() { close(r.done) })
	<-r.stopped
}

func (r *viewRenderer) run() {
	defer close(r.stopped)
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-r.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-r.wake:
		case <-timerC:
			timerC = nil
		}

		v, wait, ok := r.next()
		if !ok {
			continue
		}
		if wait > 0 {
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			timerC = timer.C
			continue
		}
		if err := r.edit(v); err != nil {
			r.l.Error("failed to render view", "cid", v.TextCID, "seq", v.Seq, "err", err)
		}
	}
}

func (r *viewRenderer) next() (SessionView, time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return SessionView{}, 0, false
	}
	if !r.urgent {
		if wait := r.interval - time.Since(r.lastRender); wait > 0 {
			return SessionView{}, wait, true
		}
	}
	v := *r.pending
	r.pending = nil
	r.urgent = false
	r.lastSeq = v.Seq
	r.lastRender = time.Now()
	return v, 0, true
}
