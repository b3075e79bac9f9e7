package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakeSink struct {
	frames chan []int16

	opened int
	idled  int
	closed bool

	openErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{frames: make(chan []int16)}
}

func (s *fakeSink) Open() error {
	if s.openErr != nil {
		return s.openErr
	}
	s.opened++
	return nil
}

func (s *fakeSink) Send(ctx context.Context, pcm []int16) error {
	select {
	case s.frames <- pcm:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSink) Idle() {
	s.idled++
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSink) next(t *testing.T) []int16 {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

// flakySink fails one Send after failNext is set.
type flakySink struct {
	*fakeSink
	failNext atomic.Bool
}

func (s *flakySink) Send(ctx context.Context, pcm []int16) error {
	if s.failNext.CompareAndSwap(true, false) {
		return errors.New("voice connection lost")
	}
	return s.fakeSink.Send(ctx, pcm)
}

// testTrack has n frames; every sample of frame i is 1000*(i+1).
func testTrack(n int) pcmTrack {
	track := make(pcmTrack, n)
	for i := range track {
		track[i] = make([]int16, 4)
		for j := range track[i] {
			track[i][j] = int16(1000 * (i + 1))
		}
	}
	return track
}

func TestTrackPlayer_PauseRetainsPosition(t *testing.T) {
	sink := newFakeSink()
	p := newTrackPlayer(testTrack(3), sink, nil)

	require.NoError(t, p.Play())
	assert.Equal(t, int16(1000), sink.next(t)[0])
	assert.Equal(t, int16(2000), sink.next(t)[0])
	p.Pause()
	assert.Equal(t, 1, sink.idled)

	require.NoError(t, p.Play())
	assert.Equal(t, int16(3000), sink.next(t)[0])
	assert.Equal(t, int16(1000), sink.next(t)[0], "loops")
	p.Close()

	assert.Equal(t, 2, sink.opened)
	assert.True(t, sink.closed)
}

func TestTrackPlayer_PlayIsIdempotent(t *testing.T) {
	sink := newFakeSink()
	p := newTrackPlayer(testTrack(2), sink, nil)
	defer p.Close()

	require.NoError(t, p.Play())
	require.NoError(t, p.Play())
	assert.Equal(t, 1, sink.opened)
	assert.Equal(t, int16(1000), sink.next(t)[0])
}

func TestTrackPlayer_PlayRecoversAfterSinkError(t *testing.T) {
	sink := &flakySink{fakeSink: newFakeSink()}
	sink.failNext.Store(true)
	p := newTrackPlayer(testTrack(3), sink, nil)
	defer p.Close()

	require.NoError(t, p.Play())
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after the send error")
	}

	require.NoError(t, p.Play())
	assert.Equal(t, int16(1000), sink.next(t)[0], "the failed frame is sent again")
	assert.Equal(t, int16(2000), sink.next(t)[0])
	assert.Equal(t, 2, sink.opened)
	assert.Equal(t, 1, sink.idled)
}

func TestTrackPlayer_Rewind(t *testing.T) {
	sink := newFakeSink()
	p := newTrackPlayer(testTrack(3), sink, nil)
	defer p.Close()

	require.NoError(t, p.Play())
	sink.next(t)
	sink.next(t)
	p.Pause()
	p.Rewind()
	require.NoError(t, p.Play())
	assert.Equal(t, int16(1000), sink.next(t)[0])
}

func TestTrackPlayer_Volume(t *testing.T) {
	sink := newFakeSink()
	p := newTrackPlayer(testTrack(2), sink, nil)
	defer p.Close()

	p.SetVolume(50)
	require.NoError(t, p.Play())
	assert.Equal(t, int16(500), sink.next(t)[0])

	p.SetVolume(0)
	sink.next(t) // may already have been scaled before the change
	assert.Equal(t, int16(0), sink.next(t)[0])

	p.SetVolume(150)
	sink.next(t)
	assert.Equal(t, int16(1000), sink.next(t)[0], "clamped to full scale")
}

func TestTrackPlayer_Unavailable(t *testing.T) {
	p := newTrackPlayer(nil, newFakeSink(), nil)
	assert.ErrorIs(t, p.Play(), ErrAudioUnavailable)

	sink := newFakeSink()
	sink.openErr = errors.New("voice join failed")
	p = newTrackPlayer(testTrack(1), sink, nil)
	assert.ErrorContains(t, p.Play(), "voice join failed")
	p.Pause()
	assert.Equal(t, 0, sink.idled)

	assert.ErrorIs(t, noopPlayer{}.Play(), ErrAudioUnavailable)
}

func TestAsyncPlayer_RunsCommandsInOrder(t *testing.T) {
	fp := &fakePlayer{playErr: ErrAudioUnavailable}
	a := newAsyncPlayer(fp, nil)

	assert.NoError(t, a.Play(), "failures are logged by the worker")
	a.Pause()
	a.Rewind()
	a.SetVolume(40)
	a.Close()
	a.Close()
	assert.NoError(t, a.Play())

	select {
	case <-a.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after close")
	}
	assert.Equal(t, []string{"play", "pause", "rewind", "close"}, fp.calls)
	assert.Equal(t, 40, fp.volume)
}

func TestScale(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.Int16().Draw(t, "sample")
		v := rapid.IntRange(0, 100).Draw(t, "volume")

		got := scale([]int16{s}, v)[0]

		assert.Equal(t, int16(int32(s)*int32(v)/100), got)
		assert.LessOrEqual(t, absInt32(int32(got)), absInt32(int32(s)))
	})

	assert.Equal(t, []int16{0, 0}, scale([]int16{32767, -32768}, 0))
	assert.Equal(t, []int16{32767, -32768}, scale([]int16{32767, -32768}, 100))
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestReadPCMTrack(t *testing.T) {
	var buf bytes.Buffer
	samples := make([]int16, frameSize*channels*2+10)
	for i := range samples {
		samples[i] = int16(i % 100)
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, samples))

	track, err := readPCMTrack(&buf)
	require.NoError(t, err)
	require.Len(t, track, 2, "partial frame dropped")
	assert.Len(t, track[0], frameSize*channels)
	assert.Equal(t, int16(99), track[0][99])
	assert.InDelta(t, 0.04, track.Duration(), 1e-9)

	track, err = readPCMTrack(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, track)
}
