package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Track format: raw PCM, signed 16-bit little endian, 48 kHz, interleaved stereo.
const (
	sampleRate = 48000
	channels   = 2

	// frameSize is the number of samples per channel in one 20ms frame.
	frameSize = 960
)

// pcmTrack is a decoded track split into 20ms frames of interleaved samples.
type pcmTrack [][]int16

func (t pcmTrack) Duration() float64 {
	return float64(len(t)*frameSize) / sampleRate
}

func loadPCMTrack(path string) (pcmTrack, error) {
	if path == "" {
		log.Info("no track path - audio disabled")
		return nil, nil
	}
	log.Info("loading track", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}
	defer f.Close() //nolint

	track, err := readPCMTrack(f)
	if err != nil {
		return nil, fmt.Errorf("read track %s: %w", path, err)
	}
	log.Info("loaded track", "frames", len(track), "seconds", track.Duration())
	return track, nil
}

// readPCMTrack reads whole frames until EOF. A trailing partial frame is dropped.
func readPCMTrack(r io.Reader) (pcmTrack, error) {
	var track pcmTrack
	for {
		frame := make([]int16, frameSize*channels)
		err := binary.Read(r, binary.LittleEndian, frame)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return track, nil
			}
			return nil, err
		}
		track = append(track, frame)
	}
}
