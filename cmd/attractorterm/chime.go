package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const chimeSampleRate = beep.SampleRate(44100)

// chimePlayer plays a short rising two-tone chime on the speaker.
type chimePlayer struct {
	tones []float64
	note  time.Duration
}

func newChimePlayer() (*chimePlayer, error) {
	if err := speaker.Init(chimeSampleRate, chimeSampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &chimePlayer{tones: []float64{660, 990}, note: 90 * time.Millisecond}, nil
}

// streamer builds the chime as a sequence of sine notes.
func (c *chimePlayer) streamer() (beep.Streamer, error) {
	notes := make([]beep.Streamer, 0, len(c.tones))
	for _, freq := range c.tones {
		sine, err := generators.SineTone(chimeSampleRate, freq)
		if err != nil {
			return nil, err
		}
		notes = append(notes, beep.Take(chimeSampleRate.N(c.note), sine))
	}
	return beep.Seq(notes...), nil
}

// play starts the chime without waiting for it to finish. A nil player is
// silent.
func (c *chimePlayer) play() {
	if c == nil {
		return
	}
	s, err := c.streamer()
	if err != nil {
		return
	}
	speaker.Play(s)
}
