package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is the rate the speaker runs at; cues are resampled to it on load.
const DefaultSampleRate = beep.SampleRate(44100)

// Output is the sound device voices are mixed into.
type Output interface {
	// Init prepares the device. Calls after the first successful one are no-ops.
	Init(sampleRate beep.SampleRate) error

	// Play adds a streamer to the mix.
	Play(s beep.Streamer)

	// Lock and Unlock guard streamer state the mixer is reading.
	Lock()
	Unlock()

	// Close stops all playback and releases the device.
	Close()
}

// speakerOutput plays through the process-wide beep speaker.
type speakerOutput struct {
	mu          sync.Mutex
	initialized bool
}

// NewSpeakerOutput returns an Output backed by the system speaker.
func NewSpeakerOutput() Output {
	return &speakerOutput{}
}

// Init initializes the speaker if not already done.
func (o *speakerOutput) Init(sampleRate beep.SampleRate) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := sampleRate.N(time.Millisecond * 100)

	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	o.initialized = true
	return nil
}

func (o *speakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (o *speakerOutput) Lock() {
	speaker.Lock()
}

func (o *speakerOutput) Unlock() {
	speaker.Unlock()
}

// Close stops all playback and releases the speaker.
func (o *speakerOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		speaker.Close()
		o.initialized = false
	}
}
