package audio

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"
)

// ErrVoiceStopped is returned when starting a voice that has already been used.
var ErrVoiceStopped = errors.New("voice already started or stopped")

// VoiceState is the lifecycle of a single playback handle.
type VoiceState int

const (
	// VoiceIdle means the voice has been created but not started.
	VoiceIdle VoiceState = iota
	// VoicePlaying means the voice is in the mix.
	VoicePlaying
	// VoiceStopped is terminal. A stopped voice is never restarted.
	VoiceStopped
)

// String returns the name of the state.
func (s VoiceState) String() string {
	switch s {
	case VoiceIdle:
		return "idle"
	case VoicePlaying:
		return "playing"
	case VoiceStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Voice is one live playback of a cue. Restarting a cue means creating a new Voice.
type Voice struct {
	mu    sync.Mutex
	cue   string
	ctrl  *beep.Ctrl
	out   Output
	state VoiceState
}

func newVoice(cue string, s beep.Streamer, out Output) *Voice {
	return &Voice{
		cue:  cue,
		ctrl: &beep.Ctrl{Streamer: s},
		out:  out,
	}
}

// Cue returns the name of the cue this voice plays.
func (v *Voice) Cue() string {
	return v.cue
}

// State returns the current lifecycle state.
func (v *Voice) State() VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Start adds the voice to the mix. Only an idle voice can start.
func (v *Voice) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != VoiceIdle {
		return ErrVoiceStopped
	}
	v.out.Play(v.ctrl)
	v.state = VoicePlaying
	return nil
}

// Stop silences the voice and detaches its streamer so the mixer drops it.
// Stopping twice is harmless.
func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == VoicePlaying {
		v.out.Lock()
		v.ctrl.Streamer = nil
		v.out.Unlock()
	}
	v.state = VoiceStopped
}
