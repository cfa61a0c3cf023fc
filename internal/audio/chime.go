package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
)

// BuiltinScheme prefixes cue sources that are synthesized instead of fetched.
const BuiltinScheme = "builtin:"

// BuiltinChime is the source name of the synthesized completion chime.
const BuiltinChime = BuiltinScheme + "chime"

type chimeNote struct {
	freq     float64
	duration time.Duration
}

// chimeNotes is a falling two-note bell followed by a short rest so looping
// playback has breathing room between strikes.
var chimeNotes = []chimeNote{
	{freq: 1318.51, duration: 250 * time.Millisecond},
	{freq: 880.00, duration: 550 * time.Millisecond},
}

const chimeRest = 700 * time.Millisecond

// Chime synthesizes the built-in completion chime at the given sample rate.
func Chime(rate beep.SampleRate) (*beep.Buffer, error) {
	buffer := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})

	for _, note := range chimeNotes {
		tone, err := generators.SineTone(rate, note.freq)
		if err != nil {
			return nil, err
		}
		n := rate.N(note.duration)
		buffer.Append(decay(beep.Take(n, tone), n, 0.35))
	}
	buffer.Append(beep.Silence(rate.N(chimeRest)))

	return buffer, nil
}

// decay applies an exponential-ish fade from gain to zero over n samples.
func decay(s beep.Streamer, n int, gain float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		got, ok := s.Stream(samples)
		for i := range samples[:got] {
			remaining := 1 - float64(pos)/float64(n)
			env := gain * remaining * remaining
			samples[i][0] *= env
			samples[i][1] *= env
			pos++
		}
		return got, ok
	})
}
