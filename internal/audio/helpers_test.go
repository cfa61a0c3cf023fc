package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/require"
)

// fakeOutput records what would have been sent to the speaker.
type fakeOutput struct {
	mu      sync.Mutex
	mix     sync.Mutex
	inits   int
	initErr error
	played  []beep.Streamer
	closed  bool
}

func (o *fakeOutput) Init(beep.SampleRate) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits++
	return o.initErr
}

func (o *fakeOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.played = append(o.played, s)
}

func (o *fakeOutput) Lock()   { o.mix.Lock() }
func (o *fakeOutput) Unlock() { o.mix.Unlock() }

func (o *fakeOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func (o *fakeOutput) playedStreamers() []beep.Streamer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]beep.Streamer(nil), o.played...)
}

// sounding reports whether a streamer handed to the output still produces audio.
func sounding(s beep.Streamer) bool {
	_, ok := s.Stream(make([][2]float64, 16))
	return ok
}

// countingFetcher serves fixed bytes and counts calls.
type countingFetcher struct {
	calls atomic.Int32
	data  []byte
	err   error
	gate  chan struct{}
}

func (f *countingFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

var errFetch = errors.New("network unreachable")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wavFixture encodes a short sine tone as WAV bytes.
func wavFixture(t *testing.T, rate beep.SampleRate, samples int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	tone, err := generators.SineTone(rate, 440)
	require.NoError(t, err)

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Take(samples, tone), format))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// silentBuffer returns a buffer of n silent samples.
func silentBuffer(n int) *beep.Buffer {
	buffer := beep.NewBuffer(beep.Format{SampleRate: DefaultSampleRate, NumChannels: 2, Precision: 2})
	buffer.Append(beep.Silence(n))
	return buffer
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *fakeOutput) {
	t.Helper()
	out := &fakeOutput{}
	base := []EngineOption{WithOutput(out), WithLogger(quietLogger())}
	e := NewEngine(append(base, opts...)...)
	return e, out
}
