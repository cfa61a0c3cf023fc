package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"golang.org/x/sync/singleflight"
)

// Engine owns decoded cue buffers and the voices currently sounding.
// Buffers and voices are only ever changed through its methods.
type Engine struct {
	mu     sync.Mutex
	logger *slog.Logger

	out        Output
	fetcher    Fetcher
	sampleRate beep.SampleRate

	// Volume control (0.0 to 1.0)
	volume float64

	buffers map[string]*beep.Buffer
	voices  map[string]*Voice

	// Foreground voice shown by the player UI
	current string
	playing bool

	loads singleflight.Group
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOutput sets the sound device. Defaults to the system speaker.
func WithOutput(out Output) EngineOption {
	return func(e *Engine) { e.out = out }
}

// WithFetcher sets how cue bytes are retrieved. Defaults to a SourceFetcher.
func WithFetcher(f Fetcher) EngineOption {
	return func(e *Engine) { e.fetcher = f }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSampleRate sets the rate cues are resampled to.
func WithSampleRate(rate beep.SampleRate) EngineOption {
	return func(e *Engine) { e.sampleRate = rate }
}

// WithVolume sets the initial volume (0.0 to 1.0).
func WithVolume(volume float64) EngineOption {
	return func(e *Engine) { e.volume = clampVolume(volume) }
}

// NewEngine creates an audio engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:     slog.Default(),
		sampleRate: DefaultSampleRate,
		volume:     1.0,
		buffers:    make(map[string]*beep.Buffer),
		voices:     make(map[string]*Voice),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.out == nil {
		e.out = NewSpeakerOutput()
	}
	if e.fetcher == nil {
		e.fetcher = NewSourceFetcher()
	}
	return e
}

// SampleRate returns the rate cue buffers are stored at.
func (e *Engine) SampleRate() beep.SampleRate {
	return e.sampleRate
}

// Load fetches and decodes a cue in the background. A cue that is already
// cached is not fetched again, and concurrent loads of one cue share a single
// fetch. The returned channel is closed once the cue is cached, the load
// has failed or ctx is done; failures are logged and leave the cue absent.
// The shared fetch outlives any single caller's ctx.
func (e *Engine) Load(ctx context.Context, cue, source string) <-chan struct{} {
	done := make(chan struct{})

	if e.IsLoaded(cue) {
		close(done)
		return done
	}

	fetchCtx := context.WithoutCancel(ctx)
	results := e.loads.DoChan(cue, func() (any, error) {
		if e.IsLoaded(cue) {
			return nil, nil
		}

		buffer, err := e.fetchAndDecode(fetchCtx, source)
		if err != nil {
			return nil, err
		}

		e.Register(cue, buffer)
		return nil, nil
	})

	go func() {
		defer close(done)
		select {
		case res := <-results:
			if res.Err != nil {
				e.logger.Warn("failed to load cue", "cue", cue, "source", source, "error", res.Err)
				return
			}
			e.logger.Debug("loaded cue", "cue", cue, "source", source, "shared", res.Shared)
		case <-ctx.Done():
		}
	}()

	return done
}

func (e *Engine) fetchAndDecode(ctx context.Context, source string) (*beep.Buffer, error) {
	if strings.HasPrefix(source, BuiltinScheme) {
		if source != BuiltinChime {
			return nil, fmt.Errorf("unknown builtin cue %q", source)
		}
		return Chime(e.sampleRate)
	}

	data, err := e.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return decode(source, data, e.sampleRate)
}

// Register caches an already-decoded buffer under cue, replacing any previous one.
func (e *Engine) Register(cue string, buffer *beep.Buffer) {
	if buffer == nil {
		return
	}
	e.mu.Lock()
	e.buffers[cue] = buffer
	e.mu.Unlock()
}

// IsLoaded reports whether a cue is cached and ready to play.
func (e *Engine) IsLoaded(cue string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.buffers[cue]
	return ok
}

// Cues returns the names of all cached cues, sorted.
func (e *Engine) Cues() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.buffers))
	for name := range e.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invalidate drops a cue from the cache. A voice already playing it keeps playing.
func (e *Engine) Invalidate(cue string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.buffers, cue)
}

// Play makes cue the foreground voice, stopping whatever was in the foreground.
// Playing a cue that is not loaded yet does nothing.
func (e *Engine) Play(cue string) {
	e.start(cue, true)
}

// PlayBackground plays cue without touching the foreground voice.
func (e *Engine) PlayBackground(cue string) {
	e.start(cue, false)
}

func (e *Engine) start(cue string, foreground bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked(cue, foreground)
}

func (e *Engine) startLocked(cue string, foreground bool) {
	buffer, ok := e.buffers[cue]
	if !ok {
		e.logger.Debug("cue not ready", "cue", cue)
		return
	}

	if err := e.out.Init(e.sampleRate); err != nil {
		e.logger.Warn("audio output unavailable", "cue", cue, "error", err)
		return
	}

	if foreground && e.current != "" && e.current != cue {
		e.stopLocked(e.current)
	}
	// At most one live voice per cue
	e.stopLocked(cue)

	v := newVoice(cue, e.streamerFor(buffer), e.out)
	if err := v.Start(); err != nil {
		e.logger.Warn("failed to start voice", "cue", cue, "error", err)
		return
	}
	e.voices[cue] = v

	if foreground {
		e.current = cue
		e.playing = true
	}
	e.logger.Debug("playing cue", "cue", cue, "foreground", foreground)
}

// streamerFor builds a looping, volume-adjusted streamer over a buffer.
func (e *Engine) streamerFor(buffer *beep.Buffer) beep.Streamer {
	var s beep.Streamer = beep.Loop(-1, buffer.Streamer(0, buffer.Len()))

	if e.volume < 1.0 {
		s = &effects.Volume{
			Streamer: s,
			Base:     2,
			Volume:   math.Log2(e.volume),
			Silent:   e.volume <= 0,
		}
	}
	return s
}

// Pause stops the foreground voice. The cue stays selected.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != "" {
		e.stopLocked(e.current)
	}
}

// Stop stops the voice playing cue, if any.
func (e *Engine) Stop(cue string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked(cue)
}

func (e *Engine) stopLocked(cue string) {
	if v, ok := e.voices[cue]; ok {
		v.Stop()
		delete(e.voices, cue)
	}
	if cue == e.current {
		e.playing = false
	}
}

// Toggle stops cue if it is the playing foreground voice, otherwise plays it.
func (e *Engine) Toggle(cue string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == cue && e.playing {
		e.stopLocked(cue)
		return
	}
	e.startLocked(cue, true)
}

// CurrentCue returns the foreground cue and whether one has been selected.
func (e *Engine) CurrentCue() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.current != ""
}

// IsPlaying reports whether the foreground voice is sounding.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// HasVoice reports whether cue has a live voice.
func (e *Engine) HasVoice(cue string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.voices[cue]
	return ok
}

// VoiceCount returns the number of live voices.
func (e *Engine) VoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// SetVolume sets the playback volume (0.0 to 1.0) for voices started afterwards.
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = clampVolume(volume)
	e.logger.Debug("volume set", "volume", e.volume)
}

// Volume returns the current volume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Close stops every voice, releases the output and clears the cache.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for cue := range e.voices {
		e.stopLocked(cue)
	}
	e.out.Close()
	e.buffers = make(map[string]*beep.Buffer)
	e.logger.Debug("audio engine closed")
}

func clampVolume(volume float64) float64 {
	return max(0, min(volume, 1))
}
