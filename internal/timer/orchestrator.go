package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/focusdesk/internal/countdown"
)

const (
	// DefaultCueName is the cue the completion sound is cached under.
	DefaultCueName = "completion-cue"
	// DefaultTickInterval is the wall-clock period of one decrement.
	DefaultTickInterval = time.Second
	// DefaultChimeDuration is how long the completion cue plays before it is stopped.
	DefaultChimeDuration = 6500 * time.Millisecond
)

// ErrAlreadyRunning is returned by Run while another Run is active.
var ErrAlreadyRunning = errors.New("orchestrator already running")

// Phase is the coarse state of the orchestrator.
type Phase int

const (
	// PhaseUninitialized means Run has not started yet or has returned.
	PhaseUninitialized Phase = iota
	// PhaseHydrating means the persisted countdown is still loading; nothing ticks.
	PhaseHydrating
	// PhaseIdle means hydrated but not counting down.
	PhaseIdle
	// PhaseRunning means the countdown is unpaused with time left.
	PhaseRunning
	// PhaseCompleted means the completion cue is sounding.
	PhaseCompleted
)

// String returns the name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseHydrating:
		return "hydrating"
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CuePlayer is the part of the audio engine the orchestrator drives.
type CuePlayer interface {
	Load(ctx context.Context, cue, source string) <-chan struct{}
	PlayBackground(cue string)
	Stop(cue string)
}

// Notifier announces a finished countdown to the user.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
}

// Recorder keeps a record of finished countdowns.
type Recorder interface {
	Record(minutes int, completedAt time.Time) error
}

// Options configures an Orchestrator. Zero values select the defaults.
type Options struct {
	CueName       string
	CueSource     string
	TickInterval  time.Duration
	ChimeDuration time.Duration

	Notifier Notifier
	Recorder Recorder
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.CueName == "" {
		o.CueName = DefaultCueName
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.ChimeDuration <= 0 {
		o.ChimeDuration = DefaultChimeDuration
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Orchestrator drives the countdown store once per tick and plays the
// completion cue when the store reports a completion.
type Orchestrator struct {
	store  *countdown.Store
	player CuePlayer
	opts   Options
	logger *slog.Logger

	loadOnce sync.Once
	cueReady <-chan struct{}

	mu       sync.Mutex
	phase    Phase
	running  bool
	autoStop *time.Timer
	// Bumped on every completion so a stale auto-stop cannot end a newer chime
	chimeGen uint64

	liveTickers atomic.Int32
}

// NewOrchestrator creates an orchestrator over store and player.
func NewOrchestrator(store *countdown.Store, player CuePlayer, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		store:  store,
		player: player,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// View returns the read projection shown by presentation code.
func (o *Orchestrator) View() countdown.Projection {
	return o.store.Projection()
}

// CueReady returns a channel closed once the completion cue load has finished,
// or nil before the first Run.
func (o *Orchestrator) CueReady() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cueReady
}

// Run mounts the orchestrator: it loads the completion cue, hydrates the
// store and ticks until ctx is done. Only one Run may be active at a time.
// On return the ticker and any pending auto-stop are cancelled and the
// completion cue is stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.running = true
	o.mu.Unlock()

	o.loadCue(ctx)

	events := o.store.Subscribe()
	defer o.store.Unsubscribe(events)

	var hydrated chan error
	if !o.store.State().IsHydrated {
		o.setPhase(PhaseHydrating)
		hydrated = make(chan error, 1)
		go func() { hydrated <- o.store.Hydrate(ctx) }()
	}

	var ticks *tickHandle
	defer func() {
		ticks.Release()
		o.teardown()
	}()

	// Hold exactly one ticker while hydrated and none otherwise
	rearm := func() {
		st := o.store.State()
		switch {
		case st.IsHydrated && ticks == nil:
			ticks = acquireTicker(o.opts.TickInterval, &o.liveTickers)
			o.logger.Debug("tick loop armed", "interval", o.opts.TickInterval)
		case !st.IsHydrated && ticks != nil:
			ticks.Release()
			ticks = nil
			o.logger.Debug("tick loop released")
		}
		o.syncPhase(st)
	}
	rearm()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-hydrated:
			hydrated = nil
			if err != nil {
				o.logger.Warn("failed to load persisted countdown, using defaults", "error", err)
			}
			rearm()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch ev.Type {
			case countdown.ChangeTypeDuration, countdown.ChangeTypeReset, countdown.ChangeTypeReloaded:
				o.cancelChime()
			}
			rearm()

		case <-ticks.C():
			o.Tick()
		}
	}
}

// loadCue starts the completion cue load exactly once per orchestrator.
func (o *Orchestrator) loadCue(ctx context.Context) {
	o.loadOnce.Do(func() {
		if o.opts.CueSource == "" {
			o.logger.Debug("no completion cue configured")
			done := make(chan struct{})
			close(done)
			o.mu.Lock()
			o.cueReady = done
			o.mu.Unlock()
			return
		}
		// The load outlives this mount so a quick remount does not lose it
		ready := o.player.Load(context.WithoutCancel(ctx), o.opts.CueName, o.opts.CueSource)
		o.mu.Lock()
		o.cueReady = ready
		o.mu.Unlock()
	})
}

// Tick performs one tick: if the store is hydrated with time left it is
// decremented, and a decrement that completes the countdown starts the
// completion cue.
func (o *Orchestrator) Tick() {
	st := o.store.State()
	if !st.IsHydrated || st.RemainingSeconds <= 0 {
		return
	}

	next := o.store.Decrement()
	if next.JustCompleted {
		o.complete(next)
		return
	}
	o.syncPhase(next)
}

// complete plays the completion cue and arms its auto-stop.
func (o *Orchestrator) complete(st countdown.State) {
	o.mu.Lock()
	if o.autoStop != nil {
		o.autoStop.Stop()
	}
	o.chimeGen++
	gen := o.chimeGen
	o.phase = PhaseCompleted
	o.player.PlayBackground(o.opts.CueName)
	o.autoStop = time.AfterFunc(o.opts.ChimeDuration, func() { o.finishChime(gen) })
	o.mu.Unlock()

	o.logger.Info("countdown completed", "minutes", st.SelectedMinutes)
	o.announce(st)
}

// announce sends the notification and history record for a completion.
func (o *Orchestrator) announce(st countdown.State) {
	if o.opts.Recorder != nil {
		if err := o.opts.Recorder.Record(st.SelectedMinutes, time.Now()); err != nil {
			o.logger.Warn("failed to record session", "error", err)
		}
	}

	if o.opts.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body := fmt.Sprintf("%d minute focus session finished", st.SelectedMinutes)
		if err := o.opts.Notifier.Notify(ctx, "Time is up", body); err != nil {
			o.logger.Warn("failed to send notification", "error", err)
		}
	}
}

// finishChime is the auto-stop callback for completion gen.
func (o *Orchestrator) finishChime(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.chimeGen {
		return
	}
	o.stopChimeLocked()
	if o.phase == PhaseCompleted {
		o.phase = phaseFor(o.store.State())
	}
}

// cancelChime ends a sounding completion cue early.
func (o *Orchestrator) cancelChime() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseCompleted {
		return
	}
	o.stopChimeLocked()
	o.phase = phaseFor(o.store.State())
}

func (o *Orchestrator) stopChimeLocked() {
	if o.autoStop != nil {
		o.autoStop.Stop()
		o.autoStop = nil
	}
	o.chimeGen++
	o.player.Stop(o.opts.CueName)
}

func (o *Orchestrator) teardown() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.autoStop != nil || o.phase == PhaseCompleted {
		o.stopChimeLocked()
	}
	o.phase = PhaseUninitialized
	o.running = false
	o.logger.Debug("orchestrator stopped")
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = p
}

// syncPhase derives the phase from st unless the completion cue is sounding.
func (o *Orchestrator) syncPhase(st countdown.State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase == PhaseCompleted {
		return
	}
	o.phase = phaseFor(st)
}

func phaseFor(st countdown.State) Phase {
	switch {
	case !st.IsHydrated:
		return PhaseHydrating
	case st.Running():
		return PhaseRunning
	default:
		return PhaseIdle
	}
}
