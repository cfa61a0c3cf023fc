package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/audio"
	"github.com/jmylchreest/focusdesk/internal/countdown"
	"github.com/jmylchreest/focusdesk/internal/history"
	"github.com/jmylchreest/focusdesk/internal/notify"
	"github.com/jmylchreest/focusdesk/internal/timer"
	"github.com/jmylchreest/focusdesk/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive countdown",
	Long: `Launch the interactive countdown in the terminal.

The countdown ticks while the TUI is open. Changes made with the set, reset
and toggle commands from another terminal (or a status bar) show up live.

Key bindings:
  space/p     Start or pause
  +/-, ↑/↓    Add or remove a minute (while paused)
  1-9         Select a preset duration
  a           Save the selected duration as a preset
  x           Remove the selected duration from the presets
  r           Reset to the selected duration
  m           Play or stop the selected ambient cue
  n           Select the next ambient cue
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := audio.NewEngine(
		audio.WithLogger(logger),
		audio.WithVolume(float64(cfg.Audio.Volume)/100),
	)
	defer engine.Close()

	opts := timer.Options{
		TickInterval:  cfg.Timer.TickInterval.Duration(),
		ChimeDuration: cfg.Audio.ChimeDuration.Duration(),
		Logger:        logger,
	}

	var cues []string
	if cfg.Audio.Enabled {
		opts.CueSource = cfg.Audio.CompletionCue
		cues = ambientCues()
		for _, name := range cues {
			engine.Load(ctx, name, cfg.CueSource(name))
		}
		if cfg.Audio.Watch {
			if watcher := startCueWatcher(ctx, engine, opts.CueSource, cues); watcher != nil {
				defer func() { _ = watcher.Stop() }()
			}
		}
	}

	var sessions tui.SessionSource
	if cfg.History.Enabled {
		log, err := history.Open(historyPath())
		if err != nil {
			logger.Warn("session history unavailable", "error", err)
		} else {
			defer func() { _ = log.Close() }()
			opts.Recorder = log
			sessions = log
		}
	}

	if cfg.Notify.Enabled {
		client, err := notify.Connect(
			notify.WithLogger(logger),
			notify.WithTimeout(cfg.Notify.Timeout.Duration()),
		)
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			defer func() { _ = client.Close() }()
			opts.Notifier = client
		}
	}

	orch := timer.NewOrchestrator(countdownStore, engine, opts)

	fw, err := countdown.NewFileWatcher(countdownStore, statePath(), logger)
	if err != nil {
		logger.Warn("failed to create state file watcher", "error", err)
	} else {
		if err := fw.Start(ctx); err != nil {
			logger.Warn("failed to start state file watcher", "error", err)
		}
		defer func() { _ = fw.Stop() }()
	}

	runCtx, cancel := context.WithCancel(ctx)
	orchDone := make(chan error, 1)
	go func() { orchDone <- orch.Run(runCtx) }()

	err = tui.Run(ctx, tui.RunOptions{Options: tui.Options{
		Store:   countdownStore,
		Phases:  orch,
		Ambient: engine,
		Cues:    cues,
		History: sessions,
		Logger:  logger,
	}})

	cancel()
	if runErr := <-orchDone; runErr != nil {
		logger.Warn("timer stopped with error", "error", runErr)
	}
	return err
}

// startCueWatcher reloads local cue files when they change on disk.
func startCueWatcher(ctx context.Context, engine *audio.Engine, completion string, cues []string) *audio.CueWatcher {
	watcher, err := audio.NewCueWatcher(engine, logger)
	if err != nil {
		logger.Warn("failed to create cue watcher", "error", err)
		return nil
	}

	if completion != "" {
		if err := watcher.Watch(timer.DefaultCueName, completion); err != nil {
			logger.Warn("failed to watch cue", "cue", timer.DefaultCueName, "error", err)
		}
	}
	for _, name := range cues {
		if err := watcher.Watch(name, cfg.CueSource(name)); err != nil {
			logger.Warn("failed to watch cue", "cue", name, "error", err)
		}
	}

	watcher.Start(ctx)
	return watcher
}
