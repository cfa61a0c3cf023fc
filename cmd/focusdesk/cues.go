package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/focusdesk/internal/audio"
	"github.com/jmylchreest/focusdesk/internal/timer"
)

var cuesPlayOpts struct {
	duration time.Duration
}

var cuesCmd = &cobra.Command{
	Use:   "cues",
	Short: "List the completion and ambient cues",
	Long: `List the completion cue and the ambient cues with their sources.

Ambient cues come from [audio.cues] in the config file and from *.mp3 files
in the cue directory.`,
	Args: cobra.NoArgs,
	RunE: runCues,
}

var cuesPlayCmd = &cobra.Command{
	Use:   "play [name]",
	Short: "Play a cue to check that it works",
	Long: `Play a cue through the speaker. Without a name the completion cue is played.

Examples:
  focusdesk cues play
  focusdesk cues play rain --duration 10s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCuesPlay,
}

func init() {
	rootCmd.AddCommand(cuesCmd)
	cuesCmd.AddCommand(cuesPlayCmd)

	cuesPlayCmd.Flags().DurationVarP(&cuesPlayOpts.duration, "duration", "d", 0,
		"How long to play (default: the configured chime duration)")
}

// ambientCues returns the configured ambient cue names, sorted.
func ambientCues() []string {
	names := make([]string, 0, len(cfg.Audio.Cues))
	for name := range cfg.Audio.Cues {
		names = append(names, name)
	}

	entries, err := os.ReadDir(cueDir())
	if err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to read cue directory", "dir", cueDir(), "error", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}

	slices.Sort(names)
	return slices.Compact(names)
}

func cueDir() string {
	return audio.LocalPath(cfg.Audio.CueDir)
}

// describeSource reports where a cue comes from and whether it is usable.
func describeSource(source string) string {
	switch {
	case source == "":
		return "none"
	case strings.HasPrefix(source, audio.BuiltinScheme):
		return "built in"
	}

	path := audio.LocalPath(source)
	if path == "" {
		return "remote"
	}
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return fmt.Sprintf("%s, modified %s", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
}

func runCues(cmd *cobra.Command, args []string) error {
	if !cfg.Audio.Enabled {
		fmt.Println("Audio is disabled in the config")
	}

	fmt.Println("Completion cue:")
	fmt.Printf("  %s (%s)\n", cfg.Audio.CompletionCue, describeSource(cfg.Audio.CompletionCue))

	cues := ambientCues()
	fmt.Println("Ambient cues:")
	if len(cues) == 0 {
		fmt.Printf("  none (add [audio.cues] entries or *.mp3 files to %s)\n", cueDir())
		return nil
	}
	for _, name := range cues {
		source := cfg.CueSource(name)
		fmt.Printf("  %-12s %s (%s)\n", name, source, describeSource(source))
	}
	return nil
}

func runCuesPlay(cmd *cobra.Command, args []string) error {
	name, source := timer.DefaultCueName, cfg.Audio.CompletionCue
	if len(args) == 1 {
		name, source = args[0], cfg.CueSource(args[0])
	}
	if source == "" {
		return fmt.Errorf("cue %s has no source", name)
	}

	duration := cuesPlayOpts.duration
	if duration <= 0 {
		duration = cfg.Audio.ChimeDuration.Duration()
	}

	engine := audio.NewEngine(
		audio.WithLogger(logger),
		audio.WithVolume(float64(cfg.Audio.Volume)/100),
	)
	defer engine.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	select {
	case <-engine.Load(ctx, name, source):
	case <-ctx.Done():
		return fmt.Errorf("loading %s: %w", name, ctx.Err())
	}
	if !engine.IsLoaded(name) {
		return fmt.Errorf("failed to load cue %s from %s (run with -v for details)", name, source)
	}

	fmt.Printf("Playing %s for %s\n", name, duration)
	engine.Play(name)
	if !engine.IsPlaying() {
		return errors.New("audio output unavailable")
	}

	select {
	case <-time.After(duration):
	case <-cmd.Context().Done():
	}
	engine.Stop(name)
	return nil
}
