// Package timer couples the countdown store with the audio engine. An
// Orchestrator owns the single tick loop, plays the completion cue once per
// completion and stops it again after a bounded delay.
package timer
