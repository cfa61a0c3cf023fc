// Package audio owns decoded cue buffers and the voices currently sounding.
// It uses the beep library to decode WAV, OGG, and MP3 cues, mixes them
// through the speaker, and keeps at most one live voice per cue.
package audio
