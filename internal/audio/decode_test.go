package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"/audio/rain.mp3", ".mp3"},
		{"/audio/Rain.WAV", ".wav"},
		{"https://cdn.example.com/cues/forest.ogg?v=3", ".ogg"},
		{"file:///tmp/bell.wav", ".wav"},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, formatOf(tt.source))
		})
	}
}

func TestDecode_SameRate(t *testing.T) {
	data := wavFixture(t, DefaultSampleRate, 4410)

	buffer, err := decode("tone.wav", data, DefaultSampleRate)
	require.NoError(t, err)
	assert.Equal(t, 4410, buffer.Len())
	assert.Equal(t, DefaultSampleRate, buffer.Format().SampleRate)
}

func TestDecode_Resamples(t *testing.T) {
	data := wavFixture(t, 22050, 2205)

	buffer, err := decode("tone.wav", data, DefaultSampleRate)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleRate, buffer.Format().SampleRate)
	assert.InDelta(t, 100*time.Millisecond, DefaultSampleRate.D(buffer.Len()), float64(5*time.Millisecond))
}

func TestDecode_Errors(t *testing.T) {
	_, err := decode("bell.flac", []byte("x"), DefaultSampleRate)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = decode("bell.wav", []byte("not a riff file"), DefaultSampleRate)
	assert.Error(t, err)

	_, err = decode("bell.mp3", nil, DefaultSampleRate)
	assert.Error(t, err)
}

func TestChime(t *testing.T) {
	buffer, err := Chime(DefaultSampleRate)
	require.NoError(t, err)

	assert.InDelta(t, 1500*time.Millisecond, DefaultSampleRate.D(buffer.Len()), float64(time.Millisecond))

	samples := make([][2]float64, buffer.Len())
	n, ok := buffer.Streamer(0, buffer.Len()).Stream(samples)
	require.True(t, ok)
	require.Equal(t, buffer.Len(), n)

	var peak float64
	for _, s := range samples {
		peak = max(peak, s[0], -s[0])
		assert.LessOrEqual(t, s[0], 1.0)
		assert.GreaterOrEqual(t, s[0], -1.0)
	}
	assert.Greater(t, peak, 0.1, "chime should be audible")

	// Trailing rest is silent
	assert.Equal(t, [2]float64{}, samples[len(samples)-1])
}
