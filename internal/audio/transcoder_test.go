package audio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aura/internal/domain/errors"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTone(t *testing.T, path string, rate, channels int, seconds float64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	frames := int(float64(rate) * seconds)
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(rate)) * 16000)
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func readWAV(t *testing.T, path string) (*wav.Decoder, *goaudio.IntBuffer) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	return d, buf
}

func TestTranscoderConvertWAV(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		channels int
		seconds  float64
		maxDur   time.Duration
		want     struct {
			frames int
		}
	}{
		{
			name: "stereo 44.1 kHz", rate: 44100, channels: 2, seconds: 1,
			want: struct{ frames int }{frames: 16000},
		},
		{
			name: "mono 8 kHz upsampled", rate: 8000, channels: 1, seconds: 0.5,
			want: struct{ frames int }{frames: 8000},
		},
		{
			name: "clamped to max duration", rate: 16000, channels: 1, seconds: 2, maxDur: time.Second,
			want: struct{ frames int }{frames: 16000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "upload")
			writeTone(t, src, tt.rate, tt.channels, tt.seconds)

			dst, err := NewTranscoder("", tt.maxDur).Convert(context.Background(), src)
			require.NoError(t, err)
			assert.Equal(t, src+".wav", dst)

			d, buf := readWAV(t, dst)
			assert.Equal(t, uint16(1), d.NumChans)
			assert.Equal(t, uint32(TargetSampleRate), d.SampleRate)
			assert.Equal(t, uint16(TargetBitDepth), d.BitDepth)
			assert.Equal(t, tt.want.frames, len(buf.Data))
		})
	}
}

func TestTranscoderUnsupported(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ffmpeg  string
		want    error
	}{
		{
			name:    "webm without ffmpeg",
			content: []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1F},
			want:    errors.ErrUnsupportedAudio,
		},
		{
			name:    "empty upload",
			content: nil,
			want:    errors.ErrUnsupportedAudio,
		},
		{
			name:    "missing ffmpeg binary",
			content: []byte("not audio at all"),
			ffmpeg:  filepath.Join(os.TempDir(), "definitely-not-ffmpeg"),
			want:    errors.ErrTranscodeFailed,
		},
		{
			name:    "corrupt wav header",
			content: []byte("RIFF\x00\x00\x00\x00WAVEjunk"),
			want:    errors.ErrTranscodeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "upload")
			require.NoError(t, os.WriteFile(src, tt.content, 0o600))

			dst, err := NewTranscoder(tt.ffmpeg, 0).Convert(context.Background(), src)
			assert.Empty(t, dst)
			assert.ErrorIs(t, err, errors.ErrTranscodeFailed)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTranscoderMissingSource(t *testing.T) {
	_, err := NewTranscoder("", 0).Convert(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, errors.ErrTranscodeFailed)
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    container
	}{
		{name: "wav", content: []byte("RIFF\x24\x00\x00\x00WAVEfmt "), want: containerWAV},
		{name: "ogg", content: []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00"), want: containerOgg},
		{name: "mp3 with id3", content: []byte("ID3\x03\x00\x00\x00\x00\x00\x00\x00\x00"), want: containerMP3},
		{name: "mp3 frame sync", content: []byte{0xFF, 0xFB, 0x90, 0x64, 0, 0, 0, 0, 0, 0, 0, 0}, want: containerMP3},
		{name: "short text", content: []byte("hi"), want: containerUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f")
			require.NoError(t, os.WriteFile(path, tt.content, 0o600))

			got, err := sniff(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownmixAndResample(t *testing.T) {
	mono := downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0}, mono)

	same := []float32{0.1, 0.2}
	assert.Equal(t, same, resample(same, 16000, 16000))

	up := resample([]float32{0, 1}, 8000, 16000)
	require.Len(t, up, 4)
	assert.InDelta(t, 0.5, up[1], 1e-6)
	assert.Equal(t, float32(1), up[3])
}
