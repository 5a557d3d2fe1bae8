package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"aura/internal/domain/errors"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

const (
	TargetSampleRate   = 16000
	TargetBitDepth     = 16
	DefaultMaxDuration = 2 * time.Minute

	wavPCMFormat = 1
	sniffLen     = 12
)

type container int

const (
	containerUnknown container = iota
	containerWAV
	containerMP3
	containerOgg
)

func (c container) String() string {
	switch c {
	case containerWAV:
		return "wav"
	case containerMP3:
		return "mp3"
	case containerOgg:
		return "ogg"
	default:
		return "unknown"
	}
}

// Transcoder turns uploaded recordings into 16 kHz mono 16-bit WAV files.
// WAV, MP3 and Ogg Vorbis are decoded in process; anything else goes through
// ffmpeg when FFmpegPath is set.
type Transcoder struct {
	FFmpegPath  string
	MaxDuration time.Duration
}

func NewTranscoder(ffmpegPath string, maxDuration time.Duration) *Transcoder {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Transcoder{FFmpegPath: ffmpegPath, MaxDuration: maxDuration}
}

// Convert writes the canonical waveform next to src as src+".wav" and
// returns its path.
func (t *Transcoder) Convert(ctx context.Context, src string) (string, error) {
	dst := src + ".wav"

	kind, err := sniff(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrTranscodeFailed, err)
	}

	if kind != containerUnknown {
		err = t.convertNative(src, dst, kind)
		if err == nil {
			slog.Debug("audio transcoded", "format", kind, "dst", dst)
			return dst, nil
		}
		if t.FFmpegPath == "" {
			return "", fmt.Errorf("%w: decode %s: %w", errors.ErrTranscodeFailed, kind, err)
		}
		slog.Debug("native decode failed, trying ffmpeg", "format", kind, "err", err)
	}

	if t.FFmpegPath == "" {
		return "", fmt.Errorf("%w: %w", errors.ErrTranscodeFailed, errors.ErrUnsupportedAudio)
	}
	if err := t.convertFFmpeg(ctx, src, dst); err != nil {
		return "", err
	}
	slog.Debug("audio transcoded with ffmpeg", "dst", dst)
	return dst, nil
}

func sniff(path string) (container, error) {
	f, err := os.Open(path)
	if err != nil {
		return containerUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return containerUnknown, errors.ErrUnsupportedAudio
		}
		return containerUnknown, err
	}
	head = head[:n]

	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return containerWAV, nil
	case bytes.HasPrefix(head, []byte("OggS")):
		return containerOgg, nil
	case bytes.HasPrefix(head, []byte("ID3")):
		return containerMP3, nil
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return containerMP3, nil
	}
	return containerUnknown, nil
}

func (t *Transcoder) convertNative(src, dst string, kind container) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	var clip *pcm
	switch kind {
	case containerWAV:
		clip, err = decodeWAV(f)
	case containerMP3:
		clip, err = decodeMP3(f, t.MaxDuration)
	case containerOgg:
		clip, err = decodeOgg(f)
	default:
		err = errors.ErrUnsupportedAudio
	}
	if err != nil {
		return err
	}

	mono := downmix(clip.samples, clip.channels)
	if limit := int(t.MaxDuration.Seconds() * float64(clip.rate)); limit > 0 && len(mono) > limit {
		mono = mono[:limit]
	}
	return encodeWAV(dst, resample(mono, clip.rate, TargetSampleRate))
}

func (t *Transcoder) convertFFmpeg(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-y", "-i", src,
		"-ac", "1",
		"-ar", fmt.Sprint(TargetSampleRate),
		"-sample_fmt", "s16",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg: %w: %s", errors.ErrTranscodeFailed, err, tail(out, 200))
	}
	return nil
}

// pcm holds interleaved samples in [-1, 1].
type pcm struct {
	samples  []float32
	channels int
	rate     int
}

func decodeWAV(r io.ReadSeeker) (*pcm, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.ErrUnsupportedAudio
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 || buf.Format.SampleRate == 0 {
		return nil, errors.ErrUnsupportedAudio
	}

	depth := int(d.BitDepth)
	if depth < 8 || depth > 32 {
		return nil, errors.ErrUnsupportedAudio
	}
	scale := float32(int64(1) << (depth - 1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if depth == 8 {
			v -= 128
		}
		samples[i] = float32(v) / scale
	}
	return &pcm{samples: samples, channels: buf.Format.NumChannels, rate: buf.Format.SampleRate}, nil
}

// decodeMP3 reads at most maxDuration of audio; go-mp3 always yields 16-bit
// little-endian stereo.
func decodeMP3(r io.Reader, maxDuration time.Duration) (*pcm, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	const bytesPerFrame = 4

	var src io.Reader = d
	if maxDuration > 0 {
		src = io.LimitReader(d, int64(maxDuration.Seconds()*float64(d.SampleRate()))*bytesPerFrame)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float32(v) / 32768
	}
	return &pcm{samples: samples, channels: 2, rate: d.SampleRate()}, nil
}

func decodeOgg(r io.Reader) (*pcm, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format.Channels == 0 || format.SampleRate == 0 {
		return nil, errors.ErrUnsupportedAudio
	}
	return &pcm{samples: samples, channels: format.Channels, rate: format.SampleRate}, nil
}

func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	mono := make([]float32, len(interleaved)/channels)
	for i := range mono {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// resample converts mono samples between rates with linear interpolation.
func resample(in []float32, from, to int) []float32 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

func encodeWAV(dst string, mono []float32) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	data := make([]int, len(mono))
	for i, s := range mono {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(out, TargetSampleRate, TargetBitDepth, 1, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: TargetSampleRate},
		Data:           data,
		SourceBitDepth: TargetBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return out.Close()
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}
