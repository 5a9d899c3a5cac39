// Package wavio writes and reads the mono 16-bit PCM WAV files that make up
// the audio half of a fixture pair.
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const maxPCM16 = 32767

// Encode writes samples as a mono 16-bit PCM WAV file at path, overwriting
// any existing file.
//
// Every sample is clamped to [-1.0, 1.0] before conversion; out-of-range
// input is a data-quality condition, not an error. Conversion is
// round-half-away-from-zero on s*32767, so the clamped extremes map to
// ±32767 (the negative floor -32768 is never produced; the mapping stays
// symmetric around zero). The rule is applied uniformly so fixture bytes are
// reproducible across runs.
func Encode(path string, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("encode wav %s: invalid sample rate %d", path, sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = quantize(s)
	}

	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav %s: %w", path, err)
	}
	return nil
}

func quantize(s float32) int {
	clamped := float64(s)
	if clamped > 1.0 {
		clamped = 1.0
	} else if clamped < -1.0 {
		clamped = -1.0
	}
	return int(math.Round(clamped * maxPCM16))
}

// Decode reads a mono 16-bit PCM WAV file back into float samples in [-1, 1],
// returning the samples and the file's sample rate. It exists for round-trip
// verification in tests and tooling; the recorder itself only encodes.
func Decode(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("decode wav %s: %w", path, errors.New("not a valid WAV file"))
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("decode wav %s: expected mono audio", path)
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / maxPCM16
	}
	return samples, buf.Format.SampleRate, nil
}
