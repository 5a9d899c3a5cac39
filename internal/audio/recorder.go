package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"recbooth/internal/logging"
)

// Recorder is the PortAudio-backed Capturer.
type Recorder struct {
	logger *slog.Logger
}

// NewRecorder returns a Recorder logging through the given logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{logger: logging.NewComponentLogger(logger, "audio")}
}

// Devices enumerates every audio device the host reports.
func (r *Recorder) Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrDevice, err)
	}
	defer func() { _ = portaudio.Terminate() }()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate devices: %v", ErrDevice, err)
	}

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		hostAPI := ""
		if info.HostApi != nil {
			hostAPI = info.HostApi.Name
		}
		devices = append(devices, Device{
			Index:             i,
			Name:              info.Name,
			HostAPI:           hostAPI,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
		})
	}
	return devices, nil
}

// Start opens a mono float32 input stream at the requested rate and begins
// accumulating frames. The returned Capture must be stopped to release the
// stream; failure to open or start wraps ErrDevice.
func (r *Recorder) Start(p Params) (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrDevice, err)
	}

	info, err := r.inputDevice(p.Device)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	c := &capture{logger: r.logger}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: 1,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(p.SampleRate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}

	stream, err := portaudio.OpenStream(params, c.callback)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: open input stream on %q: %v", ErrDevice, info.Name, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: start input stream on %q: %v", ErrDevice, info.Name, err)
	}

	c.stream = stream
	r.logger.Debug("input stream started",
		slog.String("device", info.Name),
		slog.Int("sample_rate", p.SampleRate))
	return c, nil
}

func (r *Recorder) inputDevice(index *int) (*portaudio.DeviceInfo, error) {
	if index == nil {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %v", ErrDevice, err)
		}
		return info, nil
	}

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate devices: %v", ErrDevice, err)
	}
	if *index < 0 || *index >= len(infos) {
		return nil, fmt.Errorf("%w: device index %d out of range (0..%d)", ErrDevice, *index, len(infos)-1)
	}
	info := infos[*index]
	if info.MaxInputChannels < 1 {
		return nil, fmt.Errorf("%w: device %d (%s) has no input channels", ErrDevice, *index, info.Name)
	}
	return info, nil
}

type capture struct {
	stream *portaudio.Stream
	logger *slog.Logger

	mu       sync.Mutex
	samples  []float32
	overruns int
}

// callback runs on the PortAudio capture thread. It only appends a copy of
// the incoming frame slice; anything slower risks dropped frames.
func (c *capture) callback(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	c.mu.Lock()
	if flags&portaudio.InputOverflow != 0 {
		c.overruns++
	}
	c.samples = append(c.samples, in...)
	c.mu.Unlock()
}

// Stop halts the stream and returns the accumulated samples. An empty slice
// is a valid result meaning nothing was recorded. Overruns reported by the
// stream are surfaced as warnings, never as errors.
func (c *capture) Stop() ([]float32, error) {
	stopErr := c.stream.Stop()
	closeErr := c.stream.Close()
	_ = portaudio.Terminate()

	c.mu.Lock()
	samples := c.samples
	overruns := c.overruns
	c.samples = nil
	c.mu.Unlock()

	if overruns > 0 {
		c.logger.Warn("input overruns during capture", slog.Int("count", overruns))
	}
	if stopErr != nil {
		return samples, fmt.Errorf("stop input stream: %w", stopErr)
	}
	if closeErr != nil {
		return samples, fmt.Errorf("close input stream: %w", closeErr)
	}
	c.logger.Debug("capture stopped", slog.Int("samples", len(samples)))
	return samples, nil
}
