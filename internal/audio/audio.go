// Package audio captures microphone input through PortAudio.
//
// Capture follows a start/stop contract: Start opens the input stream and
// returns immediately so open failures surface before the session blocks on
// the operator's stop signal. Incoming frames are appended to a mutex-guarded
// buffer by the PortAudio callback; the callback only copies samples and must
// return quickly, since it runs on the audio subsystem's time-sensitive
// thread.
package audio

import "errors"

// ErrDevice indicates the input stream could not be opened or started,
// typically bad permissions or an invalid device index.
var ErrDevice = errors.New("audio device error")

// Device describes one audio device known to the host.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// Input reports whether the device can capture audio.
func (d Device) Input() bool { return d.MaxInputChannels > 0 }

// Params selects how a capture is opened. A nil Device means the system
// default input.
type Params struct {
	SampleRate int
	Device     *int
}

// Capture is one in-progress recording. Stop drains the stream and returns
// every sample received since Start, in arrival order.
type Capture interface {
	Stop() ([]float32, error)
}

// Capturer abstracts the recording backend so the session loop can be tested
// without audio hardware.
type Capturer interface {
	Start(p Params) (Capture, error)
	Devices() ([]Device, error)
}
