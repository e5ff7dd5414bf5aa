// Package capture owns the microphone lifecycle for one voice cycle:
// acquire the device, buffer PCM chunks while recording, and finalize them
// into a single WAV payload on stop.
package capture

import (
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/chadiek/cville-companion/internal/faults"
)

const (
	sampleRate = 16000
	channels   = 1
)

// Status is the voice-session state for a single recording cycle.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRecording  Status = "recording"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

// deviceHandle is an open capture device. Close stops capture and releases
// the underlying resources.
type deviceHandle interface {
	Close() error
}

// openDeviceFunc acquires the microphone and starts delivering PCM chunks to
// onData until the returned handle is closed.
type openDeviceFunc func(onData func(pcm []byte)) (deviceHandle, error)

// Recorder drives the capture state machine:
// idle -> recording -> processing -> idle, with error reachable from
// idle/recording when device acquisition fails.
type Recorder struct {
	open openDeviceFunc
	log  *logrus.Entry

	mu     sync.Mutex
	status Status
	chunks [][]byte
	dev    deviceHandle
}

// NewRecorder builds a recorder over the default microphone.
func NewRecorder(log *logrus.Entry) *Recorder {
	return &Recorder{open: openMalgoDevice, log: log, status: StatusIdle}
}

// newRecorderWithOpener is the test seam.
func newRecorderWithOpener(open openDeviceFunc, log *logrus.Entry) *Recorder {
	return &Recorder{open: open, log: log, status: StatusIdle}
}

// Status returns the current cycle state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start acquires the microphone and begins buffering chunks. Valid from idle
// or error (the user re-initiates after a device failure). On acquisition
// failure the recorder lands in the error state and a device fault is
// returned; there is no automatic retry.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.status == StatusRecording || r.status == StatusProcessing {
		r.mu.Unlock()
		return nil
	}
	r.chunks = nil
	r.mu.Unlock()

	dev, err := r.open(r.push)
	if err != nil {
		r.mu.Lock()
		r.status = StatusError
		r.mu.Unlock()
		return faults.Device("microphone unavailable", err)
	}

	r.mu.Lock()
	r.dev = dev
	r.status = StatusRecording
	r.mu.Unlock()
	return nil
}

// push appends one device chunk to the accumulation buffer. Empty chunks are
// dropped. Chunks arriving outside the recording state are ignored.
func (r *Recorder) push(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	r.mu.Lock()
	if r.status == StatusRecording {
		r.chunks = append(r.chunks, buf)
	}
	r.mu.Unlock()
}

// Stop releases the device and finalizes the buffered chunks into one WAV
// payload, moving the cycle to processing. Calling Stop while not recording
// is a no-op, reported through ok=false.
func (r *Recorder) Stop() (payload []byte, mimeType string, ok bool) {
	r.mu.Lock()
	if r.status != StatusRecording {
		r.mu.Unlock()
		return nil, "", false
	}
	dev := r.dev
	r.dev = nil
	r.status = StatusProcessing
	chunks := r.chunks
	r.chunks = nil
	r.mu.Unlock()

	if dev != nil {
		if err := dev.Close(); err != nil {
			r.log.WithField("error", err.Error()).Warn("closing capture device")
		}
	}

	var pcm []byte
	for _, c := range chunks {
		pcm = append(pcm, c...)
	}
	return encodeWAV(pcm, sampleRate, channels), "audio/wav", true
}

// Finish resets a finished or failed cycle back to idle and clears any
// leftover buffer. The device handle, if still held, is released.
func (r *Recorder) Finish() {
	r.mu.Lock()
	dev := r.dev
	r.dev = nil
	r.chunks = nil
	r.status = StatusIdle
	r.mu.Unlock()

	if dev != nil {
		_ = dev.Close()
	}
}

// malgoDevice owns one malgo context + device pair for the duration of a
// recording cycle.
type malgoDevice struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device
}

func openMalgoDevice(onData func(pcm []byte)) (deviceHandle, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = channels
	deviceConfig.SampleRate = sampleRate
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			onData(pInputSamples)
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = ctx.Uninit()
		return nil, err
	}
	return &malgoDevice{ctx: ctx, dev: dev}, nil
}

func (m *malgoDevice) Close() error {
	if m.dev != nil {
		_ = m.dev.Stop()
		m.dev.Uninit()
	}
	if m.ctx != nil {
		return m.ctx.Uninit()
	}
	return nil
}
