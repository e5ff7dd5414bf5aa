package capture

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/chadiek/cville-companion/internal/faults"
)

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type fakeDevice struct{ closed bool }

func (f *fakeDevice) Close() error { f.closed = true; return nil }

// fakeOpener hands the recorder's data callback back to the test.
type fakeOpener struct {
	dev    *fakeDevice
	onData func(pcm []byte)
	err    error
}

func (f *fakeOpener) open(onData func(pcm []byte)) (deviceHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.dev = &fakeDevice{}
	f.onData = onData
	return f.dev, nil
}

func TestRecorder_FullCycle(t *testing.T) {
	op := &fakeOpener{}
	r := newRecorderWithOpener(op.open, testLog())

	if got := r.Status(); got != StatusIdle {
		t.Fatalf("initial status = %q", got)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := r.Status(); got != StatusRecording {
		t.Fatalf("status after start = %q", got)
	}

	op.onData([]byte{1, 0, 2, 0})
	op.onData(nil) // empty chunks are dropped
	op.onData([]byte{3, 0})

	payload, mimeType, ok := r.Stop()
	if !ok {
		t.Fatalf("expected stop to finalize")
	}
	if mimeType != "audio/wav" {
		t.Fatalf("unexpected media type %q", mimeType)
	}
	if got := r.Status(); got != StatusProcessing {
		t.Fatalf("status after stop = %q", got)
	}
	if !op.dev.closed {
		t.Fatalf("expected device released on stop")
	}

	// 44-byte header plus the 6 buffered PCM bytes.
	if len(payload) != 44+6 {
		t.Fatalf("unexpected payload length %d", len(payload))
	}
	if string(payload[0:4]) != "RIFF" || string(payload[8:12]) != "WAVE" {
		t.Fatalf("payload is not a wav container")
	}
	if got := binary.LittleEndian.Uint32(payload[24:28]); got != sampleRate {
		t.Fatalf("wav sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(payload[40:44]); got != 6 {
		t.Fatalf("wav data size = %d", got)
	}

	r.Finish()
	if got := r.Status(); got != StatusIdle {
		t.Fatalf("status after finish = %q", got)
	}
}

func TestRecorder_StopWhileNotRecordingIsNoop(t *testing.T) {
	op := &fakeOpener{}
	r := newRecorderWithOpener(op.open, testLog())

	for i := 0; i < 2; i++ {
		if _, _, ok := r.Stop(); ok {
			t.Fatalf("expected no-op stop from idle")
		}
		if got := r.Status(); got != StatusIdle {
			t.Fatalf("status changed by no-op stop: %q", got)
		}
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, ok := r.Stop(); !ok {
		t.Fatalf("expected stop to finalize")
	}
	// Second stop lands in processing and must stay a no-op.
	if _, _, ok := r.Stop(); ok {
		t.Fatalf("expected no-op stop from processing")
	}
	if got := r.Status(); got != StatusProcessing {
		t.Fatalf("status changed by no-op stop: %q", got)
	}
}

func TestRecorder_DeviceFailure(t *testing.T) {
	op := &fakeOpener{err: errors.New("permission denied")}
	r := newRecorderWithOpener(op.open, testLog())

	err := r.Start()
	if err == nil {
		t.Fatalf("expected device error")
	}
	if got := faults.KindOf(err); got != faults.KindDevice {
		t.Fatalf("got kind %q want %q", got, faults.KindDevice)
	}
	if got := r.Status(); got != StatusError {
		t.Fatalf("status after failed start = %q", got)
	}

	// The user re-initiates; a working device brings the cycle back.
	op.err = nil
	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := r.Status(); got != StatusRecording {
		t.Fatalf("status after restart = %q", got)
	}
}

func TestRecorder_ChunksIgnoredAfterStop(t *testing.T) {
	op := &fakeOpener{}
	r := newRecorderWithOpener(op.open, testLog())
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	op.onData([]byte{1, 0})
	if _, _, ok := r.Stop(); !ok {
		t.Fatalf("stop failed")
	}

	// Late callbacks from a draining device must not land anywhere.
	op.onData([]byte{9, 9})
	r.Finish()
	if err := r.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	payload, _, ok := r.Stop()
	if !ok {
		t.Fatalf("stop failed")
	}
	if len(payload) != 44 {
		t.Fatalf("expected empty second recording, got %d payload bytes", len(payload))
	}
}
