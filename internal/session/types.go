package session

import (
	"context"

	"github.com/chadiek/cville-companion/internal/capture"
	"github.com/chadiek/cville-companion/internal/location"
)

// Gateway is the assistant backend's three remote operations.
type Gateway interface {
	SendChat(ctx context.Context, message string, loc *location.Coordinate) (string, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Synthesize(ctx context.Context, text string) (audio []byte, mimeType string, err error)
}

// Recorder is the capture pipeline for one voice cycle.
type Recorder interface {
	Start() error
	// Stop finalizes a recording into one payload; ok is false when the
	// recorder was not recording (idempotent guard).
	Stop() (payload []byte, mimeType string, ok bool)
	Finish()
	Status() capture.Status
}

// Player plays a synthesized reply to completion.
type Player interface {
	Play(ctx context.Context, audio []byte, mimeType string) error
}

// LocationSource reports the most recent device-reported coordinate, or nil
// when none has resolved.
type LocationSource interface {
	Last() *location.Coordinate
}
