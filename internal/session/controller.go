// Package session holds the conversation orchestrator: it owns the
// transcript and the single-flight pending guard, mediates typed and spoken
// input, and sequences transcription, chat and playback for voice cycles.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chadiek/cville-companion/internal/capture"
	"github.com/chadiek/cville-companion/internal/location"
	"github.com/chadiek/cville-companion/internal/transcript"
)

// Fixed replies the user sees instead of raw errors.
const (
	FallbackReply = "Sorry, something went wrong."
	NoSpeechReply = "Sorry, I didn't catch that. Could you try again?"
)

// FixedLocation is the test coordinate used when the device source is off
// (downtown Charlottesville, VA).
var FixedLocation = location.Coordinate{Lat: 38.035029, Lng: -78.4865547}

// Controller is the sole writer of the transcript and of the voice/pending
// state. One controller per conversation.
type Controller struct {
	gw     Gateway
	rec    Recorder
	player Player
	device LocationSource
	log    *logrus.Entry

	store *transcript.Store

	mu             sync.Mutex
	pending        bool
	useFixed       bool
	lastTranscript string
}

// NewController wires the collaborators. The device source may be nil, in
// which case toggling away from the fixed location sends no coordinate until
// one resolves.
func NewController(gw Gateway, rec Recorder, player Player, device LocationSource, log *logrus.Entry) *Controller {
	return &Controller{
		gw:       gw,
		rec:      rec,
		player:   player,
		device:   device,
		log:      log,
		store:    transcript.NewStore(),
		useFixed: true,
	}
}

// Transcript returns the conversation log for rendering.
func (c *Controller) Transcript() *transcript.Store { return c.store }

// Pending reports whether a text/voice send is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// UsingFixedLocation reports the active location source.
func (c *Controller) UsingFixedLocation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useFixed
}

// LastTranscript returns the transcript of the current/most recent voice
// cycle, empty until one resolves.
func (c *Controller) LastTranscript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTranscript
}

// ToggleLocationSource flips between the fixed coordinate and the
// device-reported one and returns true when the fixed source is now active.
// It does not trigger a lookup; the device value is read at send time.
func (c *Controller) ToggleLocationSource() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useFixed = !c.useFixed
	return c.useFixed
}

// currentLocation resolves the coordinate for an outgoing chat request:
// the fixed fallback, or the most recent device coordinate (possibly nil).
func (c *Controller) currentLocation() *location.Coordinate {
	c.mu.Lock()
	useFixed := c.useFixed
	c.mu.Unlock()
	if useFixed {
		loc := FixedLocation
		return &loc
	}
	if c.device == nil {
		return nil
	}
	return c.device.Last()
}

// SendText sends one user message through the chat endpoint. Empty messages
// and overlapping sends are rejected without touching the transcript. The
// user turn is appended before the network call; the assistant turn carries
// the reply, or the fixed fallback when the call fails. Returns the reply
// text, empty on rejection or failure, so voice cycles can chain playback.
func (c *Controller) SendText(ctx context.Context, message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return ""
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		c.log.Debug("send rejected: request already pending")
		return ""
	}
	c.pending = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	c.store.Append(transcript.NewTurn(transcript.RoleUser, msg))

	reply, err := c.gw.SendChat(ctx, msg, c.currentLocation())
	if err != nil {
		c.log.WithField("error", err.Error()).Error("chat request failed")
		c.store.Append(transcript.NewTurn(transcript.RoleAssistant, FallbackReply))
		return ""
	}
	c.store.Append(transcript.NewTurn(transcript.RoleAssistant, reply))
	return reply
}

// StartVoiceTurn begins a capture cycle. A device failure leaves the voice
// status in error; the caller surfaces it and the user re-initiates.
func (c *Controller) StartVoiceTurn() error {
	c.mu.Lock()
	c.lastTranscript = ""
	c.mu.Unlock()
	return c.rec.Start()
}

// StopVoiceTurn finalizes the recording and runs the rest of the voice
// cycle: transcription, then the chat call, then playback of the reply.
// The three steps never overlap within a cycle. Calling it while not
// recording is a no-op. The recorder returns to idle on every outcome.
func (c *Controller) StopVoiceTurn(ctx context.Context) {
	payload, mimeType, ok := c.rec.Stop()
	if !ok {
		return
	}
	defer c.rec.Finish()

	text, err := c.gw.Transcribe(ctx, payload, mimeType)
	if err != nil {
		c.log.WithField("error", err.Error()).Error("transcription failed")
		c.store.Append(transcript.NewTurn(transcript.RoleAssistant, FallbackReply))
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.store.Append(transcript.NewTurn(transcript.RoleAssistant, NoSpeechReply))
		return
	}

	c.mu.Lock()
	c.lastTranscript = text
	c.mu.Unlock()

	reply := c.SendText(ctx, text)
	if reply != "" {
		c.PlayReply(ctx, reply)
	}
}

// VoiceStatus reports the capture state machine's current state.
func (c *Controller) VoiceStatus() capture.Status { return c.rec.Status() }

// PlayReply synthesizes and plays a reply. Failures at either step are
// logged and swallowed so a TTS outage never corrupts the transcript.
func (c *Controller) PlayReply(ctx context.Context, text string) {
	audio, mimeType, err := c.gw.Synthesize(ctx, text)
	if err != nil {
		c.log.WithField("error", err.Error()).Warn("speech synthesis failed")
		return
	}
	if err := c.player.Play(ctx, audio, mimeType); err != nil {
		c.log.WithField("error", err.Error()).Warn("playback failed")
	}
}
