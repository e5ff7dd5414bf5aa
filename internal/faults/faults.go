package faults

import (
	"errors"
	"fmt"
)

// Kind categorizes failures across the gateway, capture and playback layers.
type Kind string

const (
	// KindNetwork covers transport failures and non-success HTTP statuses.
	KindNetwork Kind = "network"
	// KindProtocol covers responses that cannot be parsed into the expected shape.
	KindProtocol Kind = "protocol"
	// KindDevice covers microphone acquisition failures (denied or unavailable).
	KindDevice Kind = "device"
	// KindUnsupportedMedia covers TTS responses whose content type is not audio.
	KindUnsupportedMedia Kind = "unsupported_media"
	// KindPlayback covers audio decode and playback failures.
	KindPlayback Kind = "playback"
)

// Error is the single error shape surfaced by this module's components.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Network wraps a transport or status failure.
func Network(message string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// Protocol wraps a malformed-response failure.
func Protocol(message string, err error) *Error {
	return &Error{Kind: KindProtocol, Message: message, Err: err}
}

// Device wraps a microphone acquisition failure.
func Device(message string, err error) *Error {
	return &Error{Kind: KindDevice, Message: message, Err: err}
}

// UnsupportedMedia reports a TTS response with a non-audio content type.
func UnsupportedMedia(message string) *Error {
	return &Error{Kind: KindUnsupportedMedia, Message: message}
}

// Playback wraps a decode or playback failure.
func Playback(message string, err error) *Error {
	return &Error{Kind: KindPlayback, Message: message, Err: err}
}

// KindOf returns the Kind carried by err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }
