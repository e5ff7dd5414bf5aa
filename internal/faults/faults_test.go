package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"network", Network("boom", nil), KindNetwork},
		{"protocol", Protocol("bad shape", errors.New("eof")), KindProtocol},
		{"device", Device("denied", nil), KindDevice},
		{"unsupported_media", UnsupportedMedia("text/html"), KindUnsupportedMedia},
		{"playback", Playback("decode", nil), KindPlayback},
		{"wrapped", fmt.Errorf("outer: %w", Network("boom", nil)), KindNetwork},
		{"plain", errors.New("plain"), Kind("")},
		{"nil", nil, Kind("")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := Network("chat request", inner)
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error to match inner")
	}
	if !Is(err, KindNetwork) {
		t.Fatalf("expected network kind")
	}
	if Is(err, KindPlayback) {
		t.Fatalf("did not expect playback kind")
	}
}
