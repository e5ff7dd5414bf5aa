// Package playback decodes a synthesized-speech payload and plays it to
// completion on the default output device.
package playback

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
	"github.com/sirupsen/logrus"

	"github.com/chadiek/cville-companion/internal/faults"
)

// Player plays decoded audio through oto. The oto context is process-wide
// and created lazily on the first play; later payloads must decode to the
// same format because the context cannot be re-initialized.
type Player struct {
	log *logrus.Entry

	otoCtx   *oto.Context
	rate     int
	channels int
}

func NewPlayer(log *logrus.Entry) *Player { return &Player{log: log} }

type pcmStream struct {
	r        io.Reader
	rate     int
	channels int
}

// Play decodes audio of the given media type and plays it until the stream
// drains or ctx is canceled. Transient resources are released on every exit
// path. Concurrent calls are not serialized here; callers that need mutual
// exclusion enforce it themselves.
func (p *Player) Play(ctx context.Context, audio []byte, mimeType string) error {
	stream, err := decode(audio, mimeType)
	if err != nil {
		return err
	}

	if p.otoCtx == nil {
		otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   stream.rate,
			ChannelCount: stream.channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			return faults.Playback("init output device", err)
		}
		<-ready
		p.otoCtx = otoCtx
		p.rate = stream.rate
		p.channels = stream.channels
	} else if stream.rate != p.rate || stream.channels != p.channels {
		return faults.Playback(fmt.Sprintf("audio format changed: got %dHz/%dch, device is %dHz/%dch",
			stream.rate, stream.channels, p.rate, p.channels), nil)
	}

	player := p.otoCtx.NewPlayer(stream.r)
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return faults.Playback("playback interrupted", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func decode(audio []byte, mimeType string) (*pcmStream, error) {
	mt := strings.ToLower(mimeType)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case "audio/mpeg", "audio/mp3":
		d, err := mp3.NewDecoder(bytes.NewReader(audio))
		if err != nil {
			return nil, faults.Playback("decode mp3", err)
		}
		// go-mp3 always yields 16-bit stereo at the stream rate.
		return &pcmStream{r: d, rate: d.SampleRate(), channels: 2}, nil
	case "audio/wav", "audio/x-wav", "audio/wave":
		return decodeWAV(audio)
	default:
		return nil, faults.Playback(fmt.Sprintf("unsupported audio type %q", mimeType), nil)
	}
}

// decodeWAV walks the RIFF chunks for fmt and data. Only uncompressed 16-bit
// PCM is supported.
func decodeWAV(audio []byte) (*pcmStream, error) {
	if len(audio) < 12 || string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		return nil, faults.Playback("not a RIFF/WAVE payload", nil)
	}
	var (
		rate     int
		channels int
		data     []byte
		haveFmt  bool
	)
	off := 12
	for off+8 <= len(audio) {
		id := string(audio[off : off+4])
		size := int(binary.LittleEndian.Uint32(audio[off+4 : off+8]))
		body := off + 8
		if body+size > len(audio) {
			return nil, faults.Playback("truncated wav chunk", nil)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, faults.Playback("short wav fmt chunk", nil)
			}
			format := binary.LittleEndian.Uint16(audio[body : body+2])
			bits := binary.LittleEndian.Uint16(audio[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, faults.Playback(fmt.Sprintf("unsupported wav encoding format=%d bits=%d", format, bits), nil)
			}
			channels = int(binary.LittleEndian.Uint16(audio[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(audio[body+4 : body+8]))
			haveFmt = true
		case "data":
			data = audio[body : body+size]
		}
		off = body + size
		if size%2 == 1 {
			off++ // chunks are word aligned
		}
	}
	if !haveFmt || data == nil {
		return nil, faults.Playback("wav missing fmt or data chunk", nil)
	}
	return &pcmStream{r: bytes.NewReader(data), rate: rate, channels: channels}, nil
}
