// Package gateway wraps the companion backend's three remote operations
// (/chat, /stt, /speak) behind a single HTTP client. The client holds no
// session state and never retries; failures are normalized into the faults
// taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/chadiek/cville-companion/internal/faults"
	"github.com/chadiek/cville-companion/internal/location"
)

// Client talks to the assistant backend.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

type chatRequest struct {
	Message  string               `json:"message"`
	Location *location.Coordinate `json:"location"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type sttResponse struct {
	Transcript string `json:"transcript"`
}

type speakRequest struct {
	Text string `json:"text"`
}

// NewClient builds a client for the given backend base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SendChat posts a user message with the current location selection and
// returns the assistant reply.
func (c *Client) SendChat(ctx context.Context, message string, loc *location.Coordinate) (string, error) {
	body, _ := json.Marshal(chatRequest{Message: message, Location: loc})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", faults.Network("build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", faults.Network("chat request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", faults.Network(fmt.Sprintf("chat status=%d body=%s", resp.StatusCode, string(b)), nil)
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", faults.Protocol("decode chat response", err)
	}
	return cr.Reply, nil
}

// Transcribe uploads a finalized audio payload and returns the transcript.
// An empty transcript is a valid result; the caller decides what it means.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "capture"+extensionFor(mimeType))
	if err != nil {
		return "", faults.Network("build stt payload", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", faults.Network("build stt payload", err)
	}
	if err := mw.Close(); err != nil {
		return "", faults.Network("build stt payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/stt", &body)
	if err != nil {
		return "", faults.Network("build stt request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", faults.Network("stt request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", faults.Network(fmt.Sprintf("stt status=%d body=%s", resp.StatusCode, string(b)), nil)
	}
	var sr sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", faults.Protocol("decode stt response", err)
	}
	return sr.Transcript, nil
}

// Synthesize posts text to the TTS endpoint and returns the raw audio bytes
// and the declared media type. The response must declare an audio/* content
// type; the audio itself is not validated further.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	body, _ := json.Marshal(speakRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/speak", bytes.NewReader(body))
	if err != nil {
		return nil, "", faults.Network("build speak request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", faults.Network("speak request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, "", faults.Network(fmt.Sprintf("speak status=%d body=%s", resp.StatusCode, string(b)), nil)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		return nil, "", faults.UnsupportedMedia(fmt.Sprintf("speak returned %q", contentType))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", faults.Network("read speak response", err)
	}
	return audio, contentType, nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/wav"), strings.HasPrefix(mimeType, "audio/wave"):
		return ".wav"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/mpeg"):
		return ".mp3"
	default:
		return ""
	}
}
