package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Coordinate is a latitude/longitude pair in the wire shape the chat
// endpoint expects.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Locator resolves a best-effort device coordinate in the background. It
// stands in for the browser geolocation subscription of the original client:
// Last returns the most recent successfully resolved coordinate, or nil when
// none has resolved yet. Lookup failures keep the previous value.
type Locator struct {
	HTTPClient *http.Client
	LookupURL  string

	log *logrus.Entry

	mu   sync.Mutex
	last *Coordinate
}

// NewLocator builds a locator against an IP-geolocation endpoint that
// answers {"lat":..., "lon":...} (ip-api.com shape).
func NewLocator(lookupURL string, log *logrus.Entry) *Locator {
	return &Locator{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		LookupURL:  lookupURL,
		log:        log,
	}
}

// Last returns the most recent resolved coordinate, or nil.
func (l *Locator) Last() *Coordinate {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return nil
	}
	c := *l.last
	return &c
}

// Watch resolves immediately and then on every tick until ctx is done.
func (l *Locator) Watch(ctx context.Context, interval time.Duration) {
	if err := l.resolve(ctx); err != nil {
		l.log.WithField("error", err.Error()).Debug("location lookup failed")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.resolve(ctx); err != nil {
				l.log.WithField("error", err.Error()).Debug("location lookup failed")
			}
		}
	}
}

func (l *Locator) resolve(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.LookupURL, nil)
	if err != nil {
		return err
	}
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("location lookup status=%d body=%s", resp.StatusCode, string(b))
	}
	var body struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("location lookup decode: %w", err)
	}
	l.mu.Lock()
	l.last = &Coordinate{Lat: body.Lat, Lng: body.Lon}
	l.mu.Unlock()
	return nil
}
