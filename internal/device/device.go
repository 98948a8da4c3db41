// Package device implements the HTTP client for the playback device bridge.
//
// The bridge (a node-sonos-http-api style sidecar) exposes the device's
// transport and queue as plain call/response HTTP endpoints. Every method is
// an independent remote call with its own timeout; callers decide which
// failures are fatal.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/shared"
)

// bridgeError is the JSON error payload returned by the bridge on failures.
type bridgeError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// stateResponse represents the bridge's transport state payload.
type stateResponse struct {
	PlaybackState string `json:"playbackState"`
	Volume        int    `json:"volume"`
}

// queueItemResponse represents one queue slot in the bridge's queue payload.
type queueItemResponse struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	URI      string `json:"uri"`
	Position int    `json:"position"`
}

// HTTPPlayer drives one room's playback device through the bridge.
// Implements jukebox.Player.
type HTTPPlayer struct {
	baseURL    string
	room       string
	httpClient *http.Client
}

// NewHTTPPlayer creates a player for the given bridge URL and room.
// The timeout bounds every individual remote call.
func NewHTTPPlayer(baseURL, room string, timeout time.Duration) *HTTPPlayer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPlayer{
		baseURL:    baseURL,
		room:       room,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Room returns the room name this player controls.
func (p *HTTPPlayer) Room() string { return p.room }

func (p *HTTPPlayer) endpoint(parts ...string) string {
	path := "/rooms/" + url.PathEscape(p.room)
	for _, part := range parts {
		path += "/" + part
	}
	return p.baseURL + path
}

// do performs one bridge call, decoding into result when non-nil.
func (p *HTTPPlayer) do(ctx context.Context, method, fullURL string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrDeviceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var be bridgeError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&be); decodeErr == nil && be.Code != "" {
			if be.Code == "region_unavailable" {
				return fmt.Errorf("%w: %s", shared.ErrRegionUnavailable, be.Error)
			}
			return fmt.Errorf("%w: %s (%s)", shared.ErrDeviceRequest, be.Error, be.Code)
		}
		return fmt.Errorf("%w: status %d", shared.ErrDeviceRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetState polls the device transport state. Unrecognized bridge states parse
// to [models.StateUnknown].
func (p *HTTPPlayer) GetState(ctx context.Context) (models.DeviceState, error) {
	var state stateResponse
	if err := p.do(ctx, http.MethodGet, p.endpoint("state"), nil, &state); err != nil {
		return models.StateUnknown, err
	}
	return models.ParseDeviceState(state.PlaybackState), nil
}

// GetQueue snapshots the device's live play queue.
func (p *HTTPPlayer) GetQueue(ctx context.Context) ([]models.QueueItem, error) {
	var raw []queueItemResponse
	if err := p.do(ctx, http.MethodGet, p.endpoint("queue"), nil, &raw); err != nil {
		return nil, err
	}

	items := make([]models.QueueItem, len(raw))
	for i, qi := range raw {
		items[i] = models.QueueItem{
			Title:    qi.Title,
			Artist:   qi.Artist,
			URI:      qi.URI,
			Position: qi.Position,
		}
	}
	return items, nil
}

// Stop halts playback.
func (p *HTTPPlayer) Stop(ctx context.Context) error {
	return p.do(ctx, http.MethodPost, p.endpoint("stop"), nil, nil)
}

// Play starts or resumes playback of the active source.
func (p *HTTPPlayer) Play(ctx context.Context) error {
	return p.do(ctx, http.MethodPost, p.endpoint("play"), nil, nil)
}

// FlushQueue removes every item from the device queue.
func (p *HTTPPlayer) FlushQueue(ctx context.Context) error {
	return p.do(ctx, http.MethodPost, p.endpoint("queue", "flush"), nil, nil)
}

// Enqueue appends one catalog URI to the device queue.
func (p *HTTPPlayer) Enqueue(ctx context.Context, uri string) error {
	payload := map[string]string{"uri": uri}
	return p.do(ctx, http.MethodPost, p.endpoint("queue"), payload, nil)
}

// SeekToFirst points the transport at the first queue position, switching the
// active source to the queue if something else was selected.
func (p *HTTPPlayer) SeekToFirst(ctx context.Context) error {
	return p.do(ctx, http.MethodPost, p.endpoint("seek", "0"), nil, nil)
}

// SkipNext advances to the next queue item.
func (p *HTTPPlayer) SkipNext(ctx context.Context) error {
	return p.do(ctx, http.MethodPost, p.endpoint("next"), nil, nil)
}

// GetVolume reads the device volume (0-100).
func (p *HTTPPlayer) GetVolume(ctx context.Context) (int, error) {
	var state stateResponse
	if err := p.do(ctx, http.MethodGet, p.endpoint("state"), nil, &state); err != nil {
		return 0, err
	}
	return state.Volume, nil
}

// SetVolume sets the device volume, clamped to 0-100. Callers apply any
// policy ceiling before calling.
func (p *HTTPPlayer) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	payload := map[string]int{"volume": percent}
	return p.do(ctx, http.MethodPost, p.endpoint("volume"), payload, nil)
}
