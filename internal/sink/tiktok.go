package sink

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/topekalabs/beacon/internal/payload"
)

// TikTokSink mirrors the identify-then-track pixel shape: an identify call
// with the hashed identity block, followed by a page or track call with the
// event properties.
type TikTokSink struct {
	endpoint string
	client   *http.Client
}

func NewTikTokSink(endpoint string) *TikTokSink {
	return &TikTokSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *TikTokSink) Start(ctx context.Context) error {
	if s.endpoint == "" {
		return errors.New("tiktok pixel endpoint not configured")
	}
	return nil
}

func (s *TikTokSink) Enqueue(e payload.Event) error {
	identity := map[string]any{
		"external_id": e.Payload.DeviceID,
	}
	if m := e.Match; m != nil {
		if m.Email != "" {
			identity["email"] = m.Email
		}
		if m.Phone != "" {
			identity["phone_number"] = m.Phone
		}
	}
	if err := postJSON(s.client, s.endpoint, map[string]any{
		"type":     "identify",
		"identity": identity,
	}); err != nil {
		return err
	}

	call := map[string]any{
		"event_id":   e.ID,
		"properties": e.Payload.UTMParameters,
	}
	if e.Kind == payload.KindPage {
		call["type"] = "page"
	} else {
		call["type"] = "track"
		call["event"] = e.Name
	}
	return postJSON(s.client, s.endpoint, call)
}

func (s *TikTokSink) Close() error { return nil }

func (s *TikTokSink) Name() string { return "tiktok" }
