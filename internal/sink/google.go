package sink

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/topekalabs/beacon/internal/payload"
)

// GoogleSink mirrors the web analytics tag shape: send_to, user_id, event_id,
// and value/currency on conversions.
type GoogleSink struct {
	endpoint string
	sendTo   string
	client   *http.Client
}

func NewGoogleSink(endpoint, sendTo string) *GoogleSink {
	return &GoogleSink{
		endpoint: endpoint,
		sendTo:   sendTo,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GoogleSink) Start(ctx context.Context) error {
	if s.endpoint == "" || s.sendTo == "" {
		return errors.New("google tag endpoint or send_to not configured")
	}
	return nil
}

func (s *GoogleSink) Enqueue(e payload.Event) error {
	params := map[string]any{
		"send_to":  s.sendTo,
		"user_id":  e.Payload.DeviceID,
		"event_id": e.ID,
	}
	// Only the completed checkout counts as a conversion.
	if e.Name == payload.CheckoutCompleted && e.Payload.Screen != nil {
		if e.Payload.Screen.OrderTotal != nil {
			params["value"] = *e.Payload.Screen.OrderTotal
		}
		if e.Payload.Screen.Currency != "" {
			params["currency"] = e.Payload.Screen.Currency
		}
	}

	return postJSON(s.client, s.endpoint, map[string]any{
		"event":  e.Name,
		"params": params,
	})
}

func (s *GoogleSink) Close() error { return nil }

func (s *GoogleSink) Name() string { return "gtag" }
