package sink

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/topekalabs/beacon/internal/payload"
)

// RelaySink forwards events to the customer-data-platform relay. Page events
// use the page call shape (source + page name + properties), everything else
// the track shape. The relay is the only destination that receives the raw
// customer record.
type RelaySink struct {
	endpoint string
	client   *http.Client
}

func NewRelaySink(endpoint string) *RelaySink {
	return &RelaySink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RelaySink) Start(ctx context.Context) error {
	if s.endpoint == "" {
		return errors.New("relay endpoint not configured")
	}
	return nil
}

func (s *RelaySink) Enqueue(e payload.Event) error {
	var body any
	if e.Kind == payload.KindPage {
		body = map[string]any{
			"type":       "page",
			"source":     e.Source,
			"name":       e.Title,
			"properties": e.Payload,
		}
	} else {
		body = map[string]any{
			"type":       "track",
			"event":      e.Name,
			"properties": e.Payload,
		}
	}
	return postJSON(s.client, s.endpoint, body)
}

func (s *RelaySink) Close() error { return nil }

func (s *RelaySink) Name() string { return "relay" }
