package sink

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/topekalabs/beacon/internal/payload"
)

// MetaSink mirrors the Meta pixel call shape: a standard event name, custom
// data (value, currency, vacation_id), and a user-data block carrying the
// external ID, the shared event ID, the hashed match fields, and the fbc/fbp
// tokens. Only hashed contact fields ever cross this boundary.
type MetaSink struct {
	endpoint string
	pixelID  string
	client   *http.Client
}

func NewMetaSink(endpoint, pixelID string) *MetaSink {
	return &MetaSink{
		endpoint: endpoint,
		pixelID:  pixelID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// metaEventName maps lifecycle names onto Meta standard events.
func metaEventName(name string) string {
	switch name {
	case payload.PageViewed:
		return "PageView"
	case payload.CheckoutStarted:
		return "InitiateCheckout"
	case payload.CheckoutCompleted:
		return "Purchase"
	default:
		return name
	}
}

func (s *MetaSink) Start(ctx context.Context) error {
	if s.endpoint == "" || s.pixelID == "" {
		return errors.New("meta pixel endpoint or pixel id not configured")
	}
	return nil
}

func (s *MetaSink) Enqueue(e payload.Event) error {
	customData := map[string]any{}
	if e.Payload.VacationID != "" {
		customData["vacation_id"] = e.Payload.VacationID
	}
	if sc := e.Payload.Screen; sc != nil {
		if sc.OrderTotal != nil {
			customData["value"] = *sc.OrderTotal
		}
		if sc.Currency != "" {
			customData["currency"] = sc.Currency
		}
	}

	userData := map[string]any{
		"external_id": e.Payload.DeviceID,
		"event_id":    e.ID,
	}
	if e.Payload.FBC != "" {
		userData["fbc"] = e.Payload.FBC
	}
	if e.Payload.FBP != "" {
		userData["fbp"] = e.Payload.FBP
	}
	if m := e.Match; m != nil {
		if m.Email != "" {
			userData["em"] = m.Email
		}
		if m.Phone != "" {
			userData["ph"] = m.Phone
		}
		if m.FirstName != "" {
			userData["fn"] = m.FirstName
		}
		if m.LastName != "" {
			userData["ln"] = m.LastName
		}
	}

	return postJSON(s.client, s.endpoint, map[string]any{
		"pixel_id":    s.pixelID,
		"event_name":  metaEventName(e.Name),
		"custom_data": customData,
		"user_data":   userData,
	})
}

func (s *MetaSink) Close() error { return nil }

func (s *MetaSink) Name() string { return "meta" }
