// Package payload defines the canonical event envelope and the pure merge
// that assembles it from identity, attribution, enrichment, and checkout
// sources.
package payload

import (
	"github.com/topekalabs/beacon/internal/attribution"
	"github.com/topekalabs/beacon/internal/enrich"
	"github.com/topekalabs/beacon/internal/form"
	"github.com/topekalabs/beacon/internal/pii"
	"github.com/topekalabs/beacon/internal/screen"
)

// Kind selects the relay call shape for an event.
type Kind string

const (
	KindPage  Kind = "page"
	KindTrack Kind = "track"
)

// Lifecycle event names.
const (
	PageViewed        = "Page Viewed"
	CheckoutStarted   = "Checkout Started"
	CheckoutCompleted = "Checkout Completed"
)

// Payload is the canonical property set every destination receives a view of.
// Enrichment fields sit at the top level; checkout-only sources are nil on
// plain page views.
type Payload struct {
	enrich.Info

	UTMParameters attribution.UTMParams `json:"utmParameters"`
	FBC           string                `json:"fbc,omitempty"`
	FBP           string                `json:"fbp,omitempty"`
	DeviceID      string                `json:"device_id,omitempty"`

	Customer   *form.Contact `json:"customer,omitempty"`
	Screen     *screen.Data  `json:"onScreenData,omitempty"`
	VacationID string        `json:"vacation_id,omitempty"`
}

// Event wraps a payload with the dispatch metadata the sinks key on. ID is a
// fresh GUID per dispatch, shared across ad destinations for deduplication.
type Event struct {
	ID      string           `json:"event_id"`
	Name    string           `json:"event"`
	Kind    Kind             `json:"type"`
	Source  string           `json:"source,omitempty"`
	Title   string           `json:"title,omitempty"`
	TS      string           `json:"ts,omitempty"` // RFC 3339
	Payload Payload          `json:"properties"`
	Match   *pii.MatchParams `json:"match,omitempty"`
}

// Inputs are the already-resolved sources Assemble merges. Assemble itself
// performs no I/O.
type Inputs struct {
	Enrichment enrich.Info
	UTM        attribution.UTMParams
	FBC        string
	FBP        string
	DeviceID   string

	Customer           *form.Contact
	Screen             *screen.Data
	ProductDescription string
}

// Assemble merges the sources into one payload. Checkout sources are carried
// through only when present; the product description resolves to an offer
// identifier by first-match substring search.
func Assemble(in Inputs) Payload {
	p := Payload{
		Info:          in.Enrichment,
		UTMParameters: in.UTM,
		FBC:           in.FBC,
		FBP:           in.FBP,
		DeviceID:      in.DeviceID,
		Screen:        in.Screen,
	}
	if in.Customer != nil && !in.Customer.Empty() {
		p.Customer = in.Customer
	}
	if in.ProductDescription != "" {
		p.VacationID = MatchOffer(in.ProductDescription)
	}
	return p
}
