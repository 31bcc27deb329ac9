package dispatch

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/attribution"
	"github.com/topekalabs/beacon/internal/form"
	"github.com/topekalabs/beacon/internal/payload"
	"github.com/topekalabs/beacon/internal/pii"
	"github.com/topekalabs/beacon/internal/sink"
	"github.com/topekalabs/beacon/internal/store"
)

// captureSink records enqueued events; fail makes every enqueue error.
type captureSink struct {
	name   string
	fail   bool
	events []payload.Event
}

func (s *captureSink) Start(ctx context.Context) error { return nil }
func (s *captureSink) Close() error                    { return nil }
func (s *captureSink) Name() string                    { return s.name }

func (s *captureSink) Enqueue(e payload.Event) error {
	if s.fail {
		return errors.New("destination unavailable")
	}
	s.events = append(s.events, e)
	return nil
}

func newSession() Session {
	return Session{Store: store.NewMemoryStore(), Jar: store.NewMemoryJar()}
}

func newBridge(sinks ...sink.Sink) *Bridge {
	return &Bridge{
		Source:      "partial.ly",
		ConfirmPath: "/checkout/confirm",
		Sinks:       sinks,
		Log:         zap.NewNop(),
	}
}

func TestPageView_EndToEnd(t *testing.T) {
	relay := &captureSink{name: "relay"}
	meta := &captureSink{name: "meta"}
	b := newBridge(relay, meta)
	sess := newSession()

	b.Handle(context.Background(), sess, PageContext{
		URL:     "https://shop.example.com/plans?utm_source=google&fbclid=XYZ",
		Title:   "Payment Plans",
		Trigger: TriggerPageView,
	})

	require.Len(t, relay.events, 1)
	require.Len(t, meta.events, 1)

	ev := relay.events[0]
	assert.Equal(t, payload.PageViewed, ev.Name)
	assert.Equal(t, payload.KindPage, ev.Kind)
	assert.Equal(t, "partial.ly", ev.Source)
	assert.NotEmpty(t, ev.ID)

	p := ev.Payload
	assert.Equal(t, "google", p.UTMParameters.Source)
	assert.Regexp(t, regexp.MustCompile(`^fb\.shop\.example\.com\.\d{10}\.XYZ$`), p.FBC)
	assert.True(t, strings.HasSuffix(p.FBC, ".XYZ"))
	assert.Regexp(t, regexp.MustCompile(`^fb\.1\.\d{10}\.[0-9a-z]+$`), p.FBP)
	assert.Len(t, p.DeviceID, 36)

	// The pixel saw the same identity.
	assert.Equal(t, p.DeviceID, meta.events[0].Payload.DeviceID)
	assert.Equal(t, p.FBC, meta.events[0].Payload.FBC)
}

func TestPageView_IdentityStableAcrossViews(t *testing.T) {
	relay := &captureSink{name: "relay"}
	b := newBridge(relay)
	sess := newSession()
	pc := PageContext{URL: "https://shop.example.com/plans?fbclid=XYZ", Trigger: TriggerPageView}

	b.Handle(context.Background(), sess, pc)
	// Second visit arrives with a different click ID; the token is frozen.
	pc.URL = "https://shop.example.com/plans?fbclid=OTHER"
	b.Handle(context.Background(), sess, pc)

	require.Len(t, relay.events, 2)
	assert.Equal(t, relay.events[0].Payload.DeviceID, relay.events[1].Payload.DeviceID)
	assert.Equal(t, relay.events[0].Payload.FBC, relay.events[1].Payload.FBC)
	assert.Equal(t, relay.events[0].Payload.FBP, relay.events[1].Payload.FBP)
	assert.NotEqual(t, relay.events[0].ID, relay.events[1].ID)
}

func TestPageView_ConfirmationTriggersCheckoutStarted(t *testing.T) {
	relay := &captureSink{name: "relay"}
	b := newBridge(relay)
	sess := newSession()

	b.Handle(context.Background(), sess, PageContext{
		URL:     "https://shop.example.com/checkout/confirm?utm_source=google",
		Trigger: TriggerPageView,
		Screen:  ScreenValues{OrderTotal: "$1,324.50", Currency: "USD", Product: "Cancun getaway"},
	})

	require.Len(t, relay.events, 2)
	assert.Equal(t, payload.PageViewed, relay.events[0].Name)

	started := relay.events[1]
	assert.Equal(t, payload.CheckoutStarted, started.Name)
	assert.Equal(t, payload.KindTrack, started.Kind)
	require.NotNil(t, started.Payload.Screen)
	assert.Equal(t, int64(1324), *started.Payload.Screen.OrderTotal)
	assert.Equal(t, "vac-cancun", started.Payload.VacationID)
}

func TestContactSubmit_CapturesWithoutDispatch(t *testing.T) {
	relay := &captureSink{name: "relay"}
	b := newBridge(relay)
	sess := newSession()

	b.Handle(context.Background(), sess, PageContext{
		URL:     "https://shop.example.com/checkout",
		Trigger: TriggerContactSubmit,
		Form: form.Fields{
			Email: "jane@example.com",
			Phone: "555-123-4567",
		},
	})

	assert.Empty(t, relay.events)
	loaded := form.Load(context.Background(), sess.Store, zap.NewNop())
	assert.Equal(t, "jane@example.com", loaded.Email)
	assert.Equal(t, "+15551234567", loaded.Phone)
}

func TestPaymentSubmit_CheckoutCompleted(t *testing.T) {
	relay := &captureSink{name: "relay"}
	b := newBridge(relay)
	sess := newSession()
	ctx := context.Background()

	// Contact form was captured earlier in the flow.
	b.Handle(ctx, sess, PageContext{
		Trigger: TriggerContactSubmit,
		Form:    form.Fields{Email: "Jane@Example.com", FirstName: "Jane", LastName: "Doe", Phone: "555-123-4567"},
	})

	b.Handle(ctx, sess, PageContext{
		URL:     "https://shop.example.com/checkout/payment",
		Trigger: TriggerPaymentSubmit,
		Screen: ScreenValues{
			Currency:         "USD",
			PlanTotal:        "$1,299.00",
			OrderTotal:       "$1,324.50",
			PaymentFrequency: "3 months",
			Product:          "7-Night Cancun Getaway",
		},
	})

	require.Len(t, relay.events, 1)
	ev := relay.events[0]
	assert.Equal(t, payload.CheckoutCompleted, ev.Name)

	require.NotNil(t, ev.Payload.Customer)
	assert.Equal(t, "Jane@Example.com", ev.Payload.Customer.Email)

	require.NotNil(t, ev.Match)
	assert.Equal(t, pii.HashField("jane@example.com"), ev.Match.Email)
	assert.Equal(t, pii.HashField("+15551234567"), ev.Match.Phone)

	require.NotNil(t, ev.Payload.Screen)
	assert.Equal(t, int64(1299), *ev.Payload.Screen.PlanTotal)
	assert.Equal(t, int64(3), *ev.Payload.Screen.PaymentFrequency)
	assert.Equal(t, "vac-cancun", ev.Payload.VacationID)
}

func TestDispatch_SinkFailureIsolated(t *testing.T) {
	failing := &captureSink{name: "meta", fail: true}
	relay := &captureSink{name: "relay"}
	b := newBridge(failing, relay, nil)
	sess := newSession()

	b.Handle(context.Background(), sess, PageContext{
		URL:     "https://shop.example.com/plans",
		Trigger: TriggerPageView,
	})

	// The failing and absent sinks do not stop the relay.
	require.Len(t, relay.events, 1)
}

func TestClickToken_WrittenToJar(t *testing.T) {
	b := newBridge(&captureSink{name: "relay"})
	sess := newSession()

	b.Handle(context.Background(), sess, PageContext{
		URL:     "https://shop.example.com/plans?fbclid=XYZ",
		Trigger: TriggerPageView,
	})

	v, ok := sess.Jar.Get(attribution.ClickCookie)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(v, ".XYZ"))
	_, ok = sess.Jar.Get(attribution.BrowserCookie)
	assert.True(t, ok)
}
