// Package dispatch orchestrates the checkout lifecycle: it resolves identity
// and attribution for the current visitor, assembles the canonical payload,
// and fans it out to every configured sink with per-sink failure isolation.
package dispatch

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/attribution"
	"github.com/topekalabs/beacon/internal/enrich"
	"github.com/topekalabs/beacon/internal/form"
	"github.com/topekalabs/beacon/internal/ident"
	"github.com/topekalabs/beacon/internal/metrics"
	"github.com/topekalabs/beacon/internal/payload"
	"github.com/topekalabs/beacon/internal/pii"
	"github.com/topekalabs/beacon/internal/screen"
	"github.com/topekalabs/beacon/internal/sink"
	"github.com/topekalabs/beacon/internal/store"
)

// Lifecycle triggers carried on a PageContext.
const (
	TriggerPageView      = "pageview"
	TriggerContactSubmit = "contact_submit"
	TriggerPaymentSubmit = "payment_submit"
)

// Session binds the pipeline to one visitor: their durable state and their
// cookies.
type Session struct {
	Store store.Store
	Jar   store.CookieJar
}

// Bridge drives the lifecycle flows. Enrich and Metrics may be nil; Sinks may
// contain nils (an absent SDK), which are skipped with a warning.
type Bridge struct {
	Source      string // relay source name
	ConfirmPath string // URL substring that marks the checkout confirmation page
	Enrich      *enrich.Client
	Sinks       []sink.Sink
	Metrics     *metrics.Metrics
	Log         *zap.Logger
}

// Handle routes a page context to the matching lifecycle flow.
func (b *Bridge) Handle(ctx context.Context, sess Session, pc PageContext) {
	switch pc.Trigger {
	case TriggerContactSubmit:
		form.Capture(ctx, sess.Store, pc.Form, b.Log)
	case TriggerPaymentSubmit:
		b.CheckoutCompleted(ctx, sess, pc)
	default:
		b.PageView(ctx, sess, pc)
	}
}

// PageView dispatches Page Viewed, and Checkout Started as well when the page
// URL contains the confirmation-path substring.
func (b *Bridge) PageView(ctx context.Context, sess Session, pc PageContext) {
	in := b.baseInputs(ctx, sess, pc)
	b.dispatch(payload.Event{
		ID:      ident.NewGUID(),
		Name:    payload.PageViewed,
		Kind:    payload.KindPage,
		Source:  b.Source,
		Title:   pc.Title,
		TS:      time.Now().UTC().Format(time.RFC3339),
		Payload: payload.Assemble(in),
	})

	if b.ConfirmPath != "" && strings.Contains(pc.URL, b.ConfirmPath) {
		b.checkoutEvent(ctx, sess, pc, in, payload.CheckoutStarted)
	}
}

// CheckoutCompleted dispatches the completion event triggered by the payment
// submit. The submission itself proceeds regardless; dispatch never blocks it.
func (b *Bridge) CheckoutCompleted(ctx context.Context, sess Session, pc PageContext) {
	in := b.baseInputs(ctx, sess, pc)
	b.checkoutEvent(ctx, sess, pc, in, payload.CheckoutCompleted)
}

func (b *Bridge) checkoutEvent(ctx context.Context, sess Session, pc PageContext, in payload.Inputs, name string) {
	customer := form.Load(ctx, sess.Store, b.Log)
	data := screen.Extract(ctx, &pc.Screen, sess.Store, b.Log)

	in.Customer = &customer
	in.Screen = &data
	in.ProductDescription = pc.Screen.ProductDescription()

	ev := payload.Event{
		ID:      ident.NewGUID(),
		Name:    name,
		Kind:    payload.KindTrack,
		Source:  b.Source,
		Title:   pc.Title,
		TS:      time.Now().UTC().Format(time.RFC3339),
		Payload: payload.Assemble(in),
	}
	if m := pii.Match(customer.Email, customer.Phone, customer.FirstName, customer.LastName); !m.Empty() {
		ev.Match = &m
	}
	b.dispatch(ev)
}

// baseInputs resolves the sources every event shares: enrichment, UTM,
// attribution tokens, and the device identifier.
func (b *Bridge) baseInputs(ctx context.Context, sess Session, pc PageContext) payload.Inputs {
	var in payload.Inputs

	if b.Enrich != nil {
		start := time.Now()
		in.Enrichment = b.Enrich.Lookup(ctx)
		if b.Metrics != nil {
			b.Metrics.ObserveEnrichDuration(time.Since(start))
		}
	}

	q := pc.query()
	now := time.Now()
	in.UTM = attribution.ParseUTM(q)
	in.FBC = attribution.ClickToken(sess.Jar, pc.hostname(), q.Get("fbclid"), now)
	in.FBP = attribution.BrowserToken(sess.Jar, now)
	in.DeviceID = ident.NewDeviceStore(sess.Store, b.Log).Get(ctx)
	return in
}

// dispatch fans the event out. Each sink fails alone: a nil sink is skipped,
// an enqueue error is logged and counted, and the remaining sinks still run.
func (b *Bridge) dispatch(ev payload.Event) {
	for _, s := range b.Sinks {
		if s == nil {
			b.Log.Warn("sink not configured, skipping", zap.String("event", ev.Name))
			continue
		}
		if err := s.Enqueue(ev); err != nil {
			b.Log.Warn("sink dispatch failed",
				zap.String("sink", s.Name()),
				zap.String("event", ev.Name),
				zap.Error(err))
			if b.Metrics != nil {
				b.Metrics.IncrementSinkErrors(s.Name())
			}
			continue
		}
		if b.Metrics != nil {
			b.Metrics.IncrementEventsDispatched(s.Name())
		}
	}
}

// PageContext is everything the page runtime knows at trigger time: the
// navigation URL, the contact form values, and the checkout summary display
// strings.
type PageContext struct {
	URL     string       `json:"url"`
	Title   string       `json:"title"`
	Trigger string       `json:"trigger"`
	Form    form.Fields  `json:"form"`
	Screen  ScreenValues `json:"screen"`
}

func (pc PageContext) query() url.Values {
	u, err := url.Parse(pc.URL)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}

func (pc PageContext) hostname() string {
	u, err := url.Parse(pc.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ScreenValues carries the raw checkout summary display strings and
// implements screen.PageReader over them.
type ScreenValues struct {
	Currency         string `json:"currency"`
	PlanTotal        string `json:"plan_total"`
	Subtotal         string `json:"subtotal"`
	DownPayment      string `json:"down_payment"`
	Fee              string `json:"fee"`
	OrderTotal       string `json:"order_total"`
	RemainingBalance string `json:"remaining_balance"`
	PaymentFrequency string `json:"payment_frequency"`
	NumberOfPayments string `json:"number_of_payments"`
	Product          string `json:"product_description"`
}

func (s *ScreenValues) CurrencyText() string         { return s.Currency }
func (s *ScreenValues) PlanTotalText() string        { return s.PlanTotal }
func (s *ScreenValues) SubtotalText() string         { return s.Subtotal }
func (s *ScreenValues) DownPaymentText() string      { return s.DownPayment }
func (s *ScreenValues) FeeText() string              { return s.Fee }
func (s *ScreenValues) OrderTotalText() string       { return s.OrderTotal }
func (s *ScreenValues) RemainingBalanceText() string { return s.RemainingBalance }
func (s *ScreenValues) PaymentFrequencyText() string { return s.PaymentFrequency }
func (s *ScreenValues) NumberOfPaymentsText() string { return s.NumberOfPayments }
func (s *ScreenValues) ProductDescription() string   { return s.Product }
