// Package screen turns the checkout summary's display strings into numbers.
package screen

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/store"
)

const storageKey = "onScreenData"

// PageReader exposes the rendered checkout summary as named display strings.
// The page runtime (or the ingest layer) implements it; extraction logic
// stays independent of any markup.
type PageReader interface {
	CurrencyText() string
	PlanTotalText() string
	SubtotalText() string
	DownPaymentText() string
	FeeText() string
	OrderTotalText() string
	RemainingBalanceText() string
	PaymentFrequencyText() string
	NumberOfPaymentsText() string
	ProductDescription() string
}

// Data holds the parsed checkout figures. Nil means the display text was
// missing or unparsable; extraction never fails outright.
type Data struct {
	Currency         string `json:"currency,omitempty"`
	PlanTotal        *int64 `json:"planTotal,omitempty"`
	Subtotal         *int64 `json:"subtotal,omitempty"`
	DownPayment      *int64 `json:"downPayment,omitempty"`
	Fee              *int64 `json:"fee,omitempty"`
	OrderTotal       *int64 `json:"orderTotal,omitempty"`
	RemainingBalance *int64 `json:"remainingBalance,omitempty"`
	PaymentFrequency *int64 `json:"paymentFrequency,omitempty"`
	NumberOfPayments *int64 `json:"numberOfPayments,omitempty"`
	PaymentAmount    *int64 `json:"paymentAmount,omitempty"`
}

// ParseAmount parses a display string like "$1,234.56" by stripping every
// rune that is not a digit, decimal point, or minus sign, parsing as a float,
// and flooring. Missing or unparsable text reports false.
func ParseAmount(text string) (int64, bool) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	if stripped == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Floor(f)), true
}

// Extract parses every checkout figure off the reader and caches the result
// into the store under onScreenData. The cache is a convenience side channel;
// the return value is authoritative.
func Extract(ctx context.Context, r PageReader, s store.Store, log *zap.Logger) Data {
	d := Data{Currency: strings.TrimSpace(r.CurrencyText())}

	d.PlanTotal = amount(r.PlanTotalText())
	d.Subtotal = amount(r.SubtotalText())
	d.DownPayment = amount(r.DownPaymentText())
	d.Fee = amount(r.FeeText())
	d.OrderTotal = amount(r.OrderTotalText())
	d.RemainingBalance = amount(r.RemainingBalanceText())
	d.PaymentFrequency = amount(strings.ReplaceAll(strings.ToLower(r.PaymentFrequencyText()), "month", ""))
	d.NumberOfPayments = amount(r.NumberOfPaymentsText())
	// The payment amount reads the same display node as the plan total in the
	// observed checkout markup. Kept as two separately named fields until the
	// owning team says otherwise.
	d.PaymentAmount = amount(r.PlanTotalText())

	if b, err := json.Marshal(d); err == nil {
		if err := s.Set(ctx, storageKey, string(b)); err != nil {
			log.Warn("on-screen data cache write failed", zap.Error(err))
		}
	}
	return d
}

func amount(text string) *int64 {
	v, ok := ParseAmount(text)
	if !ok {
		return nil
	}
	return &v
}
