package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topekalabs/beacon/internal/attribution"
	"github.com/topekalabs/beacon/internal/enrich"
	"github.com/topekalabs/beacon/internal/form"
	"github.com/topekalabs/beacon/internal/screen"
)

func TestMatchOffer(t *testing.T) {
	assert.Equal(t, "vac-cancun", MatchOffer("7-Night CANCUN Getaway"))
	assert.Equal(t, "vac-cabo", MatchOffer("All-inclusive Cabo package"))
	assert.Equal(t, "vac-puerto-vallarta", MatchOffer("puerto vallarta beachfront"))
	assert.Empty(t, MatchOffer("mystery destination"))
	assert.Empty(t, MatchOffer(""))
}

func TestMatchOffer_FirstMatchWins(t *testing.T) {
	assert.Equal(t, "vac-cancun", MatchOffer("cancun or cabo, you choose"))
}

func TestAssemble_PageView(t *testing.T) {
	p := Assemble(Inputs{
		Enrichment: enrich.Info{IPAddress: "203.0.113.42", Country: "United States"},
		UTM:        attribution.UTMParams{Source: "google", FBCLID: "XYZ"},
		FBC:        "fb.shop.example.com.1700000000.XYZ",
		FBP:        "fb.1.1700000000.abc",
		DeviceID:   "11111111-2222-4333-8444-555555555555",
	})

	assert.Equal(t, "203.0.113.42", p.IPAddress)
	assert.Equal(t, "google", p.UTMParameters.Source)
	assert.Equal(t, "fb.1.1700000000.abc", p.FBP)
	assert.Nil(t, p.Customer)
	assert.Nil(t, p.Screen)
	assert.Empty(t, p.VacationID)
}

func TestAssemble_CheckoutSources(t *testing.T) {
	total := int64(1299)
	p := Assemble(Inputs{
		DeviceID:           "11111111-2222-4333-8444-555555555555",
		Customer:           &form.Contact{Email: "jane@example.com"},
		Screen:             &screen.Data{OrderTotal: &total, Currency: "USD"},
		ProductDescription: "7-Night Cancun Getaway",
	})

	require.NotNil(t, p.Customer)
	assert.Equal(t, "jane@example.com", p.Customer.Email)
	require.NotNil(t, p.Screen)
	assert.Equal(t, int64(1299), *p.Screen.OrderTotal)
	assert.Equal(t, "vac-cancun", p.VacationID)
}

func TestAssemble_EmptyCustomerOmitted(t *testing.T) {
	p := Assemble(Inputs{Customer: &form.Contact{}})
	assert.Nil(t, p.Customer)
}

func TestPayload_JSONShape(t *testing.T) {
	p := Assemble(Inputs{
		Enrichment: enrich.Info{IPAddress: "203.0.113.42"},
		UTM:        attribution.UTMParams{Source: "google"},
		DeviceID:   "11111111-2222-4333-8444-555555555555",
	})

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))

	// Enrichment fields sit at the top level, campaign params nest.
	assert.Equal(t, "203.0.113.42", decoded["ipAddress"])
	utm, ok := decoded["utmParameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "google", utm["source"])
	assert.Equal(t, "11111111-2222-4333-8444-555555555555", decoded["device_id"])
	_, hasCustomer := decoded["customer"]
	assert.False(t, hasCustomer)
}
