package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestLookup_FullChain(t *testing.T) {
	ipv4 := httptest.NewServer(jsonHandler(`{"ip":"203.0.113.42"}`))
	defer ipv4.Close()
	ipv6 := httptest.NewServer(jsonHandler(`{"ip":"2001:db8::1"}`))
	defer ipv6.Close()

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "203.0.113.42"))
		jsonHandler(`{"country_name":"United States","region":"Kansas","city":"Topeka","postal":"66603"}`)(w, r)
	}))
	defer geo.Close()

	c := NewClient(ipv4.URL, ipv6.URL, geo.URL+"/%s/json/", time.Second, zap.NewNop())
	info := c.Lookup(context.Background())

	assert.Equal(t, "203.0.113.42", info.IPAddress)
	assert.Equal(t, "2001:db8::1", info.IPv6Address)
	assert.Equal(t, "United States", info.Country)
	assert.Equal(t, "Kansas", info.Region)
	assert.Equal(t, "Topeka", info.City)
	assert.Equal(t, "66603", info.Postal)
}

func TestLookup_GeoFailureKeepsAddresses(t *testing.T) {
	ipv4 := httptest.NewServer(jsonHandler(`{"ip":"203.0.113.42"}`))
	defer ipv4.Close()
	ipv6 := httptest.NewServer(jsonHandler(`{"ip":"2001:db8::1"}`))
	defer ipv6.Close()

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer geo.Close()

	c := NewClient(ipv4.URL, ipv6.URL, geo.URL+"/%s/json/", time.Second, zap.NewNop())
	info := c.Lookup(context.Background())

	assert.Equal(t, "203.0.113.42", info.IPAddress)
	assert.Equal(t, "2001:db8::1", info.IPv6Address)
	assert.Empty(t, info.Country)
	assert.Empty(t, info.City)
}

func TestLookup_IPv4FailureSkipsGeo(t *testing.T) {
	ipv4 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ipv4.Close()
	ipv6 := httptest.NewServer(jsonHandler(`{"ip":"2001:db8::1"}`))
	defer ipv6.Close()

	geoCalled := false
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geoCalled = true
	}))
	defer geo.Close()

	c := NewClient(ipv4.URL, ipv6.URL, geo.URL+"/%s/json/", time.Second, zap.NewNop())
	info := c.Lookup(context.Background())

	assert.Empty(t, info.IPAddress)
	assert.Equal(t, "2001:db8::1", info.IPv6Address)
	assert.False(t, geoCalled)
}

func TestLookup_TotalFailureIsEmpty(t *testing.T) {
	// Closed servers refuse every connection.
	ipv4 := httptest.NewServer(nil)
	ipv4URL := ipv4.URL
	ipv4.Close()

	c := NewClient(ipv4URL, ipv4URL, ipv4URL+"/%s/json/", 200*time.Millisecond, zap.NewNop())
	info := c.Lookup(context.Background())

	assert.Equal(t, Info{}, info)
}
