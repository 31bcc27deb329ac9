// Package enrich resolves the caller's network addresses and coarse location
// from public lookup services. Every failure degrades to empty fields; the
// payload is never blocked on enrichment.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultIPv4URL = "https://api.ipify.org?format=json"
	defaultIPv6URL = "https://api64.ipify.org?format=json"
	defaultGeoURL  = "https://ipapi.co/%s/json/"

	// DefaultTimeout bounds the whole lookup chain so a hung lookup cannot
	// stall dispatch.
	DefaultTimeout = 5 * time.Second
)

// Info is the network/geo block merged into every payload.
type Info struct {
	IPAddress   string `json:"ipAddress,omitempty"`
	IPv6Address string `json:"ipv6Address,omitempty"`
	Country     string `json:"userCountry,omitempty"`
	Region      string `json:"userRegion,omitempty"`
	City        string `json:"userCity,omitempty"`
	Postal      string `json:"userPostal,omitempty"`
}

type Client struct {
	client  *http.Client
	ipv4URL string
	ipv6URL string
	geoURL  string // expects one %s for the IPv4 address
	log     *zap.Logger
}

// NewClient builds a lookup client. Empty URLs fall back to the public
// defaults; a zero timeout falls back to DefaultTimeout.
func NewClient(ipv4URL, ipv6URL, geoURL string, timeout time.Duration, log *zap.Logger) *Client {
	if ipv4URL == "" {
		ipv4URL = defaultIPv4URL
	}
	if ipv6URL == "" {
		ipv6URL = defaultIPv6URL
	}
	if geoURL == "" {
		geoURL = defaultGeoURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		ipv4URL: ipv4URL,
		ipv6URL: ipv6URL,
		geoURL:  geoURL,
		log:     log,
	}
}

// Lookup resolves IPv4 and IPv6 concurrently, then geolocates off the IPv4
// address. Any leg failing logs a warning and leaves its fields empty.
func (c *Client) Lookup(ctx context.Context) Info {
	var info Info
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		ip, err := c.fetchIP(ctx, c.ipv4URL)
		if err != nil {
			c.log.Warn("ipv4 lookup failed", zap.Error(err))
			return
		}
		info.IPAddress = ip
	}()
	go func() {
		defer wg.Done()
		ip, err := c.fetchIP(ctx, c.ipv6URL)
		if err != nil {
			c.log.Warn("ipv6 lookup failed", zap.Error(err))
			return
		}
		info.IPv6Address = ip
	}()
	wg.Wait()

	if info.IPAddress == "" {
		return info
	}

	var geo struct {
		CountryName string `json:"country_name"`
		Region      string `json:"region"`
		City        string `json:"city"`
		Postal      string `json:"postal"`
	}
	if err := c.fetchJSON(ctx, fmt.Sprintf(c.geoURL, info.IPAddress), &geo); err != nil {
		c.log.Warn("geo lookup failed", zap.String("ip", info.IPAddress), zap.Error(err))
		return info
	}
	info.Country = geo.CountryName
	info.Region = geo.Region
	info.City = geo.City
	info.Postal = geo.Postal
	return info
}

func (c *Client) fetchIP(ctx context.Context, url string) (string, error) {
	var body struct {
		IP string `json:"ip"`
	}
	if err := c.fetchJSON(ctx, url, &body); err != nil {
		return "", err
	}
	return body.IP, nil
}

func (c *Client) fetchJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
