// Package sink holds the outbound destinations: the CDP relay, the ad-network
// pixels, and the diagnostic log sink. Each destination fails independently;
// there is no retry and no delivery guarantee.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/topekalabs/beacon/internal/payload"
)

// Sink is a single event destination.
type Sink interface {
	Start(ctx context.Context) error
	Enqueue(e payload.Event) error
	Close() error
	Name() string // sink name for metrics and logging
}

func postJSON(client *http.Client, url string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("destination returned status %d", resp.StatusCode)
	}
	return nil
}
