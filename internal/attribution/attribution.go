// Package attribution derives the Meta click and browser tokens and reads
// campaign parameters off the landing URL.
package attribution

import (
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"github.com/topekalabs/beacon/internal/store"
)

const (
	// ClickCookie holds the click attribution token (_fbc).
	ClickCookie = "_fbc"
	// BrowserCookie holds the browser token (_fbp).
	BrowserCookie = "_fbp"
)

// ClickToken returns the click attribution token. An existing cookie is
// returned verbatim and never rewritten, even when a different click ID
// arrives on a later visit: attribution is first-touch. With no cookie and a
// non-empty click ID it synthesizes fb.<hostname>.<unixSeconds>.<clickID>,
// writes the cookie, and returns the token. With neither, it returns "".
func ClickToken(jar store.CookieJar, hostname, clickID string, now time.Time) string {
	if v, ok := jar.Get(ClickCookie); ok {
		return v
	}
	if clickID == "" {
		return ""
	}

	token := fmt.Sprintf("fb.%s.%d.%s", hostname, now.Unix(), clickID)
	jar.Set(store.NewCookie(ClickCookie, token))
	return token
}

// BrowserToken returns the browser token, synthesizing
// fb.1.<unixSeconds>.<randomBase36> and writing the cookie when absent.
func BrowserToken(jar store.CookieJar, now time.Time) string {
	if v, ok := jar.Get(BrowserCookie); ok {
		return v
	}

	token := fmt.Sprintf("fb.1.%d.%s", now.Unix(), strconv.FormatUint(rand.Uint64(), 36))
	jar.Set(store.NewCookie(BrowserCookie, token))
	return token
}

// UTMParams is the fixed-key campaign parameter set carried on every event.
type UTMParams struct {
	Source         string `json:"source,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Campaign       string `json:"campaign,omitempty"`
	ID             string `json:"id,omitempty"`
	Term           string `json:"term,omitempty"`
	Content        string `json:"content,omitempty"`
	FBCLID         string `json:"fbclid,omitempty"`
	GCLID          string `json:"gclid,omitempty"`
	ATRefID        string `json:"atrefid,omitempty"`
	AdID           string `json:"ad_id,omitempty"`
	AdSetID        string `json:"adset_id,omitempty"`
	CampaignID     string `json:"campaign_id,omitempty"`
	AdName         string `json:"ad_name,omitempty"`
	AdSetName      string `json:"adset_name,omitempty"`
	CampaignName   string `json:"campaign_name,omitempty"`
	Placement      string `json:"placement,omitempty"`
	SiteSourceName string `json:"site_source_name,omitempty"`
	GBRAID         string `json:"gbraid,omitempty"`
	WBRAID         string `json:"wbraid,omitempty"`
}

// ParseUTM reads the campaign parameters off a query string. Absent
// parameters stay empty and are omitted from the serialized payload.
func ParseUTM(q url.Values) UTMParams {
	return UTMParams{
		Source:         q.Get("utm_source"),
		Medium:         q.Get("utm_medium"),
		Campaign:       q.Get("utm_campaign"),
		ID:             q.Get("utm_id"),
		Term:           q.Get("utm_term"),
		Content:        q.Get("utm_content"),
		FBCLID:         q.Get("fbclid"),
		GCLID:          q.Get("gclid"),
		ATRefID:        q.Get("atrefid"),
		AdID:           q.Get("ad_id"),
		AdSetID:        q.Get("adset_id"),
		CampaignID:     q.Get("campaign_id"),
		AdName:         q.Get("ad_name"),
		AdSetName:      q.Get("adset_name"),
		CampaignName:   q.Get("campaign_name"),
		Placement:      q.Get("placement"),
		SiteSourceName: q.Get("site_source_name"),
		GBRAID:         q.Get("gbraid"),
		WBRAID:         q.Get("wbraid"),
	}
}
