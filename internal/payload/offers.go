package payload

import "strings"

// Offer maps a product-description substring to the vacation identifier the
// ad destinations segment on.
type Offer struct {
	Match string
	ID    string
}

// The live vacation offers. Order matters: first match wins.
var offers = []Offer{
	{Match: "cancun", ID: "vac-cancun"},
	{Match: "cabo", ID: "vac-cabo"},
	{Match: "puerto vallarta", ID: "vac-puerto-vallarta"},
	{Match: "orlando", ID: "vac-orlando"},
	{Match: "gatlinburg", ID: "vac-gatlinburg"},
}

// MatchOffer resolves a product description to an offer identifier by
// case-insensitive substring search. No match yields "".
func MatchOffer(description string) string {
	desc := strings.ToLower(description)
	for _, o := range offers {
		if strings.Contains(desc, o.Match) {
			return o.ID
		}
	}
	return ""
}
