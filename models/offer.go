// models/offer.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StoreEpic  = "epic"
	StoreGOG   = "gog"
	StoreSteam = "steam"
)

type PriceState string

const (
	PriceStateFreeNow    PriceState = "free_now"
	PriceStateUpcoming   PriceState = "upcoming"
	PriceStateDiscounted PriceState = "discounted"
)

// Offer is one normalized store listing, whatever catalog it came from.
type Offer struct {
	Store      string     `json:"store"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	PriceState PriceState `json:"price_state"`

	// 💰 Pricing (zero values when the store does not report them)
	OriginalPrice   decimal.Decimal `json:"original_price"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	DiscountPercent int             `json:"discount_percent"`
	Currency        string          `json:"currency,omitempty"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}
