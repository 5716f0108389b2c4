// workers/steam_source.go
package workers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"free-games-bot/models"

	"github.com/shopspring/decimal"
)

const (
	SteamFeaturedURL = "https://store.steampowered.com/api/featuredcategories?cc=us&l=en"
	steamAppURL      = "https://store.steampowered.com/app/%d/"
)

type steamItem struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Discounted         bool   `json:"discounted"`
	DiscountPercent    int    `json:"discount_percent"`
	OriginalPrice      int64  `json:"original_price"`
	FinalPrice         int64  `json:"final_price"`
	Currency           string `json:"currency"`
	DiscountExpiration int64  `json:"discount_expiration"`
}

type steamResponse struct {
	Specials struct {
		Items []steamItem `json:"items"`
	} `json:"specials"`
}

// SteamSource reads the storefront specials and keeps deep discounts.
// MinDiscount 100 means "free to keep" only.
type SteamSource struct {
	URL         string
	HTTPClient  *http.Client
	MinDiscount int
}

func NewSteamSource(client *http.Client, minDiscount int) *SteamSource {
	return &SteamSource{URL: SteamFeaturedURL, HTTPClient: client, MinDiscount: minDiscount}
}

func (s *SteamSource) Name() string { return models.StoreSteam }

func (s *SteamSource) FetchOffers(ctx context.Context) ([]models.Offer, error) {
	var resp steamResponse
	if err := getJSON(ctx, s.HTTPClient, "STEAM", s.URL, &resp); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var offers []models.Offer
	for _, item := range resp.Specials.Items {
		if seen[item.ID] || !item.Discounted || item.DiscountPercent < s.MinDiscount {
			continue
		}
		seen[item.ID] = true
		offers = append(offers, steamOffer(item))
	}
	return offers, nil
}

// Steam reports prices in cents.
func steamOffer(item steamItem) models.Offer {
	offer := models.Offer{
		Store:           models.StoreSteam,
		Title:           strings.TrimSpace(item.Name),
		URL:             fmt.Sprintf(steamAppURL, item.ID),
		PriceState:      models.PriceStateDiscounted,
		OriginalPrice:   decimal.New(item.OriginalPrice, -2),
		FinalPrice:      decimal.New(item.FinalPrice, -2),
		DiscountPercent: item.DiscountPercent,
		Currency:        item.Currency,
	}
	if item.DiscountPercent >= 100 || item.FinalPrice == 0 {
		offer.PriceState = models.PriceStateFreeNow
	}
	if item.DiscountExpiration > 0 {
		ends := time.Unix(item.DiscountExpiration, 0).UTC()
		offer.EndsAt = &ends
	}
	return offer
}
