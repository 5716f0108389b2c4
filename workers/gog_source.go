// workers/gog_source.go
package workers

import (
	"context"
	"net/http"
	"strings"

	"free-games-bot/models"

	"github.com/shopspring/decimal"
)

const (
	GOGCatalogURL = "https://catalog.gog.com/v1/catalog?limit=48&price=between:0,0&order=desc:trending&productType=in:game,pack&page=1&countryCode=US&locale=en-US&currencyCode=USD"
	gogProductURL = "https://www.gog.com/en/game/"
	GOGMaxOffers  = 10
)

type gogMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type gogProduct struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	StoreLink string `json:"storeLink"`
	Price     *struct {
		FinalMoney gogMoney `json:"finalMoney"`
		BaseMoney  gogMoney `json:"baseMoney"`
	} `json:"price"`
}

type gogResponse struct {
	Products []gogProduct `json:"products"`
}

// GOGSource lists GOG catalog titles whose current price is zero.
type GOGSource struct {
	URL        string
	HTTPClient *http.Client
	Limit      int
}

func NewGOGSource(client *http.Client) *GOGSource {
	return &GOGSource{URL: GOGCatalogURL, HTTPClient: client, Limit: GOGMaxOffers}
}

func (s *GOGSource) Name() string { return models.StoreGOG }

func (s *GOGSource) FetchOffers(ctx context.Context) ([]models.Offer, error) {
	var resp gogResponse
	if err := getJSON(ctx, s.HTTPClient, "GOG", s.URL, &resp); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var offers []models.Offer
	for _, p := range resp.Products {
		if s.Limit > 0 && len(offers) >= s.Limit {
			break
		}
		offer, ok := gogOffer(p)
		if !ok || seen[offer.URL] {
			continue
		}
		seen[offer.URL] = true
		offers = append(offers, offer)
	}
	return offers, nil
}

func gogOffer(p gogProduct) (models.Offer, bool) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return models.Offer{}, false
	}
	link := p.StoreLink
	if link == "" && p.Slug != "" {
		link = gogProductURL + p.Slug
	}
	if link == "" {
		return models.Offer{}, false
	}
	if !strings.HasPrefix(link, "http") {
		link = "https://www.gog.com" + link
	}

	offer := models.Offer{
		Store:           models.StoreGOG,
		Title:           title,
		URL:             link,
		PriceState:      models.PriceStateFreeNow,
		DiscountPercent: 100,
	}
	if p.Price != nil {
		final, err := decimal.NewFromString(p.Price.FinalMoney.Amount)
		if err == nil && !final.IsZero() {
			return models.Offer{}, false
		}
		if base, err := decimal.NewFromString(p.Price.BaseMoney.Amount); err == nil {
			offer.OriginalPrice = base
		}
		offer.Currency = p.Price.FinalMoney.Currency
	}
	return offer, true
}
