// workers/epic_source.go
package workers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"free-games-bot/models"

	"github.com/shopspring/decimal"
)

const (
	EpicPromotionsURL = "https://store-site-backend-static.ak.epicgames.com/freeGamesPromotions?locale=en-US&country=US&allowCountries=US"
	epicProductURL    = "https://store.epicgames.com/en-US/p/"
)

type epicPromotion struct {
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	DiscountSetting struct {
		DiscountType       string `json:"discountType"`
		DiscountPercentage int    `json:"discountPercentage"`
	} `json:"discountSetting"`
}

type epicPromotionGroup struct {
	PromotionalOffers []epicPromotion `json:"promotionalOffers"`
}

type epicElement struct {
	Title       string `json:"title"`
	ProductSlug string `json:"productSlug"`
	URLSlug     string `json:"urlSlug"`
	CatalogNs   struct {
		Mappings []struct {
			PageSlug string `json:"pageSlug"`
		} `json:"mappings"`
	} `json:"catalogNs"`
	Price struct {
		TotalPrice struct {
			DiscountPrice int64  `json:"discountPrice"`
			OriginalPrice int64  `json:"originalPrice"`
			CurrencyCode  string `json:"currencyCode"`
			CurrencyInfo  struct {
				Decimals int32 `json:"decimals"`
			} `json:"currencyInfo"`
		} `json:"totalPrice"`
	} `json:"price"`
	Promotions *struct {
		PromotionalOffers         []epicPromotionGroup `json:"promotionalOffers"`
		UpcomingPromotionalOffers []epicPromotionGroup `json:"upcomingPromotionalOffers"`
	} `json:"promotions"`
}

type epicResponse struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []epicElement `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

// EpicSource reads the Epic Games Store free-games promotions feed.
type EpicSource struct {
	URL        string
	HTTPClient *http.Client
}

func NewEpicSource(client *http.Client) *EpicSource {
	return &EpicSource{URL: EpicPromotionsURL, HTTPClient: client}
}

func (s *EpicSource) Name() string { return models.StoreEpic }

func (s *EpicSource) FetchOffers(ctx context.Context) ([]models.Offer, error) {
	var resp epicResponse
	if err := getJSON(ctx, s.HTTPClient, "EPIC", s.URL, &resp); err != nil {
		return nil, err
	}

	var offers []models.Offer
	for _, el := range resp.Data.Catalog.SearchStore.Elements {
		if offer, ok := epicOffer(el); ok {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

func epicSlug(el epicElement) string {
	for _, m := range el.CatalogNs.Mappings {
		if m.PageSlug != "" {
			return m.PageSlug
		}
	}
	if el.ProductSlug != "" {
		return strings.TrimSuffix(el.ProductSlug, "/home")
	}
	return el.URLSlug
}

func firstPromotion(groups []epicPromotionGroup) *epicPromotion {
	if len(groups) == 0 || len(groups[0].PromotionalOffers) == 0 {
		return nil
	}
	return &groups[0].PromotionalOffers[0]
}

// epicOffer keeps titles that are free right now (active promotion whose
// discounted price is zero) or have an upcoming promotion.
func epicOffer(el epicElement) (models.Offer, bool) {
	if el.Promotions == nil || el.Title == "" {
		return models.Offer{}, false
	}
	slug := epicSlug(el)
	if slug == "" {
		return models.Offer{}, false
	}

	price := el.Price.TotalPrice
	exp := -price.CurrencyInfo.Decimals
	if price.CurrencyInfo.Decimals == 0 {
		exp = -2
	}
	offer := models.Offer{
		Store:         models.StoreEpic,
		Title:         el.Title,
		URL:           epicProductURL + slug,
		OriginalPrice: decimal.New(price.OriginalPrice, exp),
		FinalPrice:    decimal.New(price.DiscountPrice, exp),
		Currency:      price.CurrencyCode,
	}

	if active := firstPromotion(el.Promotions.PromotionalOffers); active != nil &&
		active.DiscountSetting.DiscountPercentage == 0 {
		offer.PriceState = models.PriceStateFreeNow
		offer.DiscountPercent = 100
		offer.StartsAt = timePtr(active.StartDate)
		offer.EndsAt = timePtr(active.EndDate)
		return offer, true
	}
	if upcoming := firstPromotion(el.Promotions.UpcomingPromotionalOffers); upcoming != nil {
		offer.PriceState = models.PriceStateUpcoming
		offer.StartsAt = timePtr(upcoming.StartDate)
		offer.EndsAt = timePtr(upcoming.EndDate)
		return offer, true
	}
	return models.Offer{}, false
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
