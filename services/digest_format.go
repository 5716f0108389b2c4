package services

import (
	"fmt"
	"strings"

	"free-games-bot/models"
	"free-games-bot/utils"
)

const (
	maxOffersPerSection = 15
	maxTitleRunes       = 80
)

var storeDisplayNames = map[string]string{
	models.StoreEpic:  "Epic Games",
	models.StoreGOG:   "GOG",
	models.StoreSteam: "Steam",
}

func storeDisplayName(store string) string {
	if name, ok := storeDisplayNames[store]; ok {
		return name
	}
	return utils.DisplayTitle(store)
}

func offerLine(i int, o models.Offer) string {
	line := fmt.Sprintf("%d. <a href=\"%s\">%s</a>", i+1, esc(o.URL), esc(utils.Truncate(o.Title, maxTitleRunes)))
	if o.PriceState == models.PriceStateDiscounted && o.DiscountPercent > 0 {
		line += fmt.Sprintf(" (-%d%%", o.DiscountPercent)
		if !o.FinalPrice.IsZero() || !o.OriginalPrice.IsZero() {
			line += fmt.Sprintf(", <s>%s</s> → %s %s",
				o.OriginalPrice.StringFixed(2), o.FinalPrice.StringFixed(2), esc(o.Currency))
		}
		line += ")"
	}
	if o.EndsAt != nil && o.PriceState == models.PriceStateFreeNow {
		line += fmt.Sprintf(" until %s", o.EndsAt.UTC().Format("Jan 2"))
	}
	return line + "\n"
}

func writeSection(b *strings.Builder, header string, offers []models.Offer) {
	b.WriteString(header)
	for i, o := range offers {
		if i == maxOffersPerSection {
			fmt.Fprintf(b, "…and %d more\n", len(offers)-maxOffersPerSection)
			break
		}
		b.WriteString(offerLine(i, o))
	}
}

func splitByState(offers []models.Offer) (free, upcoming, discounted []models.Offer) {
	for _, o := range offers {
		switch o.PriceState {
		case models.PriceStateFreeNow:
			free = append(free, o)
		case models.PriceStateUpcoming:
			upcoming = append(upcoming, o)
		case models.PriceStateDiscounted:
			discounted = append(discounted, o)
		}
	}
	return free, upcoming, discounted
}

// FormatDigest renders the HTML digest, one block per store in source order.
// A store without free titles still gets its "nothing right now" line.
func FormatDigest(stores []StoreOffers) string {
	var b strings.Builder
	b.WriteString("🎮 <b>Free games today:</b>\n")

	for _, s := range stores {
		name := esc(storeDisplayName(s.Store))
		free, upcoming, discounted := splitByState(s.Offers)

		if len(free) > 0 {
			writeSection(&b, fmt.Sprintf("\n🆓 <b>%s Free Now:</b>\n", name), free)
		} else {
			fmt.Fprintf(&b, "\n🆓 <b>%s Free Now:</b>\n🚫 No free games right now.\n", name)
		}
		if len(upcoming) > 0 {
			writeSection(&b, fmt.Sprintf("\n⏳ <b>Coming soon (%s):</b>\n", name), upcoming)
		}
		if len(discounted) > 0 {
			writeSection(&b, fmt.Sprintf("\n💸 <b>%s Deals:</b>\n", name), discounted)
		}
	}

	b.WriteString("\nClaimed one? Send /claim &lt;url&gt; &lt;title&gt; to add it to your collection.")
	return b.String()
}
