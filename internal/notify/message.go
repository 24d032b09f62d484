package notify

import (
	"fmt"
	"strings"

	"complex-tracker/internal/changes"
	"complex-tracker/internal/models"
	"complex-tracker/internal/price"
)

// embed colors
const (
	colorSummary = 0x3498DB
	colorAdded   = 0x2ECC71
	colorRemoved = 0xE74C3C
	colorPrice   = 0xF39C12
)

// Embed is a single notification card in a webhook payload
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Payload is a webhook message body
type Payload struct {
	Username string  `json:"username"`
	Embeds   []Embed `json:"embeds"`
}

// summaryEmbed closes every notification with per-category counts
func summaryEmbed(cs *changes.ChangeSet, added, removed, priceChanged int) Embed {
	name := cs.ComplexName
	if name == "" {
		name = cs.ComplexNo
	}
	return Embed{
		Title: fmt.Sprintf("%s 매물 변동", name),
		Description: fmt.Sprintf("신규 %d건 · 삭제 %d건 · 가격변동 %d건",
			added, removed, priceChanged),
		Color: colorSummary,
	}
}

func addedEmbed(l models.Listing) Embed {
	return Embed{
		Title:       fmt.Sprintf("신규 매물 · %s", l.TradeTypeName),
		Description: listingLine(l),
		Color:       colorAdded,
	}
}

func removedEmbed(l models.Listing) Embed {
	return Embed{
		Title:       fmt.Sprintf("삭제된 매물 · %s", l.TradeTypeName),
		Description: listingLine(l),
		Color:       colorRemoved,
	}
}

func priceEmbed(pc changes.PriceChange) Embed {
	var parts []string
	if !samePrice(pc.Old.DealPriceWon, pc.New.DealPriceWon) {
		parts = append(parts, fmt.Sprintf("%s → %s",
			formatWonPtr(pc.Old.DealPriceWon), formatWonPtr(pc.New.DealPriceWon)))
	}
	if !samePrice(pc.Old.RentPriceWon, pc.New.RentPriceWon) {
		parts = append(parts, fmt.Sprintf("월세 %s → %s",
			formatWonPtr(pc.Old.RentPriceWon), formatWonPtr(pc.New.RentPriceWon)))
	}
	return Embed{
		Title:       fmt.Sprintf("가격 변동 · %s", pc.New.TradeTypeName),
		Description: listingLine(pc.New) + "\n" + strings.Join(parts, " / "),
		Color:       colorPrice,
	}
}

// listingLine is the one-line listing description shared by all embeds
func listingLine(l models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1f㎡", displayPrice(l), l.Area1)
	if l.FloorInfo != "" {
		fmt.Fprintf(&b, " · %s층", l.FloorInfo)
	}
	if l.BuildingName != "" {
		fmt.Fprintf(&b, " · %s", l.BuildingName)
	}
	return b.String()
}

// displayPrice prefers the raw display string, falling back to the
// parsed won amount
func displayPrice(l models.Listing) string {
	if l.DealPrice != "" {
		if l.RentPrice != "" && l.RentPrice != "-" {
			return l.DealPrice + "/" + l.RentPrice
		}
		return l.DealPrice
	}
	return formatWonPtr(l.DealPriceWon)
}

func formatWonPtr(won *int64) string {
	if won == nil {
		return "-"
	}
	return price.FormatWon(*won)
}

func samePrice(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
