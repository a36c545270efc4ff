package model

import "fmt"

// Quality is the marketboard quality tier of a listing.
type Quality string

const (
	NQ Quality = "nq"
	HQ Quality = "hq"
)

// Listing represents a single marketboard offer for an item.
type Listing struct {
	PricePerUnit int64  `json:"pricePerUnit"`
	HQ           bool   `json:"hq"`
	OnMannequin  *bool  `json:"onMannequin,omitempty"`
	WorldName    string `json:"worldName,omitempty"`
}

// Quality returns the tier the listing belongs to.
func (l Listing) Quality() Quality {
	if l.HQ {
		return HQ
	}
	return NQ
}

// Velocity holds the externally computed average units sold per day.
type Velocity struct {
	NQ *float64 `json:"nq"`
	HQ *float64 `json:"hq"`
}

// TierStats summarises the valid listings of one quality tier.
type TierStats struct {
	MinPrice    int64    `json:"min_price"`
	MedianPrice float64  `json:"median_price"`
	Velocity    *float64 `json:"velocity"`
	World       string   `json:"world"`
	Listings    int      `json:"listings"`
}

// ItemMarket is the per-item price record. A nil tier means no valid
// listings exist for that quality and it must be treated as unavailable.
// Velocity is kept for both tiers whether or not they have listings.
type ItemMarket struct {
	ItemID   int        `json:"item_id"`
	NQ       *TierStats `json:"nq"`
	HQ       *TierStats `json:"hq"`
	Velocity Velocity   `json:"velocity"`
}

// Tier returns the stats for q, or nil.
func (m ItemMarket) Tier(q Quality) *TierStats {
	if q == HQ {
		return m.HQ
	}
	return m.NQ
}

// MinPrice returns the minimum price of tier q, or nil when unavailable.
func (m ItemMarket) MinPrice(q Quality) *int64 {
	t := m.Tier(q)
	if t == nil {
		return nil
	}
	p := t.MinPrice
	return &p
}

// HasData reports whether at least one tier is available.
func (m ItemMarket) HasData() bool {
	return m.NQ != nil || m.HQ != nil
}

// Source identifies where the cheapest unit of an item can be obtained.
type Source string

const (
	SourceFixedPrice Source = "fixed_price"
	SourceNQMarket   Source = "standard_quality_market"
	SourceHQMarket   Source = "high_quality_market"
)

// RecipeLine is one row of a recipe: the result or one ingredient.
type RecipeLine struct {
	ItemID     int    `json:"item_id"`
	Name       string `json:"name"`
	Icon       int    `json:"icon"`
	Amount     int    `json:"amount"`
	FixedPrice *int64 `json:"fixed_price"`
}

// IconURL returns the asset URL of the line's icon.
func (l RecipeLine) IconURL() string {
	return IconURL(l.Icon)
}

// Recipe is a result item together with its ingredient slots.
type Recipe struct {
	ID          int          `json:"recipe_id"`
	Job         string       `json:"job"`
	Result      RecipeLine   `json:"result"`
	Ingredients []RecipeLine `json:"ingredients"`
}

// ItemIDs returns the result id followed by every ingredient id.
func (r Recipe) ItemIDs() []int {
	ids := make([]int, 0, len(r.Ingredients)+1)
	ids = append(ids, r.Result.ItemID)
	for _, ing := range r.Ingredients {
		ids = append(ids, ing.ItemID)
	}
	return ids
}

// RecipeSummary identifies a recipe producing a given item.
type RecipeSummary struct {
	RecipeID int    `json:"recipe_id"`
	ItemID   int    `json:"item_id"`
	ItemName string `json:"item_name"`
	Job      string `json:"job"`
	Label    string `json:"label"`
}

// Split assigns an ingredient's required quantity across acquisition sources.
type Split struct {
	FixedPrice int `json:"fixed_price" validate:"min=0"`
	NQMarket   int `json:"nq" validate:"min=0"`
	HQMarket   int `json:"hq" validate:"min=0"`
}

// Total returns the sum of the assigned quantities.
func (s Split) Total() int {
	return s.FixedPrice + s.NQMarket + s.HQMarket
}

// IconURL derives the icon asset URL from an icon id. Icons are grouped in
// folders of one thousand.
func IconURL(icon int) string {
	folder := (icon / 1000) * 1000
	return fmt.Sprintf("https://v2.xivapi.com/api/asset?path=ui/icon/%06d/%06d.tex&format=png", folder, icon)
}
