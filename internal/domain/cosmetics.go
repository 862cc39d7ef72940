package domain

const CosmeticNone = "none"

type CosmeticKind string

const (
	KindBadge      CosmeticKind = "badge"
	KindFrame      CosmeticKind = "frame"
	KindNameEffect CosmeticKind = "nameEffect"
)

// Cosmetics holds ownership plus the equipped item per slot. Ownership is
// append-only; each equipped value is "none" or a member of OwnedItems.
type Cosmetics struct {
	Badge      string   `json:"badge"`
	Frame      string   `json:"frame"`
	NameEffect string   `json:"nameEffect"`
	OwnedItems []string `json:"ownedItems"`
}

func DefaultCosmetics() Cosmetics {
	return Cosmetics{
		Badge:      CosmeticNone,
		Frame:      CosmeticNone,
		NameEffect: CosmeticNone,
		OwnedItems: []string{},
	}
}

func (c Cosmetics) Owns(itemID string) bool {
	for _, id := range c.OwnedItems {
		if id == itemID {
			return true
		}
	}
	return false
}

type CosmeticItem struct {
	ID    string
	Kind  CosmeticKind
	Name  string
	Cost  int
	// Value is what the matching equip slot is set to, e.g. "gold" for
	// item "badge_gold".
	Value string
}

var CosmeticItems = []CosmeticItem{
	{ID: "badge_bronze", Kind: KindBadge, Name: "Bronze Badge", Cost: 500, Value: "bronze"},
	{ID: "badge_silver", Kind: KindBadge, Name: "Silver Badge", Cost: 1500, Value: "silver"},
	{ID: "badge_gold", Kind: KindBadge, Name: "Gold Badge", Cost: 3000, Value: "gold"},
	{ID: "badge_diamond", Kind: KindBadge, Name: "Diamond Badge", Cost: 5000, Value: "diamond"},
	{ID: "badge_legendary", Kind: KindBadge, Name: "Legendary Badge", Cost: 10000, Value: "legendary"},

	{ID: "frame_neon", Kind: KindFrame, Name: "Neon Frame", Cost: 1000, Value: "neon"},
	{ID: "frame_fire", Kind: KindFrame, Name: "Fire Frame", Cost: 2000, Value: "fire"},
	{ID: "frame_ice", Kind: KindFrame, Name: "Ice Frame", Cost: 2500, Value: "ice"},
	{ID: "frame_rainbow", Kind: KindFrame, Name: "Rainbow Frame", Cost: 4000, Value: "rainbow"},
	{ID: "frame_galaxy", Kind: KindFrame, Name: "Galaxy Frame", Cost: 7500, Value: "galaxy"},

	{ID: "name_glow", Kind: KindNameEffect, Name: "Glow Effect", Cost: 750, Value: "glow"},
	{ID: "name_wave", Kind: KindNameEffect, Name: "Wave Effect", Cost: 1250, Value: "wave"},
	{ID: "name_glitch", Kind: KindNameEffect, Name: "Glitch Effect", Cost: 1750, Value: "glitch"},
	{ID: "name_rainbow", Kind: KindNameEffect, Name: "Rainbow Effect", Cost: 3500, Value: "rainbow"},
	{ID: "name_sparkle", Kind: KindNameEffect, Name: "Sparkle Effect", Cost: 6000, Value: "sparkle"},
}

func CosmeticItemByID(id string) (CosmeticItem, bool) {
	for _, item := range CosmeticItems {
		if item.ID == id {
			return item, true
		}
	}
	return CosmeticItem{}, false
}

type Rank struct {
	Name string
	Icon string
}

// RankFromScore is the fallback rank shown when a player has no badge
// equipped.
func RankFromScore(score int) Rank {
	switch {
	case score >= 20000:
		return Rank{Name: "Legendary Master", Icon: "[L]"}
	case score >= 10000:
		return Rank{Name: "Diamond Architect", Icon: "[D]"}
	case score >= 6000:
		return Rank{Name: "Gold Engineer", Icon: "[G]"}
	case score >= 3000:
		return Rank{Name: "Silver Developer", Icon: "[S]"}
	case score >= 1000:
		return Rank{Name: "Bronze Coder", Icon: "[B]"}
	default:
		return Rank{Name: "Beginner", Icon: "[?]"}
	}
}
