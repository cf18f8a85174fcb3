// Package icons holds the static icon metadata for categories. Icon names
// are opaque keys resolved by the presentation layer; this package only maps
// them to display colors so chart slices stay consistent across screens.
package icons

// DefaultColor is used for any icon key without an entry.
const DefaultColor = "#E0E0E0"

var colors = map[string]string{
	// expense icons, pastel palette
	"Restaurant":         "#FFB3BA",
	"ShoppingCart":       "#FFDFBA",
	"Home":               "#D4A5FF",
	"DirectionsCar":      "#BAE1FF",
	"Grass":              "#BFECA8",
	"LocalFlorist":       "#F8C8DC",
	"Fastfood":           "#FFE5B4",
	"FitnessCenter":      "#FFB8D1",
	"Theaters":           "#CDB4FF",
	"PhoneAndroid":       "#B4D4FF",
	"Checkroom":          "#FFCCD5",
	"Face":               "#FFD4E5",
	"SwapHoriz":          "#D4D4D4",
	"Diamond":            "#FFE0F0",
	"School":             "#B8D8FF",
	"Flight":             "#B8E0FF",
	"LocalCafe":          "#D4BDAC",
	"Smartphone":         "#C4B5FD",
	"LocalHospital":      "#FFCCCC",
	"Cloud":              "#CCE7FF",
	"Work":               "#D1C4E9",
	"ChildCare":          "#FFD6E8",
	"Elderly":            "#FFDDB8",
	"Pets":               "#FFE8C5",
	"Groups":             "#DAD0FF",
	"Star":               "#FFF4C4",
	"People":             "#D5E8FF",
	"TrendingUp":         "#B8E6D5",
	"Chair":              "#D4C4B0",
	"Build":              "#C4D4D4",
	"LocalBar":           "#E0CFFF",
	"CardGiftcard":       "#FFD4E5",
	"Security":           "#CCD4DC",

	// income icons, green-leaning palette
	"AccountBalance":       "#A8DDB5",
	"AccountBalanceWallet": "#B8E6C9",
	"WorkOutline":          "#B8D4FF",
	"EmojiEvents":          "#FFE4B3",
	"Sell":                 "#B8E0FF",
	"Redeem":               "#FFD4E5",
	"Undo":                 "#B3E5FC",
	"MeetingRoom":          "#D4C4B0",
	"TrendingDown":         "#DAC4FF",
	"ConfirmationNumber":   "#FFDDB8",
	"Paid":                 "#B8E6C9",
	"Receipt":              "#C4D4FF",
	"MoreHoriz":            "#D4D4D4",
}

// Color returns the display color for an icon key, falling back to a neutral
// gray for unknown keys (custom categories pick icons we may not know).
func Color(iconName string) string {
	if c, ok := colors[iconName]; ok {
		return c
	}
	return DefaultColor
}
