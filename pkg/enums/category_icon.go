package enums

import (
	"fmt"
	"strings"
)

// CategoryIcon is the closed set of pictograms a category can show.
type CategoryIcon string

const (
	CategoryIconSandwich        CategoryIcon = "sandwich"
	CategoryIconUtensilsCrossed CategoryIcon = "utensils_crossed"
	CategoryIconCupSoda         CategoryIcon = "cup_soda"
	CategoryIconShoppingBag     CategoryIcon = "shopping_bag"
	CategoryIconIceCream        CategoryIcon = "ice_cream"
	CategoryIconUtensils        CategoryIcon = "utensils"
	CategoryIconPackage         CategoryIcon = "package"

	// DefaultCategoryIcon is shown when a stored icon is unknown.
	DefaultCategoryIcon = CategoryIconUtensils
)

var validCategoryIcons = []CategoryIcon{
	CategoryIconSandwich,
	CategoryIconUtensilsCrossed,
	CategoryIconCupSoda,
	CategoryIconShoppingBag,
	CategoryIconIceCream,
	CategoryIconUtensils,
	CategoryIconPackage,
}

// String implements fmt.Stringer.
func (c CategoryIcon) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CategoryIcon.
func (c CategoryIcon) IsValid() bool {
	for _, candidate := range validCategoryIcons {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategoryIcon converts raw input into a CategoryIcon. Legacy PascalCase
// names ("IceCream", "CupSoda") are accepted.
func ParseCategoryIcon(value string) (CategoryIcon, error) {
	normalized := normalizeIconName(value)
	for _, candidate := range validCategoryIcons {
		if normalizeIconName(string(candidate)) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category icon %q", value)
}

// ParseCategoryIconOrDefault never fails; unknown values fall back to DefaultCategoryIcon.
func ParseCategoryIconOrDefault(value string) CategoryIcon {
	icon, err := ParseCategoryIcon(value)
	if err != nil {
		return DefaultCategoryIcon
	}
	return icon
}

func normalizeIconName(value string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), "_", ""))
}
