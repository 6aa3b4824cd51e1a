package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuProduct is the customer-facing projection of a product. Cost price and
// raw stock counts stay in the back office.
type MenuProduct struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url,omitempty"`
	Highlighted  bool            `json:"highlighted"`
	Available    bool            `json:"available"`
	LowStock     bool            `json:"low_stock"`
	ExtrasGroups []ExtrasGroup   `json:"extras_groups"`
}

// MenuSection lists a category's products; Category is nil for uncategorized ones.
type MenuSection struct {
	Category *Category     `json:"category"`
	Products []MenuProduct `json:"products"`
}

type Menu struct {
	StoreName  string        `json:"store_name"`
	WhatsApp   string        `json:"whatsapp"`
	CoverURL   string        `json:"cover_url,omitempty"`
	LogoURL    string        `json:"logo_url,omitempty"`
	Highlights []MenuProduct `json:"highlights"`
	Sections   []MenuSection `json:"sections"`
}

// Available reports whether a product can currently be added to a cart.
func Available(p Product) bool {
	return p.InStock && (!p.TrackStock || p.StockQuantity > 0)
}

// BuildMenu groups products by category in category order. Empty categories
// are omitted and uncategorized products come last.
func BuildMenu(c *Catalog, isLowStock func(Product) bool) Menu {
	menu := Menu{
		StoreName:  c.StoreConfig.Name,
		WhatsApp:   c.StoreConfig.WhatsApp,
		CoverURL:   c.StoreConfig.CoverURL,
		LogoURL:    c.StoreConfig.LogoURL,
		Highlights: []MenuProduct{},
		Sections:   []MenuSection{},
	}

	byCategory := make(map[uuid.UUID][]MenuProduct, len(c.Categories))
	var uncategorized []MenuProduct
	known := make(map[uuid.UUID]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		known[cat.ID] = struct{}{}
	}

	for _, p := range c.Products {
		item := MenuProduct{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			ImageURL:     p.ImageURL,
			Highlighted:  p.Highlighted,
			Available:    Available(p),
			LowStock:     isLowStock != nil && isLowStock(p),
			ExtrasGroups: c.GroupsForProduct(p.ID),
		}
		if p.Highlighted {
			menu.Highlights = append(menu.Highlights, item)
		}
		if p.CategoryID == nil {
			uncategorized = append(uncategorized, item)
			continue
		}
		if _, ok := known[*p.CategoryID]; !ok {
			uncategorized = append(uncategorized, item)
			continue
		}
		byCategory[*p.CategoryID] = append(byCategory[*p.CategoryID], item)
	}

	for i := range c.Categories {
		cat := c.Categories[i]
		products := byCategory[cat.ID]
		if len(products) == 0 {
			continue
		}
		menu.Sections = append(menu.Sections, MenuSection{Category: &cat, Products: products})
	}
	if len(uncategorized) > 0 {
		menu.Sections = append(menu.Sections, MenuSection{Products: uncategorized})
	}
	return menu
}
