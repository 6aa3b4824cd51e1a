// Package catalog holds the read-only menu snapshot every other engine package
// evaluates against, plus the persistence and admin paths that produce it.
package catalog

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/schedule"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Loader materializes a catalog snapshot from the backing store.
type Loader interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
}

type Product struct {
	ID            uuid.UUID        `json:"id"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	ImageURL      string           `json:"image_url,omitempty"`
	InStock       bool             `json:"in_stock"`
	Highlighted   bool             `json:"highlighted"`
	TrackStock    bool             `json:"track_stock"`
	StockQuantity int              `json:"stock_quantity"`
	Position      int              `json:"position"`
}

type Category struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name"`
	Icon     enums.CategoryIcon `json:"icon"`
	Position int                `json:"position"`
}

type ExtraOption struct {
	ID          uuid.UUID       `json:"id"`
	GroupID     uuid.UUID       `json:"group_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	MaxQuantity int             `json:"max_quantity"`
}

// ExtrasGroup carries its options in display order.
type ExtrasGroup struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	MinSelection int           `json:"min_selection"`
	MaxSelection int           `json:"max_selection"`
	Options      []ExtraOption `json:"options"`
}

type ProductExtraLink struct {
	ProductID uuid.UUID `json:"product_id"`
	GroupID   uuid.UUID `json:"group_id"`
}

type DeliveryFee struct {
	ID           uuid.UUID       `json:"id"`
	Neighborhood string          `json:"neighborhood"`
	Fee          decimal.Decimal `json:"fee"`
	IsActive     bool            `json:"is_active"`
}

type StoreConfig struct {
	Name                 string          `json:"name"`
	WhatsApp             string          `json:"whatsapp"`
	PixKey               string          `json:"pix_key"`
	CoverURL             string          `json:"cover_url,omitempty"`
	LogoURL              string          `json:"logo_url,omitempty"`
	CardDebitFeePercent  decimal.Decimal `json:"card_debit_fee_percent"`
	CardCreditFeePercent decimal.Decimal `json:"card_credit_fee_percent"`
}

// SurchargePercent returns the configured card fee for the payment method, or
// zero for methods that carry no surcharge.
func (c StoreConfig) SurchargePercent(method enums.PaymentMethod) decimal.Decimal {
	switch method {
	case enums.PaymentMethodDebitCard:
		return c.CardDebitFeePercent
	case enums.PaymentMethodCreditCard:
		return c.CardCreditFeePercent
	}
	return decimal.Zero
}

// Catalog is an immutable snapshot; callers must not mutate the slices.
type Catalog struct {
	Products     []Product          `json:"products"`
	Categories   []Category         `json:"categories"`
	ExtrasGroups []ExtrasGroup      `json:"extras_groups"`
	Links        []ProductExtraLink `json:"product_extras"`
	StoreConfig  StoreConfig        `json:"store_config"`
	Hours        []schedule.Hours   `json:"opening_hours"`
	DeliveryFees []DeliveryFee      `json:"delivery_fees"`

	productIdx map[uuid.UUID]int
	groupIdx   map[uuid.UUID]int
	linkIdx    map[uuid.UUID][]uuid.UUID
}

// New builds an indexed snapshot from its parts.
func New(c Catalog) *Catalog {
	snapshot := c
	snapshot.reindex()
	return &snapshot
}

func (c *Catalog) reindex() {
	c.productIdx = make(map[uuid.UUID]int, len(c.Products))
	for i, p := range c.Products {
		c.productIdx[p.ID] = i
	}
	c.groupIdx = make(map[uuid.UUID]int, len(c.ExtrasGroups))
	for i, g := range c.ExtrasGroups {
		c.groupIdx[g.ID] = i
	}
	c.linkIdx = make(map[uuid.UUID][]uuid.UUID)
	for _, link := range c.Links {
		c.linkIdx[link.ProductID] = append(c.linkIdx[link.ProductID], link.GroupID)
	}
	for productID, groups := range c.linkIdx {
		sort.SliceStable(groups, func(i, j int) bool {
			return c.groupOrder(groups[i]) < c.groupOrder(groups[j])
		})
		c.linkIdx[productID] = groups
	}
}

func (c *Catalog) groupOrder(id uuid.UUID) int {
	if idx, ok := c.groupIdx[id]; ok {
		return idx
	}
	return len(c.ExtrasGroups)
}

func (c *Catalog) ensureIndex() {
	if c.productIdx == nil {
		c.reindex()
	}
}

// Product looks up a product by id.
func (c *Catalog) Product(id uuid.UUID) (Product, bool) {
	c.ensureIndex()
	idx, ok := c.productIdx[id]
	if !ok {
		return Product{}, false
	}
	return c.Products[idx], true
}

// Group looks up an extras group by id.
func (c *Catalog) Group(id uuid.UUID) (ExtrasGroup, bool) {
	c.ensureIndex()
	idx, ok := c.groupIdx[id]
	if !ok {
		return ExtrasGroup{}, false
	}
	return c.ExtrasGroups[idx], true
}

// GroupsForProduct returns only the groups linked to the product, in group order.
func (c *Catalog) GroupsForProduct(productID uuid.UUID) []ExtrasGroup {
	c.ensureIndex()
	ids := c.linkIdx[productID]
	groups := make([]ExtrasGroup, 0, len(ids))
	for _, id := range ids {
		if group, ok := c.Group(id); ok {
			groups = append(groups, group)
		}
	}
	return groups
}

// ActiveDeliveryFee finds the active fee for a neighborhood, ignoring case,
// accents and surrounding whitespace.
func (c *Catalog) ActiveDeliveryFee(neighborhood string) (DeliveryFee, bool) {
	return FindActiveFee(c.DeliveryFees, neighborhood)
}

// FindActiveFee is ActiveDeliveryFee over a bare fee table.
func FindActiveFee(fees []DeliveryFee, neighborhood string) (DeliveryFee, bool) {
	want := NormalizeNeighborhood(neighborhood)
	if want == "" {
		return DeliveryFee{}, false
	}
	for _, fee := range fees {
		if fee.IsActive && NormalizeNeighborhood(fee.Neighborhood) == want {
			return fee, true
		}
	}
	return DeliveryFee{}, false
}

// OpeningHours returns the weekly schedule.
func (c *Catalog) OpeningHours() []schedule.Hours {
	return c.Hours
}
