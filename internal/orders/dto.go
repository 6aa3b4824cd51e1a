package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// ListFilters describe the inputs supported by the admin orders list.
type ListFilters struct {
	Status *enums.OrderStatus
}

// Summary is one row of the admin orders list.
type Summary struct {
	ID            uuid.UUID             `json:"id"`
	DailyNumber   int                   `json:"daily_number"`
	CustomerName  string                `json:"customer_name"`
	Fulfillment   enums.FulfillmentMode `json:"fulfillment"`
	PaymentMethod enums.PaymentMethod   `json:"payment_method"`
	Status        enums.OrderStatus     `json:"status"`
	Total         decimal.Decimal       `json:"total"`
	TotalLabel    string                `json:"total_label"`
	TotalItems    int                   `json:"total_items"`
	CreatedAt     time.Time             `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type LineItem struct {
	ID             uuid.UUID        `json:"id"`
	ProductID      uuid.UUID        `json:"product_id"`
	ProductName    string           `json:"product_name"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Extras         types.LineExtras `json:"extras"`
	Quantity       int              `json:"quantity"`
	LineTotal      decimal.Decimal  `json:"line_total"`
	LineTotalLabel string           `json:"line_total_label"`
}

// Detail is the full order with its line items.
type Detail struct {
	ID            uuid.UUID             `json:"id"`
	DailyNumber   int                   `json:"daily_number"`
	CustomerName  string                `json:"customer_name"`
	Phone         string                `json:"phone"`
	Fulfillment   enums.FulfillmentMode `json:"fulfillment"`
	Neighborhood  *string               `json:"neighborhood,omitempty"`
	Address       *string               `json:"address,omitempty"`
	Observation   *string               `json:"observation,omitempty"`
	PaymentMethod enums.PaymentMethod   `json:"payment_method"`
	Status        enums.OrderStatus     `json:"status"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	DeliveryFee   decimal.Decimal       `json:"delivery_fee"`
	Surcharge     decimal.Decimal       `json:"surcharge"`
	Total         decimal.Decimal       `json:"total"`
	TotalLabel    string                `json:"total_label"`
	ChangeFor     *decimal.Decimal      `json:"change_for,omitempty"`
	ChangeDue     *decimal.Decimal      `json:"change_due,omitempty"`
	ChangeLabel   string                `json:"change_label,omitempty"`
	Items         []LineItem            `json:"items"`
	CreatedAt     time.Time             `json:"created_at"`
}

func totalItems(items []models.OrderLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// SummaryFromModel maps an order row to its list view.
func SummaryFromModel(o models.Order) Summary {
	return Summary{
		ID:            o.ID,
		DailyNumber:   o.DailyNumber,
		CustomerName:  o.CustomerName,
		Fulfillment:   o.Fulfillment,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		Total:         o.Total,
		TotalLabel:    money.Format(o.Total),
		TotalItems:    totalItems(o.Items),
		CreatedAt:     o.CreatedAt,
	}
}

// DetailFromModel maps an order row and its preloaded items.
func DetailFromModel(o models.Order) *Detail {
	items := make([]LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		extras := item.Extras
		if extras == nil {
			extras = types.LineExtras{}
		}
		items = append(items, LineItem{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPrice:      item.UnitPrice,
			Extras:         extras,
			Quantity:       item.Quantity,
			LineTotal:      item.LineTotal,
			LineTotalLabel: money.Format(item.LineTotal),
		})
	}
	detail := &Detail{
		ID:            o.ID,
		DailyNumber:   o.DailyNumber,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Fulfillment:   o.Fulfillment,
		Neighborhood:  o.Neighborhood,
		Address:       o.Address,
		Observation:   o.Observation,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Surcharge:     o.Surcharge,
		Total:         o.Total,
		TotalLabel:    money.Format(o.Total),
		ChangeFor:     o.ChangeFor,
		ChangeDue:     o.ChangeDue,
		Items:         items,
		CreatedAt:     o.CreatedAt,
	}
	if o.ChangeFor != nil && o.ChangeDue != nil {
		detail.ChangeLabel = money.Format(*o.ChangeDue) + " change for " + money.Format(*o.ChangeFor)
	}
	return detail
}
