package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the committed, priced snapshot of a cart.
type Order struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	DailyNumber   int                   `gorm:"column:daily_number;not null"`
	CustomerName  string                `gorm:"column:customer_name;not null"`
	Phone         string                `gorm:"column:phone;not null"`
	Fulfillment   enums.FulfillmentMode `gorm:"column:fulfillment;not null"`
	Neighborhood  *string               `gorm:"column:neighborhood"`
	Address       *string               `gorm:"column:address"`
	Observation   *string               `gorm:"column:observation"`
	PaymentMethod enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	Status        enums.OrderStatus     `gorm:"column:status;not null"`
	Subtotal      decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal       `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Surcharge     decimal.Decimal       `gorm:"column:surcharge;type:numeric(12,2);not null"`
	Total         decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	ChangeFor     *decimal.Decimal      `gorm:"column:change_for;type:numeric(12,2)"`
	ChangeDue     *decimal.Decimal      `gorm:"column:change_due;type:numeric(12,2)"`
	Items         []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLineItem freezes a cart line at commit time.
type OrderLineItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID        `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	ProductName string           `gorm:"column:product_name;not null"`
	UnitPrice   decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Extras      types.LineExtras `gorm:"column:extras;type:jsonb;not null"`
	Quantity    int              `gorm:"column:quantity;not null"`
	LineTotal   decimal.Decimal  `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
