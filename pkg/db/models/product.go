package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable menu item.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	Name          string           `gorm:"column:name;not null"`
	Description   string           `gorm:"column:description;not null"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CostPrice     *decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2)"`
	ImageURL      *string          `gorm:"column:image_url"`
	InStock       bool             `gorm:"column:in_stock;not null"`
	Highlighted   bool             `gorm:"column:highlighted;not null"`
	TrackStock    bool             `gorm:"column:track_stock;not null"`
	StockQuantity int              `gorm:"column:stock_quantity;not null"`
	Position      int              `gorm:"column:position;not null"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
