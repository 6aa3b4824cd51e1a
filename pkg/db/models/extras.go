package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExtrasGroup is a named set of modifiers with a selection window.
type ExtrasGroup struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Name         string        `gorm:"column:name;not null"`
	MinSelection int           `gorm:"column:min_selection;not null"`
	MaxSelection int           `gorm:"column:max_selection;not null"`
	Position     int           `gorm:"column:position;not null"`
	Options      []ExtraOption `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExtrasGroup) TableName() string { return "extras_groups" }

func (g *ExtrasGroup) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ExtraOption belongs to exactly one ExtrasGroup.
type ExtraOption struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	GroupID     uuid.UUID       `gorm:"column:group_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	MaxQuantity int             `gorm:"column:max_quantity;not null"`
	Position    int             `gorm:"column:position;not null"`
}

func (ExtraOption) TableName() string { return "extra_options" }

func (o *ExtraOption) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ProductExtraLink attaches an extras group to a product.
type ProductExtraLink struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	GroupID   uuid.UUID `gorm:"column:group_id;type:uuid;primaryKey"`
}

func (ProductExtraLink) TableName() string { return "product_extras" }
