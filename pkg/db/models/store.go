package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StoreConfigID is the primary key of the singleton store_config row.
const StoreConfigID = 1

// StoreConfig holds the store's contact data and card surcharges.
type StoreConfig struct {
	ID                   int             `gorm:"column:id;primaryKey"`
	Name                 string          `gorm:"column:name;not null"`
	WhatsApp             string          `gorm:"column:whatsapp;not null"`
	PixKey               string          `gorm:"column:pix_key;not null"`
	CoverURL             *string         `gorm:"column:cover_url"`
	LogoURL              *string         `gorm:"column:logo_url"`
	CardDebitFeePercent  decimal.Decimal `gorm:"column:card_debit_fee_percent;type:numeric(5,2);not null"`
	CardCreditFeePercent decimal.Decimal `gorm:"column:card_credit_fee_percent;type:numeric(5,2);not null"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (StoreConfig) TableName() string { return "store_config" }

// OpeningHour is one weekday row; times are "HH:MM" in store local time.
type OpeningHour struct {
	DayOfWeek int     `gorm:"column:day_of_week;primaryKey;autoIncrement:false"`
	OpenTime  *string `gorm:"column:open_time"`
	CloseTime *string `gorm:"column:close_time"`
	IsClosed  bool    `gorm:"column:is_closed;not null"`
}

func (OpeningHour) TableName() string { return "opening_hours" }

// DeliveryFee is the flat delivery price for a neighborhood.
type DeliveryFee struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Neighborhood string          `gorm:"column:neighborhood;not null"`
	Fee          decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (DeliveryFee) TableName() string { return "delivery_fees" }

func (f *DeliveryFee) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
