package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Category groups products on the menu; names are unique per store.
type Category struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name      string             `gorm:"column:name;not null;uniqueIndex"`
	Icon      enums.CategoryIcon `gorm:"column:icon;not null"`
	Position  int                `gorm:"column:position;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
