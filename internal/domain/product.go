package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. Stock is only ever decremented by order placement and
// restored by order cancellation; admin edits may set it to any non-negative value.
type Product struct {
	ID          int64           `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	CategoryID  int64           `json:"category_id,string" gorm:"index"`
	Name        string          `json:"name" gorm:"size:200;index;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0;check:chk_product_stock,stock >= 0"`
	ImageURL    string          `json:"image_url" gorm:"size:1024"`
	Featured    bool            `json:"featured" gorm:"not null"`
	IsActive    bool            `json:"is_active" gorm:"index;not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "product"
}

// Category groups products. Deleting one only deactivates it.
type Category struct {
	ID          int64     `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"size:500"`
	IconName    string    `json:"icon_name" gorm:"size:64"`
	IconURL     string    `json:"icon_url" gorm:"size:1024"`
	IsActive    bool      `json:"is_active" gorm:"index;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	ProductCount int64 `json:"product_count" gorm:"-"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "category"
}
