package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem one pending purchase line, unique per (user, product)
type CartItem struct {
	ID        int64     `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	UserID    int64     `json:"user_id,string" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID int64     `json:"product_id,string" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int       `json:"quantity" gorm:"not null;check:chk_cart_quantity,quantity > 0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "cart_item"
}

// Order is created atomically with its items. Status is the only field changed afterwards.
type Order struct {
	ID            int64           `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	UserID        int64           `json:"user_id,string" gorm:"index;not null"`
	CustomerEmail string          `json:"customer_email" gorm:"size:255;not null"`
	ShippingAddr  string          `json:"shipping_addr" gorm:"size:500;not null"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Status        OrderStatus     `json:"status" gorm:"size:20;index;not null"`
	TrackingCode  string          `json:"tracking_code" gorm:"size:32;uniqueIndex;not null"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// OrderItem captures the product name and unit price charged at order time.
type OrderItem struct {
	ID          int64           `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	OrderID     int64           `json:"order_id,string" gorm:"index;not null"`
	ProductID   int64           `json:"product_id,string" gorm:"index;not null"`
	ProductName string          `json:"product_name" gorm:"size:200"`
	ImageURL    string          `json:"image_url" gorm:"size:1024"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_item"
}

// LineTotal unit price times quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusLog one row per status change, used for the tracking timeline
type OrderStatusLog struct {
	ID         int64       `json:"id,string" gorm:"primaryKey;autoIncrement:false"`
	OrderID    int64       `json:"order_id,string" gorm:"index;not null"`
	FromStatus OrderStatus `json:"from_status" gorm:"size:20"`
	ToStatus   OrderStatus `json:"to_status" gorm:"size:20;not null"`
	Operator   string      `json:"operator" gorm:"size:255"`
	CreatedAt  time.Time   `json:"created_at"`
}

// TableName Specify table name
func (OrderStatusLog) TableName() string {
	return "order_status_log"
}
