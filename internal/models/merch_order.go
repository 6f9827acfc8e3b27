package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MerchOrder is created only at successful checkout; there is no pending
// state for merchandise.
type MerchOrder struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CustomerName  string           `gorm:"not null" json:"customer_name"`
	CustomerEmail string           `gorm:"not null" json:"customer_email"`
	ShipAddress   string           `gorm:"not null" json:"ship_address"`
	ShipCity      string           `gorm:"not null" json:"ship_city"`
	ShipProvince  string           `gorm:"not null" json:"ship_province"`
	ShipPostal    string           `gorm:"not null" json:"ship_postal"`
	ShipCarrier   string           `json:"ship_carrier"`
	ShippingCost  int              `json:"shipping_cost"`
	Total         int              `gorm:"not null" json:"total"`
	Items         []MerchOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

type MerchOrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Product   Product   `json:"product"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int       `gorm:"not null" json:"unit_price"`
}

func (order *MerchOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}

func (item *MerchOrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return
}
