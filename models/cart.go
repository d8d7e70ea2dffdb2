package models

import "time"

// Cart doubles as the order record once IsOrdered flips. A user has at
// most one cart with IsOrdered=false at a time; mutations go through
// get-or-create inside a transaction rather than a unique index so the
// ordered rows can pile up per user.
type Cart struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	Items         []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice    int64      `gorm:"not null;default:0" json:"total_price"`
	TotalQuantity int64      `gorm:"not null;default:0" json:"total_quantity"`
	IsOrdered     bool       `gorm:"default:false" json:"is_ordered"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"index" json:"cart_id"`
	BookID    uint      `gorm:"not null" json:"book_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	Price     int64     `gorm:"not null" json:"price"` // line total, snapshotted from the book price
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
