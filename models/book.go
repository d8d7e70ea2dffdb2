package models

import "time"

type Book struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Author      string `gorm:"index;not null" json:"author"`
	Description string `json:"description"`
	// UserID records which account created the entry. Write access is
	// decided by the caller's superuser flag, not by ownership.
	UserID    uint      `json:"user_id"`
	Price     int64     `gorm:"not null" json:"price"` // smallest currency unit
	Stock     int64     `gorm:"not null" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
