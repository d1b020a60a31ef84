package kvstore

import "time"

// Record is one JSON document under a fixed logical key.
type Record struct {
	Key       string    `gorm:"primaryKey"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Record) TableName() string { return "wallet_records" }
