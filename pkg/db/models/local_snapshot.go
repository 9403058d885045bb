package models

import "time"

// LocalSnapshot stores one opaque payload per key in the client's local database.
type LocalSnapshot struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LocalSnapshot) TableName() string { return "local_snapshots" }
