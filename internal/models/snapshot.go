package models

import "time"

// Snapshot records the output of one scheduled resolution pass.
type Snapshot struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	BatchID   string `gorm:"size:36;uniqueIndex"`
	Previous  bool
	Accounts  int
	Resolved  int
	Payload   string    `gorm:"type:text"`
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}
