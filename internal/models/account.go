package models

import "time"

// Account is a stored login. Cookie holds the raw Cookie header captured
// from an authenticated browser session.
type Account struct {
	UID       string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"size:64"`
	Cookie    string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
