package model

import "time"

// Location represents the single physical site the scraper is pointed at.
type Location struct {
	LocationID   string    `gorm:"primaryKey;size:64" json:"locationId"`
	Description  *string   `gorm:"type:text" json:"description"`
	Label        string    `gorm:"size:256;not null" json:"label"`
	DryerCount   int       `gorm:"not null" json:"dryerCount"`
	WasherCount  int       `gorm:"not null" json:"washerCount"`
	MachineCount int       `gorm:"not null" json:"machineCount"`
	LastUpdated  time.Time `gorm:"not null" json:"lastUpdated"`

	// Associations
	Rooms []Room `gorm:"foreignKey:LocationID" json:"-"`
}
