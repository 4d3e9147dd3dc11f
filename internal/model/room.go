package model

import "time"

// Room represents a laundry room within the location.
type Room struct {
	RoomID       string    `gorm:"primaryKey;size:64" json:"roomId"`
	LocationID   string    `gorm:"index;size:64;not null" json:"locationId"`
	Connected    bool      `gorm:"not null" json:"connected"`
	FreePlay     bool      `gorm:"not null" json:"freePlay"`
	Description  *string   `gorm:"type:text" json:"description"`
	Label        string    `gorm:"size:256;not null" json:"label"`
	DryerCount   int       `gorm:"not null" json:"dryerCount"`
	WasherCount  int       `gorm:"not null" json:"washerCount"`
	MachineCount int       `gorm:"not null" json:"machineCount"`
	LastUpdated  time.Time `gorm:"not null" json:"lastUpdated"`

	// Associations
	Location Location  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Machines []Machine `gorm:"foreignKey:RoomID" json:"-"`
}
