package model

import "time"

// UnknownUser is the lastUser sentinel assigned when a machine is first seen
// and whenever a cycle restart is detected during reconciliation.
const UnknownUser = "Unknown"

// Machine represents a single washer or dryer. The vendor-assigned OpaqueID
// is the stable reconciliation key; LicensePlate and QRCodeID are the
// human-facing identifiers used by claim lookups.
type Machine struct {
	OpaqueID   string `gorm:"primaryKey;size:64" json:"opaqueId"`
	LocationID string `gorm:"index;size:64;not null" json:"locationId"`
	RoomID     string `gorm:"index;size:64;not null" json:"roomId"`

	LicensePlate string `gorm:"index;size:64;not null" json:"licensePlate"`
	QRCodeID     string `gorm:"index;size:64;not null" json:"qrCodeId"`
	NFCID        string `gorm:"size:64" json:"nfcId"`

	Available          bool    `gorm:"not null" json:"available"`
	FreePlay           bool    `gorm:"not null" json:"freePlay"`
	DoorClosed         bool    `gorm:"not null" json:"doorClosed"`
	ControllerType     string  `gorm:"size:64" json:"controllerType"`
	Display            *string `gorm:"type:text" json:"display"`
	Mode               string  `gorm:"size:64" json:"mode"`
	Type               string  `gorm:"size:32;not null" json:"type"`
	StickerNumber      int     `gorm:"not null" json:"stickerNumber"`
	TimeRemaining      int     `gorm:"not null" json:"timeRemaining"`
	GroupID            *string `gorm:"size:64" json:"groupId"`
	InService          *bool   `json:"inService"`
	NotAvailableReason string  `gorm:"size:256" json:"notAvailableReason"`
	StackItems         *string `gorm:"type:text" json:"stackItems"`

	CapabilityAddTime           bool `gorm:"not null" json:"capability_addTime"`
	CapabilityShowAddTimeNotice bool `gorm:"not null" json:"capability_showAddTimeNotice"`
	CapabilityShowSettings      bool `gorm:"not null" json:"capability_showSettings"`

	SettingsCycle      string  `gorm:"size:64" json:"settings_cycle"`
	SettingsSoil       string  `gorm:"size:64" json:"settings_soil"`
	SettingsWasherTemp *string `gorm:"size:64" json:"settings_washerTemp"`
	SettingsDryerTemp  string  `gorm:"size:64" json:"settings_dryerTemp"`

	LastUser    *string   `gorm:"size:128" json:"lastUser"`
	LastUpdated time.Time `gorm:"not null" json:"lastUpdated"`

	// Associations
	Location Location `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Room     Room     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
