package scraper

import (
	"laundry-machine-tracker/internal/flatten"
	"laundry-machine-tracker/internal/model"
)

// keySep joins nested vendor payload keys when machine records are flattened.
const keySep = "_"

// locationPayload models the vendor's GET {base}/{locationId} response. The
// room list arrives nested and is separated out by the orchestrator.
type locationPayload struct {
	LocationID   string        `json:"locationId"`
	Description  *string       `json:"description"`
	Label        string        `json:"label"`
	DryerCount   int           `json:"dryerCount"`
	WasherCount  int           `json:"washerCount"`
	MachineCount int           `json:"machineCount"`
	Rooms        []roomPayload `json:"rooms"`
}

type roomPayload struct {
	RoomID       string  `json:"roomId"`
	LocationID   string  `json:"locationId"`
	Connected    bool    `json:"connected"`
	FreePlay     bool    `json:"freePlay"`
	Description  *string `json:"description"`
	Label        string  `json:"label"`
	DryerCount   int     `json:"dryerCount"`
	WasherCount  int     `json:"washerCount"`
	MachineCount int     `json:"machineCount"`
}

func (p locationPayload) toModel() model.Location {
	return model.Location{
		LocationID:   p.LocationID,
		Description:  p.Description,
		Label:        p.Label,
		DryerCount:   p.DryerCount,
		WasherCount:  p.WasherCount,
		MachineCount: p.MachineCount,
	}
}

func (p roomPayload) toModel(locationID string) model.Room {
	return model.Room{
		RoomID:       p.RoomID,
		LocationID:   locationID,
		Connected:    p.Connected,
		FreePlay:     p.FreePlay,
		Description:  p.Description,
		Label:        p.Label,
		DryerCount:   p.DryerCount,
		WasherCount:  p.WasherCount,
		MachineCount: p.MachineCount,
	}
}

// machineFromPayload flattens a raw machine record and maps the known keys
// onto the model. Unknown keys are ignored; missing keys yield zero values.
func machineFromPayload(raw map[string]any, locationID, roomID string) model.Machine {
	flat := flatten.Flatten(raw, keySep)
	return model.Machine{
		OpaqueID:   asString(flat["opaqueId"]),
		LocationID: locationID,
		RoomID:     roomID,

		LicensePlate: asString(flat["licensePlate"]),
		QRCodeID:     asString(flat["qrCodeId"]),
		NFCID:        asString(flat["nfcId"]),

		Available:          asBool(flat["available"]),
		FreePlay:           asBool(flat["freePlay"]),
		DoorClosed:         asBool(flat["doorClosed"]),
		ControllerType:     asString(flat["controllerType"]),
		Display:            asStringPtr(flat["display"]),
		Mode:               asString(flat["mode"]),
		Type:               asString(flat["type"]),
		StickerNumber:      asInt(flat["stickerNumber"]),
		TimeRemaining:      asInt(flat["timeRemaining"]),
		GroupID:            asStringPtr(flat["groupId"]),
		InService:          asBoolPtr(flat["inService"]),
		NotAvailableReason: asString(flat["notAvailableReason"]),
		StackItems:         asStringPtr(flat["stackItems"]),

		CapabilityAddTime:           asBool(flat["capability"+keySep+"addTime"]),
		CapabilityShowAddTimeNotice: asBool(flat["capability"+keySep+"showAddTimeNotice"]),
		CapabilityShowSettings:      asBool(flat["capability"+keySep+"showSettings"]),

		SettingsCycle:      asString(flat["settings"+keySep+"cycle"]),
		SettingsSoil:       asString(flat["settings"+keySep+"soil"]),
		SettingsWasherTemp: asStringPtr(flat["settings"+keySep+"washerTemp"]),
		SettingsDryerTemp:  asString(flat["settings"+keySep+"dryerTemp"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

// asInt handles encoding/json's default float64 decoding of numbers.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}
