package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"laundry-machine-tracker/internal/model"
)

// Store defines the persistence operations the reconciliation cycle needs.
type Store interface {
	// UpsertLocation writes the location row if it changed. Failure is fatal
	// to the containing cycle.
	UpsertLocation(ctx context.Context, loc model.Location) (bool, error)
	// UpsertRooms writes changed room rows and reports how many were written.
	// Failure is fatal to the containing cycle.
	UpsertRooms(ctx context.Context, rooms []model.Room) (int, error)
	// UpsertMachines reconciles each machine independently: a failed machine
	// is counted and skipped, never blocking its siblings.
	UpsertMachines(ctx context.Context, machines []model.Machine) Summary
	// DB exposes the underlying handle for the read-side API handlers.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, log zerolog.Logger) Store {
	return &gormStore{db: db, log: log, now: time.Now}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertLocation creates the location on first sighting; afterwards it writes
// only when a tracked field differs, restamping last_updated.
func (s *gormStore) UpsertLocation(ctx context.Context, loc model.Location) (bool, error) {
	var existing model.Location
	err := s.db.WithContext(ctx).First(&existing, "location_id = ?", loc.LocationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		loc.LastUpdated = s.now()
		if err := s.db.WithContext(ctx).Create(&loc).Error; err != nil {
			return false, fmt.Errorf("create location %s: %w", loc.LocationID, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup location %s: %w", loc.LocationID, err)
	}

	if !locationChanged(existing, loc) {
		return false, nil
	}
	loc.LastUpdated = s.now()
	if err := s.db.WithContext(ctx).Save(&loc).Error; err != nil {
		return false, fmt.Errorf("update location %s: %w", loc.LocationID, err)
	}
	return true, nil
}

// UpsertRooms applies the same create-or-update-on-change template per room.
func (s *gormStore) UpsertRooms(ctx context.Context, rooms []model.Room) (int, error) {
	changed := 0
	for _, room := range rooms {
		var existing model.Room
		err := s.db.WithContext(ctx).First(&existing, "room_id = ?", room.RoomID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			room.LastUpdated = s.now()
			if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
				return changed, fmt.Errorf("create room %s: %w", room.RoomID, err)
			}
			changed++
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("lookup room %s: %w", room.RoomID, err)
		}

		if !roomChanged(existing, room) {
			continue
		}
		room.LastUpdated = s.now()
		if err := s.db.WithContext(ctx).Save(&room).Error; err != nil {
			return changed, fmt.Errorf("update room %s: %w", room.RoomID, err)
		}
		changed++
	}
	return changed, nil
}

// UpsertMachines reconciles every machine in the snapshot. One bad record is
// logged and skipped so it cannot block the other machines in the cycle.
func (s *gormStore) UpsertMachines(ctx context.Context, machines []model.Machine) Summary {
	var sum Summary
	for _, m := range machines {
		if m.Available {
			sum.Available++
		} else {
			sum.InUse++
		}

		outcome, err := s.upsertMachine(ctx, m)
		if err != nil {
			sum.Failed++
			s.log.Error().Err(err).Str("opaqueId", m.OpaqueID).Msg("machine upsert failed")
			continue
		}
		switch outcome {
		case outcomeCreated:
			sum.Created++
		case outcomeUpdated:
			sum.Updated++
		default:
			sum.Unchanged++
		}
	}
	return sum
}

type upsertOutcome int

const (
	outcomeUnchanged upsertOutcome = iota
	outcomeCreated
	outcomeUpdated
)

func (s *gormStore) upsertMachine(ctx context.Context, in model.Machine) (upsertOutcome, error) {
	if in.TimeRemaining < 0 {
		return outcomeUnchanged, &ValidationError{OpaqueID: in.OpaqueID, Reason: "timeRemaining cannot be negative"}
	}

	var existing model.Machine
	err := s.db.WithContext(ctx).First(&existing, "opaque_id = ?", in.OpaqueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// New machines always start with no attributed user, regardless of
		// what the payload carried.
		in.LastUser = unknownUser()
		in.LastUpdated = s.now()
		if err := s.db.WithContext(ctx).Create(&in).Error; err != nil {
			return outcomeUnchanged, fmt.Errorf("create machine %s: %w", in.OpaqueID, err)
		}
		return outcomeCreated, nil
	}
	if err != nil {
		return outcomeUnchanged, fmt.Errorf("lookup machine %s: %w", in.OpaqueID, err)
	}

	if !machineChanged(existing, in) {
		return outcomeUnchanged, nil
	}

	// A large upward jump in timeRemaining means someone started a new
	// cycle; attribution to the previous claimant no longer holds.
	in.LastUser = existing.LastUser
	if in.TimeRemaining-existing.TimeRemaining > cycleRestartThreshold {
		in.LastUser = unknownUser()
	}
	in.LastUpdated = s.now()
	if err := s.db.WithContext(ctx).Save(&in).Error; err != nil {
		return outcomeUnchanged, fmt.Errorf("update machine %s: %w", in.OpaqueID, err)
	}
	return outcomeUpdated, nil
}

func unknownUser() *string {
	u := model.UnknownUser
	return &u
}

// locationChanged compares every tracked field except last_updated.
func locationChanged(prev, next model.Location) bool {
	return !eqStrPtr(prev.Description, next.Description) ||
		prev.Label != next.Label ||
		prev.DryerCount != next.DryerCount ||
		prev.WasherCount != next.WasherCount ||
		prev.MachineCount != next.MachineCount
}

// roomChanged compares every tracked field except last_updated.
func roomChanged(prev, next model.Room) bool {
	return prev.LocationID != next.LocationID ||
		prev.Connected != next.Connected ||
		prev.FreePlay != next.FreePlay ||
		!eqStrPtr(prev.Description, next.Description) ||
		prev.Label != next.Label ||
		prev.DryerCount != next.DryerCount ||
		prev.WasherCount != next.WasherCount ||
		prev.MachineCount != next.MachineCount
}

// machineChanged compares every tracked field except last_updated and
// last_user, which follow their own rules.
func machineChanged(prev, next model.Machine) bool {
	return prev.LocationID != next.LocationID ||
		prev.RoomID != next.RoomID ||
		prev.LicensePlate != next.LicensePlate ||
		prev.QRCodeID != next.QRCodeID ||
		prev.NFCID != next.NFCID ||
		prev.Available != next.Available ||
		prev.FreePlay != next.FreePlay ||
		prev.DoorClosed != next.DoorClosed ||
		prev.ControllerType != next.ControllerType ||
		!eqStrPtr(prev.Display, next.Display) ||
		prev.Mode != next.Mode ||
		prev.Type != next.Type ||
		prev.StickerNumber != next.StickerNumber ||
		prev.TimeRemaining != next.TimeRemaining ||
		!eqStrPtr(prev.GroupID, next.GroupID) ||
		!eqBoolPtr(prev.InService, next.InService) ||
		prev.NotAvailableReason != next.NotAvailableReason ||
		!eqStrPtr(prev.StackItems, next.StackItems) ||
		prev.CapabilityAddTime != next.CapabilityAddTime ||
		prev.CapabilityShowAddTimeNotice != next.CapabilityShowAddTimeNotice ||
		prev.CapabilityShowSettings != next.CapabilityShowSettings ||
		prev.SettingsCycle != next.SettingsCycle ||
		prev.SettingsSoil != next.SettingsSoil ||
		!eqStrPtr(prev.SettingsWasherTemp, next.SettingsWasherTemp) ||
		prev.SettingsDryerTemp != next.SettingsDryerTemp
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqBoolPtr(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
