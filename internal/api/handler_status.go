package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"laundry-machine-tracker/internal/model"
)

// roomView is a room with its machines nested in, as served to clients.
type roomView struct {
	model.Room
	Machines []model.Machine `json:"machines"`
}

// locationView is a location with its rooms keyed by roomId.
type locationView struct {
	model.Location
	Rooms map[string]roomView `json:"rooms"`
}

// GetStatus handles GET /. It returns every location with nested rooms and
// machines. ?room=<roomId> narrows to one room; ?machine=<id> narrows to the
// machine whose license plate or QR code matches.
func GetStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomFilter := c.Query("room")
		machineFilter := c.Query("machine")

		var locations []model.Location
		if err := db.Order("location_id").Find(&locations).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve locations"})
			return
		}

		roomQuery := db.Order("room_id")
		if roomFilter != "" {
			roomQuery = roomQuery.Where("room_id = ?", roomFilter)
		}
		var rooms []model.Room
		if err := roomQuery.Find(&rooms).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rooms"})
			return
		}

		machineQuery := db.Order("type, sticker_number")
		if machineFilter != "" {
			machineQuery = machineQuery.Where("license_plate = ? OR qr_code_id = ?", machineFilter, machineFilter)
		}
		var machines []model.Machine
		if err := machineQuery.Find(&machines).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machines"})
			return
		}

		machinesByRoom := make(map[string][]model.Machine)
		for _, m := range machines {
			machinesByRoom[m.RoomID] = append(machinesByRoom[m.RoomID], m)
		}

		response := make([]locationView, 0, len(locations))
		for _, loc := range locations {
			view := locationView{Location: loc, Rooms: make(map[string]roomView)}
			for _, room := range rooms {
				if room.LocationID != loc.LocationID {
					continue
				}
				ms := machinesByRoom[room.RoomID]
				if ms == nil {
					ms = []model.Machine{}
				}
				view.Rooms[room.RoomID] = roomView{Room: room, Machines: ms}
			}
			response = append(response, view)
		}

		c.JSON(http.StatusOK, response)
	}
}
