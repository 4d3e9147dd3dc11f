package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"laundry-machine-tracker/internal/model"
)

type claimRequest struct {
	UserID    string `json:"user_id"`
	MachineID string `json:"machine_id"`
}

// ClaimMachine handles POST /claim. The machine is looked up by license plate
// or QR code and only its last_user column is written; concurrent claims race
// last-write-wins.
func ClaimMachine(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req claimRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.MachineID == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Missing required fields"})
			return
		}

		var machine model.Machine
		err := db.First(&machine, "license_plate = ? OR qr_code_id = ?", req.MachineID, req.MachineID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Machine with id %s not found", req.MachineID)})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up machine"})
			return
		}

		if err := db.Model(&model.Machine{}).
			Where("opaque_id = ?", machine.OpaqueID).
			Update("last_user", req.UserID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update machine"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
