package handlers

import (
	"telehealth-server/internal/middleware"
	"telehealth-server/internal/models"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MeetHandler handles meeting room lookups.
type MeetHandler struct {
	DB *gorm.DB
}

// NewMeetHandler creates a new MeetHandler.
func NewMeetHandler(db *gorm.DB) *MeetHandler {
	return &MeetHandler{DB: db}
}

// GetMeetByID fetches a meeting room. Only room members may see it; anyone
// else gets a not-found so room ids cannot be probed.
func (h *MeetHandler) GetMeetByID(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var meet models.Meet
	if err := h.DB.First(&meet, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Meeting room not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	isMember, err := meet.IsMember(h.DB, userID)
	if err != nil {
		utils.InternalServerError(c, "Database error checking membership: "+err.Error())
		return
	}
	if !isMember {
		utils.NotFound(c, "Meeting room not found")
		return
	}

	utils.Success(c, "Meeting room fetched successfully", meet)
}
