package handlers

import (
	"telehealth-server/internal/middleware"
	"telehealth-server/internal/models"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReviewHandler handles doctor and hospital reviews.
type ReviewHandler struct {
	DB *gorm.DB
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{DB: db}
}

// CreateReviewRequest represents the request body for leaving a review.
type CreateReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Text   string `json:"text" binding:"max=1000"`
}

// CreateDoctorReview leaves a review for a doctor. One review per user per
// doctor; a second attempt updates nothing and is rejected.
func (h *ReviewHandler) CreateDoctorReview(c *gin.Context) {
	var req CreateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	doctorID := c.Param("doctorId")
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", doctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var existing models.DoctorReview
	if err := h.DB.Where("user_id = ? AND doctor_id = ?", userID, doctorID).First(&existing).Error; err == nil {
		utils.BadRequest(c, "You have already reviewed this doctor")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	review := models.DoctorReview{
		UserID:   userID,
		DoctorID: doctorID,
		Rating:   req.Rating,
		Text:     req.Text,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		utils.InternalServerError(c, "Failed to create review: "+err.Error())
		return
	}

	utils.Created(c, "Review created successfully", review.View())
}

// GetDoctorReviews lists reviews for a doctor, newest first.
func (h *ReviewHandler) GetDoctorReviews(c *gin.Context) {
	var reviews []models.DoctorReview
	if err := h.DB.Where("doctor_id = ?", c.Param("doctorId")).
		Order("created_at desc").Find(&reviews).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch reviews: "+err.Error())
		return
	}

	views := make([]models.DoctorReviewView, len(reviews))
	for i := range reviews {
		views[i] = reviews[i].View()
	}
	utils.Success(c, "Reviews fetched successfully", views)
}

// CreateHospitalReview leaves a review for a hospital. One review per user
// per hospital.
func (h *ReviewHandler) CreateHospitalReview(c *gin.Context) {
	var req CreateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	hospitalID := c.Param("hospitalId")
	var hospital models.Hospital
	if err := h.DB.First(&hospital, "id = ?", hospitalID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Hospital not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var existing models.HospitalReview
	if err := h.DB.Where("user_id = ? AND hospital_id = ?", userID, hospitalID).First(&existing).Error; err == nil {
		utils.BadRequest(c, "You have already reviewed this hospital")
		return
	} else if err != gorm.ErrRecordNotFound {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	review := models.HospitalReview{
		UserID:     userID,
		HospitalID: hospitalID,
		Rating:     req.Rating,
		Text:       req.Text,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		utils.InternalServerError(c, "Failed to create review: "+err.Error())
		return
	}

	utils.Created(c, "Review created successfully", review.View())
}

// GetHospitalReviews lists reviews for a hospital, newest first.
func (h *ReviewHandler) GetHospitalReviews(c *gin.Context) {
	var reviews []models.HospitalReview
	if err := h.DB.Where("hospital_id = ?", c.Param("hospitalId")).
		Order("created_at desc").Find(&reviews).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch reviews: "+err.Error())
		return
	}

	views := make([]models.HospitalReviewView, len(reviews))
	for i := range reviews {
		views[i] = reviews[i].View()
	}
	utils.Success(c, "Reviews fetched successfully", views)
}
