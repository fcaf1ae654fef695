package handlers

import (
	"errors"
	"fmt"
	"time"

	"telehealth-server/internal/middleware"
	"telehealth-server/internal/models"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// errDoctorUnavailable aborts the creation transaction when the overlap
// check finds a live appointment in the requested interval.
var errDoctorUnavailable = errors.New("doctor is not available at this time")

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB *gorm.DB
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB) *AppointmentHandler {
	return &AppointmentHandler{DB: db}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
// Patient or doctor may be omitted when the caller holds that role; the
// missing side is inferred from the caller's own profile.
type CreateAppointmentRequest struct {
	PatientID          string                 `json:"patientId" binding:"omitempty,uuid"`
	DoctorID           string                 `json:"doctorId" binding:"omitempty,uuid"`
	AppointmentType    models.AppointmentType `json:"appointmentType" binding:"omitempty,oneof=consultation follow_up urgent_care mental_health general_checkup specialist"`
	ScheduledStartTime time.Time              `json:"scheduledStartTime" binding:"required"`
	ScheduledEndTime   time.Time              `json:"scheduledEndTime" binding:"required"`
	Timezone           string                 `json:"timezone"`
	Reason             string                 `json:"reason" binding:"required"`
	Notes              string                 `json:"notes"`
}

// CreateAppointment handles creating a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	patientID := req.PatientID
	doctorID := req.DoctorID

	// Infer the caller's own side from the resolved identity; administrative
	// and hospital callers must name both parties explicitly.
	switch ident.Role {
	case models.RoleDoctor:
		if patientID == "" {
			utils.BadRequest(c, "patientId: patient is required when a doctor is creating an appointment")
			return
		}
		doctorID = ident.ProfileID
	case models.RolePatient:
		if doctorID == "" {
			utils.BadRequest(c, "doctorId: doctor is required when a patient is creating an appointment")
			return
		}
		patientID = ident.ProfileID
	default:
		if doctorID == "" || patientID == "" {
			utils.BadRequest(c, "doctorId, patientId: both doctor and patient are required")
			return
		}
	}

	if !req.ScheduledEndTime.After(req.ScheduledStartTime) {
		utils.BadRequest(c, "scheduledEndTime: end time must be after start time")
		return
	}
	if req.ScheduledStartTime.Before(time.Now()) {
		utils.BadRequest(c, "scheduledStartTime: cannot schedule appointments in the past")
		return
	}

	// Verify both directory entries exist before booking.
	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", doctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return
	}
	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	appointmentType := req.AppointmentType
	if appointmentType == "" {
		appointmentType = models.TypeConsultation
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	appointment := models.Appointment{
		PatientID:          patientID,
		DoctorID:           doctorID,
		AppointmentType:    appointmentType,
		Status:             models.StatusScheduled,
		ScheduledStartTime: req.ScheduledStartTime,
		ScheduledEndTime:   req.ScheduledEndTime,
		Timezone:           timezone,
		Reason:             req.Reason,
		Notes:              req.Notes,
		CreatedByID:        ident.UserID,
	}

	// The overlap check and the insert must commit as one unit so two
	// concurrent bookings for the same doctor cannot both pass the check.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		conflict, err := models.DoctorHasConflict(tx, doctorID, req.ScheduledStartTime, req.ScheduledEndTime)
		if err != nil {
			return err
		}
		if conflict {
			return errDoctorUnavailable
		}

		if err := tx.Create(&appointment).Error; err != nil {
			return err
		}

		// A newly active appointment gets a meeting room with both
		// participants' accounts on the roster.
		if appointment.Status == models.StatusScheduled || appointment.Status == models.StatusConfirmed {
			meet, err := models.CreateMeetForAppointment(tx, doctor.UserID, patient.UserID)
			if err != nil {
				return err
			}
			appointment.MeetID = &meet.ID
			if err := tx.Model(&appointment).Update("meet_id", meet.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == errDoctorUnavailable {
		utils.BadRequest(c, "scheduledStartTime: doctor is not available at this time")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		return
	}

	if err := h.DB.Preload("Patient.User").Preload("Doctor.User").Preload("Meet").
		First(&appointment, "id = ?", appointment.ID).Error; err != nil {
		utils.InternalServerError(c, "Failed to load created appointment: "+err.Error())
		return
	}

	utils.Created(c, "Appointment created successfully", appointment.View())
}

// scopedQuery narrows the appointment table to the rows the caller may see.
func (h *AppointmentHandler) scopedQuery(ident middleware.Identity) *gorm.DB {
	q := h.DB.Model(&models.Appointment{})
	switch ident.Role {
	case models.RoleDoctor:
		return q.Where("doctor_id = ?", ident.ProfileID)
	case models.RolePatient:
		return q.Where("patient_id = ?", ident.ProfileID)
	case models.RoleHospital:
		hospitalDoctors := h.DB.Model(&models.Doctor{}).Select("id").Where("hospital_id = ?", ident.ProfileID)
		return q.Where("doctor_id IN (?)", hospitalDoctors)
	case models.RoleAdmin:
		return q
	default:
		return q.Where("1 = 0")
	}
}

// findScoped loads the :id appointment within the caller's scope.
// Out-of-scope records present as not found so their existence is not leaked.
func (h *AppointmentHandler) findScoped(c *gin.Context, ident middleware.Identity) (*models.Appointment, bool) {
	var appointment models.Appointment
	err := h.scopedQuery(ident).
		Preload("Patient.User").Preload("Doctor.User").Preload("Meet").
		First(&appointment, "appointments.id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}
	return &appointment, true
}

func isTruthy(v string) bool {
	return v == "true" || v == "1"
}

// applyFilters translates list query parameters into where clauses.
func applyFilters(c *gin.Context, q *gorm.DB) (*gorm.DB, error) {
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if appointmentType := c.Query("appointment_type"); appointmentType != "" {
		q = q.Where("appointment_type = ?", appointmentType)
	}
	if doctorID := c.Query("doctor_id"); doctorID != "" {
		q = q.Where("doctor_id = ?", doctorID)
	}
	if patientID := c.Query("patient_id"); patientID != "" {
		q = q.Where("patient_id = ?", patientID)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		ts, err := time.Parse(time.RFC3339, startDate)
		if err != nil {
			return nil, fmt.Errorf("start_date: invalid timestamp %q", startDate)
		}
		q = q.Where("scheduled_start_time >= ?", ts)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		ts, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			return nil, fmt.Errorf("end_date: invalid timestamp %q", endDate)
		}
		q = q.Where("scheduled_start_time <= ?", ts)
	}
	if isTruthy(c.Query("upcoming")) {
		q = q.Where("scheduled_start_time > ? AND status IN ?", time.Now(),
			[]models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed})
	}
	if isTruthy(c.Query("past")) {
		q = q.Where("scheduled_end_time < ?", time.Now())
	}
	return q, nil
}

// list runs the role-scoped, filtered, paginated listing. extra narrows the
// query further for the upcoming/past shortcuts.
func (h *AppointmentHandler) list(c *gin.Context, extra func(*gorm.DB) *gorm.DB) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	q, err := applyFilters(c, h.scopedQuery(ident))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if extra != nil {
		q = extra(q)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.InternalServerError(c, "Failed to count appointments: "+err.Error())
		return
	}

	params := utils.ParsePageParams(c)
	var appointments []models.Appointment
	err = params.Scope(q).
		Order("scheduled_start_time desc").
		Preload("Patient.User").Preload("Doctor.User").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	views := make([]models.AppointmentView, len(appointments))
	for i := range appointments {
		views[i] = appointments[i].View()
	}
	utils.Success(c, "Appointments fetched successfully", utils.NewPage(views, params, total))
}

// GetAppointments handles the role-scoped appointment listing.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	h.list(c, nil)
}

// GetUpcomingAppointments lists live appointments that have not started yet.
func (h *AppointmentHandler) GetUpcomingAppointments(c *gin.Context) {
	h.list(c, func(q *gorm.DB) *gorm.DB {
		return q.Where("scheduled_start_time > ? AND status IN ?", time.Now(),
			[]models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed})
	})
}

// GetPastAppointments lists appointments whose end time has passed.
func (h *AppointmentHandler) GetPastAppointments(c *gin.Context) {
	h.list(c, func(q *gorm.DB) *gorm.DB {
		return q.Where("scheduled_end_time < ?", time.Now())
	})
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment.View())
}

// UpdateAppointmentRequest represents the request body for the generic
// partial update. Status changes are gated by the transition table; other
// fields bypass it.
type UpdateAppointmentRequest struct {
	AppointmentType    *models.AppointmentType   `json:"appointmentType" binding:"omitempty,oneof=consultation follow_up urgent_care mental_health general_checkup specialist"`
	Status             *models.AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled confirmed in_progress completed cancelled no_show rescheduled"`
	ScheduledStartTime *time.Time                `json:"scheduledStartTime"`
	ScheduledEndTime   *time.Time                `json:"scheduledEndTime"`
	Timezone           *string                   `json:"timezone"`
	Reason             *string                   `json:"reason"`
	Notes              *string                   `json:"notes"`
}

// UpdateAppointment handles the generic PATCH on an appointment.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}

	if req.Status != nil {
		// Cancellation records a reason and attribution, so it only goes
		// through the cancel action.
		if *req.Status == models.StatusCancelled {
			utils.BadRequest(c, "status: cancellation requires the cancel action with a cancellation reason")
			return
		}
		if !appointment.Status.CanTransitionTo(*req.Status) {
			utils.BadRequest(c, fmt.Sprintf("status: cannot change status from %s to %s", appointment.Status, *req.Status))
			return
		}
		appointment.Status = *req.Status
	}

	start := appointment.ScheduledStartTime
	end := appointment.ScheduledEndTime
	if req.ScheduledStartTime != nil {
		start = *req.ScheduledStartTime
	}
	if req.ScheduledEndTime != nil {
		end = *req.ScheduledEndTime
	}
	if !end.After(start) {
		utils.BadRequest(c, "scheduledEndTime: end time must be after start time")
		return
	}
	appointment.ScheduledStartTime = start
	appointment.ScheduledEndTime = end

	if req.AppointmentType != nil {
		appointment.AppointmentType = *req.AppointmentType
	}
	if req.Timezone != nil {
		appointment.Timezone = *req.Timezone
	}
	if req.Reason != nil {
		appointment.Reason = *req.Reason
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to update appointment: "+err.Error())
		return
	}

	utils.Success(c, "Appointment updated successfully", appointment.View())
}

// ConfirmAppointment moves a scheduled appointment to confirmed.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}

	if appointment.Status != models.StatusScheduled {
		utils.BadRequest(c, fmt.Sprintf("status: cannot confirm an appointment in %s status, only scheduled appointments can be confirmed", appointment.Status))
		return
	}

	appointment.Status = models.StatusConfirmed
	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to confirm appointment: "+err.Error())
		return
	}
	utils.Success(c, "Appointment confirmed successfully", appointment.View())
}

// StartAppointment moves a confirmed appointment to in_progress. Only the
// assigned doctor may start it.
func (h *AppointmentHandler) StartAppointment(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}

	if !ident.IsDoctor(appointment.DoctorID) {
		utils.Forbidden(c, "Only the assigned doctor can start this appointment")
		return
	}
	if appointment.Status != models.StatusConfirmed {
		utils.BadRequest(c, fmt.Sprintf("status: cannot start an appointment in %s status, only confirmed appointments can be started", appointment.Status))
		return
	}

	appointment.Status = models.StatusInProgress
	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to start appointment: "+err.Error())
		return
	}
	utils.Success(c, "Appointment started successfully", appointment.View())
}

// CompleteAppointmentRequest carries optional visit notes appended on completion.
type CompleteAppointmentRequest struct {
	Notes string `json:"notes"`
}

// CompleteAppointment moves an in-progress appointment to completed. Only the
// assigned doctor may complete it.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	var req CompleteAppointmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request payload: "+err.Error())
			return
		}
	}

	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}

	if !ident.IsDoctor(appointment.DoctorID) {
		utils.Forbidden(c, "Only the assigned doctor can complete this appointment")
		return
	}
	if appointment.Status != models.StatusInProgress {
		utils.BadRequest(c, fmt.Sprintf("status: cannot complete an appointment in %s status, only in-progress appointments can be completed", appointment.Status))
		return
	}

	appointment.AppendNotes(req.Notes)
	appointment.Status = models.StatusCompleted
	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to complete appointment: "+err.Error())
		return
	}
	utils.Success(c, "Appointment completed successfully", appointment.View())
}

// CancelAppointmentRequest carries the mandatory cancellation reason.
type CancelAppointmentRequest struct {
	CancellationReason string `json:"cancellationReason" binding:"required"`
}

// CancelAppointment cancels a live appointment before its end time.
// Attribution comes from the authenticated identity, not the request body.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}

	if !appointment.CanCancel() {
		utils.BadRequest(c, fmt.Sprintf("status: this appointment cannot be cancelled (status %s, past: %t)", appointment.Status, appointment.IsPast()))
		return
	}

	var cancelledBy models.CancelledBy
	switch ident.Role {
	case models.RolePatient:
		cancelledBy = models.CancelledByPatient
	case models.RoleDoctor:
		cancelledBy = models.CancelledByDoctor
	default:
		cancelledBy = models.CancelledBySystem
	}

	appointment.Status = models.StatusCancelled
	appointment.CancellationReason = req.CancellationReason
	appointment.CancelledBy = string(cancelledBy)
	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to cancel appointment: "+err.Error())
		return
	}
	utils.Success(c, "Appointment cancelled successfully", appointment.View())
}

// ReportIssueRequest carries a technical issue description.
type ReportIssueRequest struct {
	Issue string `json:"issue" binding:"required"`
}

// ReportTechnicalIssue appends an issue report to the appointment without
// touching its status.
func (h *AppointmentHandler) ReportTechnicalIssue(c *gin.Context) {
	var req ReportIssueRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ident, ok := middleware.GetIdentity(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	appointment, ok := h.findScoped(c, ident)
	if !ok {
		return
	}

	appointment.AppendTechnicalIssue(req.Issue)
	if err := h.DB.Save(appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to report issue: "+err.Error())
		return
	}
	utils.Success(c, "Technical issue reported successfully", appointment.View())
}
