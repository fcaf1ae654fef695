package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppointmentType represents the kind of visit being booked
type AppointmentType string

const (
	TypeConsultation   AppointmentType = "consultation"
	TypeFollowUp       AppointmentType = "follow_up"
	TypeUrgentCare     AppointmentType = "urgent_care"
	TypeMentalHealth   AppointmentType = "mental_health"
	TypeGeneralCheckup AppointmentType = "general_checkup"
	TypeSpecialist     AppointmentType = "specialist"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusInProgress  AppointmentStatus = "in_progress"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusNoShow      AppointmentStatus = "no_show"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// CancelledBy records which party cancelled an appointment
type CancelledBy string

const (
	CancelledByPatient CancelledBy = "patient"
	CancelledByDoctor  CancelledBy = "doctor"
	CancelledBySystem  CancelledBy = "system"
)

// allowedTransitions is the status state machine. Statuses absent from the
// map are terminal.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusRescheduled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// CanTransitionTo reports whether the state machine allows moving from s to target.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses considered live for conflict checking.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress}
}

// Appointment represents a scheduled medical appointment between a patient
// and a doctor.
type Appointment struct {
	BaseModel
	PatientID          string            `gorm:"size:36;index:idx_appt_patient_start" json:"patientId"`
	DoctorID           string            `gorm:"size:36;index:idx_appt_doctor_start" json:"doctorId"`
	AppointmentType    AppointmentType   `gorm:"size:50;default:'consultation'" json:"appointmentType"`
	Status             AppointmentStatus `gorm:"size:20;default:'scheduled';index" json:"status"`
	ScheduledStartTime time.Time         `gorm:"index:idx_appt_doctor_start;index:idx_appt_patient_start" json:"scheduledStartTime"`
	ScheduledEndTime   time.Time         `json:"scheduledEndTime"`
	// Display timezone only; stored instants are not affected by it.
	Timezone string `gorm:"size:50;default:'UTC'" json:"timezone"`

	// Set once when the appointment first reaches an active scheduled state,
	// never cleared or reassigned afterwards.
	MeetID *string `gorm:"size:12;uniqueIndex" json:"meetId,omitempty"`

	Reason                  string `gorm:"type:text" json:"reason"`
	Notes                   string `gorm:"type:text" json:"notes,omitempty"`
	TechnicalIssuesReported string `gorm:"type:text" json:"technicalIssuesReported,omitempty"`
	CancellationReason      string `gorm:"type:text" json:"cancellationReason,omitempty"`
	CancelledBy             string `gorm:"size:20" json:"cancelledBy,omitempty"`

	CreatedByID string `gorm:"size:36" json:"createdById"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor"`
	Meet    *Meet   `gorm:"foreignKey:MeetID" json:"meet,omitempty"`
}

// Duration returns the scheduled length of the appointment, zero if either
// endpoint is unset.
func (a *Appointment) Duration() time.Duration {
	if a.ScheduledStartTime.IsZero() || a.ScheduledEndTime.IsZero() {
		return 0
	}
	return a.ScheduledEndTime.Sub(a.ScheduledStartTime)
}

// IsUpcoming reports whether the appointment is still ahead and live.
func (a *Appointment) IsUpcoming() bool {
	return a.ScheduledStartTime.After(time.Now()) &&
		(a.Status == StatusScheduled || a.Status == StatusConfirmed)
}

// IsPast reports whether the appointment's end time has passed.
func (a *Appointment) IsPast() bool {
	return a.ScheduledEndTime.Before(time.Now())
}

// CanCancel reports whether the appointment may still be cancelled.
func (a *Appointment) CanCancel() bool {
	return (a.Status == StatusScheduled || a.Status == StatusConfirmed) && !a.IsPast()
}

// CanReschedule mirrors CanCancel: rescheduling is modelled as moving to the
// terminal rescheduled status and rebooking.
func (a *Appointment) CanReschedule() bool {
	return a.CanCancel()
}

// AppendNotes adds text to the visit notes, blank-line separated from any
// existing content.
func (a *Appointment) AppendNotes(notes string) {
	if notes == "" {
		return
	}
	if a.Notes != "" {
		a.Notes = a.Notes + "\n\n" + notes
	} else {
		a.Notes = notes
	}
}

// AppendTechnicalIssue records a reported technical issue, blank-line
// separated from earlier reports.
func (a *Appointment) AppendTechnicalIssue(issue string) {
	if a.TechnicalIssuesReported != "" {
		a.TechnicalIssuesReported = a.TechnicalIssuesReported + "\n\n" + issue
	} else {
		a.TechnicalIssuesReported = issue
	}
}

// AppointmentView is the API representation of an appointment, carrying the
// derived fields alongside the stored ones.
type AppointmentView struct {
	Appointment
	Duration      string `json:"duration,omitempty"`
	IsUpcoming    bool   `json:"isUpcoming"`
	IsPast        bool   `json:"isPast"`
	CanCancel     bool   `json:"canCancel"`
	CanReschedule bool   `json:"canReschedule"`
}

// View builds the API representation with derived fields computed at read time.
func (a *Appointment) View() AppointmentView {
	v := AppointmentView{
		Appointment:   *a,
		IsUpcoming:    a.IsUpcoming(),
		IsPast:        a.IsPast(),
		CanCancel:     a.CanCancel(),
		CanReschedule: a.CanReschedule(),
	}
	if d := a.Duration(); d > 0 {
		v.Duration = d.String()
	}
	return v
}

// DoctorHasConflict reports whether the doctor already has a live appointment
// overlapping [start, end). Overlap is half-open: back-to-back intervals do
// not conflict. When called inside a transaction on MySQL the matching rows
// are locked FOR UPDATE so a concurrent insert for the same doctor cannot
// slip past the check; SQLite serializes writers on its own.
func DoctorHasConflict(tx *gorm.DB, doctorID string, start, end time.Time) (bool, error) {
	q := tx.Model(&Appointment{}).
		Where("doctor_id = ? AND status IN ?", doctorID, ActiveStatuses()).
		Where("scheduled_start_time < ? AND scheduled_end_time > ?", end, start)
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var conflicting []Appointment
	if err := q.Find(&conflicting).Error; err != nil {
		return false, err
	}
	return len(conflicting) > 0, nil
}
