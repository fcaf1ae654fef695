package models

import (
	"time"
)

// DoctorReview is a rating left by a user for a doctor. One review per
// (user, doctor) pair.
type DoctorReview struct {
	BaseModel
	UserID   string `gorm:"size:36;uniqueIndex:idx_review_user_doctor" json:"userId"`
	DoctorID string `gorm:"size:36;uniqueIndex:idx_review_user_doctor;index" json:"doctorId"`
	Rating   int    `gorm:"not null" json:"rating"`
	Text     string `gorm:"type:text" json:"text,omitempty"`

	// Relations
	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Doctor Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// HospitalReview is a rating left by a user for a hospital. One review per
// (user, hospital) pair.
type HospitalReview struct {
	BaseModel
	UserID     string `gorm:"size:36;uniqueIndex:idx_review_user_hospital" json:"userId"`
	HospitalID string `gorm:"size:36;uniqueIndex:idx_review_user_hospital;index" json:"hospitalId"`
	Rating     int    `gorm:"not null" json:"rating"`
	Text       string `gorm:"type:text" json:"text,omitempty"`

	// Relations
	User     User     `gorm:"foreignKey:UserID" json:"-"`
	Hospital Hospital `gorm:"foreignKey:HospitalID" json:"-"`
}

// IsUpdated reports whether the review was edited after creation.
func (r *DoctorReview) IsUpdated() bool {
	return r.UpdatedAt.After(r.CreatedAt.Add(time.Minute))
}

// IsUpdated reports whether the review was edited after creation.
func (r *HospitalReview) IsUpdated() bool {
	return r.UpdatedAt.After(r.CreatedAt.Add(time.Minute))
}

// DoctorReviewView is the API representation of a doctor review.
type DoctorReviewView struct {
	DoctorReview
	IsUpdated bool `json:"isUpdated"`
}

// View builds the API representation with the edited flag computed at read time.
func (r *DoctorReview) View() DoctorReviewView {
	return DoctorReviewView{DoctorReview: *r, IsUpdated: r.IsUpdated()}
}

// HospitalReviewView is the API representation of a hospital review.
type HospitalReviewView struct {
	HospitalReview
	IsUpdated bool `json:"isUpdated"`
}

// View builds the API representation with the edited flag computed at read time.
func (r *HospitalReview) View() HospitalReviewView {
	return HospitalReviewView{HospitalReview: *r, IsUpdated: r.IsUpdated()}
}
