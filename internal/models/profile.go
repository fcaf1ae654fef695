package models

// Hospital represents a hospital account's profile.
type Hospital struct {
	BaseModel
	UserID  string `gorm:"size:36;uniqueIndex" json:"userId"`
	Name    string `gorm:"size:255" json:"name"`
	Address string `gorm:"size:255" json:"address,omitempty"`

	User    User     `gorm:"foreignKey:UserID" json:"-"`
	Doctors []Doctor `gorm:"foreignKey:HospitalID" json:"-"`
}

// Doctor represents a doctor account's profile. A doctor may optionally
// belong to a hospital; hospital-role callers are scoped through this link.
type Doctor struct {
	BaseModel
	UserID            string  `gorm:"size:36;uniqueIndex" json:"userId"`
	HospitalID        *string `gorm:"size:36;index" json:"hospitalId,omitempty"`
	Specialty         string  `gorm:"size:100" json:"specialty,omitempty"`
	Degree            string  `gorm:"size:100" json:"degree,omitempty"`
	YearsOfExperience int     `json:"yearsOfExperience,omitempty"`
	LicenseNumber     string  `gorm:"size:50" json:"licenseNumber,omitempty"`

	User     User      `gorm:"foreignKey:UserID" json:"user"`
	Hospital *Hospital `gorm:"foreignKey:HospitalID" json:"-"`
}

// Patient represents a patient account's profile.
type Patient struct {
	BaseModel
	UserID string `gorm:"size:36;uniqueIndex" json:"userId"`
	Gender string `gorm:"size:10" json:"gender,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}
