package models

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meet represents a video meeting room. Rooms are provisioned when an
// appointment becomes active and hold both participants as members.
type Meet struct {
	ID string `gorm:"primaryKey;size:12" json:"id"`
	// Host is empty for appointment rooms.
	HostID      *string   `gorm:"size:36" json:"hostId,omitempty"`
	ChannelName string    `gorm:"size:36;uniqueIndex" json:"channelName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Members []User `gorm:"many2many:meet_members" json:"-"`
}

// BeforeCreate assigns the human-readable room id and the channel UUID.
func (m *Meet) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewMeetID()
	}
	if m.ChannelName == "" {
		m.ChannelName = uuid.New().String()
	}
	return nil
}

const meetIDChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewMeetID generates a room id of the form xxx-xxxx-xxx.
func NewMeetID() string {
	segment := func(length int) string {
		var b strings.Builder
		for i := 0; i < length; i++ {
			b.WriteByte(meetIDChars[rand.Intn(len(meetIDChars))])
		}
		return b.String()
	}
	return segment(3) + "-" + segment(4) + "-" + segment(3)
}

// CreateMeetForAppointment provisions a room and adds both participants'
// accounts as members. Returns the new room.
func CreateMeetForAppointment(tx *gorm.DB, doctorUserID, patientUserID string) (*Meet, error) {
	meet := Meet{}
	if err := tx.Create(&meet).Error; err != nil {
		return nil, err
	}
	members := []User{{BaseModel: BaseModel{ID: doctorUserID}}, {BaseModel: BaseModel{ID: patientUserID}}}
	if err := tx.Model(&meet).Association("Members").Append(members); err != nil {
		return nil, err
	}
	return &meet, nil
}

// IsMember reports whether the given user account belongs to the room.
func (m *Meet) IsMember(tx *gorm.DB, userID string) (bool, error) {
	var count int64
	err := tx.Table("meet_members").
		Where("meet_id = ? AND user_id = ?", m.ID, userID).
		Count(&count).Error
	return count > 0, err
}
