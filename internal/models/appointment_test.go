package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{"scheduled to confirmed", StatusScheduled, StatusConfirmed, true},
		{"scheduled to cancelled", StatusScheduled, StatusCancelled, true},
		{"scheduled to rescheduled", StatusScheduled, StatusRescheduled, true},
		{"scheduled to in_progress skips confirmation", StatusScheduled, StatusInProgress, false},
		{"scheduled to completed", StatusScheduled, StatusCompleted, false},
		{"confirmed to in_progress", StatusConfirmed, StatusInProgress, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to no_show", StatusConfirmed, StatusNoShow, true},
		{"confirmed to confirmed is not idempotent", StatusConfirmed, StatusConfirmed, false},
		{"in_progress to completed", StatusInProgress, StatusCompleted, true},
		{"in_progress to cancelled", StatusInProgress, StatusCancelled, false},
		{"completed is terminal", StatusCompleted, StatusScheduled, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"no_show is terminal", StatusNoShow, StatusConfirmed, false},
		{"rescheduled is terminal", StatusRescheduled, StatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDerivedPredicates(t *testing.T) {
	now := time.Now()

	upcoming := Appointment{
		Status:             StatusScheduled,
		ScheduledStartTime: now.Add(24 * time.Hour),
		ScheduledEndTime:   now.Add(25 * time.Hour),
	}
	assert.True(t, upcoming.IsUpcoming())
	assert.False(t, upcoming.IsPast())
	assert.True(t, upcoming.CanCancel())
	assert.True(t, upcoming.CanReschedule())
	assert.Equal(t, time.Hour, upcoming.Duration())

	past := Appointment{
		Status:             StatusScheduled,
		ScheduledStartTime: now.Add(-2 * time.Hour),
		ScheduledEndTime:   now.Add(-1 * time.Hour),
	}
	assert.False(t, past.IsUpcoming())
	assert.True(t, past.IsPast())
	assert.False(t, past.CanCancel(), "past appointments cannot be cancelled")

	completed := Appointment{
		Status:             StatusCompleted,
		ScheduledStartTime: now.Add(24 * time.Hour),
		ScheduledEndTime:   now.Add(25 * time.Hour),
	}
	assert.False(t, completed.IsUpcoming())
	assert.False(t, completed.CanCancel())
}

func TestAppendHelpers(t *testing.T) {
	var appt Appointment

	appt.AppendNotes("first note")
	assert.Equal(t, "first note", appt.Notes)

	appt.AppendNotes("second note")
	assert.Equal(t, "first note\n\nsecond note", appt.Notes)

	appt.AppendNotes("")
	assert.Equal(t, "first note\n\nsecond note", appt.Notes)

	appt.AppendTechnicalIssue("audio dropped")
	appt.AppendTechnicalIssue("video froze")
	assert.Equal(t, "audio dropped\n\nvideo froze", appt.TechnicalIssuesReported)
}

func TestViewCarriesDerivedFields(t *testing.T) {
	now := time.Now()
	appt := Appointment{
		Status:             StatusConfirmed,
		ScheduledStartTime: now.Add(time.Hour),
		ScheduledEndTime:   now.Add(2 * time.Hour),
	}

	view := appt.View()
	assert.True(t, view.IsUpcoming)
	assert.True(t, view.CanCancel)
	assert.Equal(t, "1h0m0s", view.Duration)
}

func TestNewMeetID(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := NewMeetID()
		require.Len(t, id, 12)
		assert.Equal(t, byte('-'), id[3])
		assert.Equal(t, byte('-'), id[8])
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestDoctorHasConflict(t *testing.T) {
	db := openTestDB(t)

	doctorID := uuid.NewString()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	existing := Appointment{
		PatientID:          uuid.NewString(),
		DoctorID:           doctorID,
		Status:             StatusScheduled,
		ScheduledStartTime: base,
		ScheduledEndTime:   base.Add(time.Hour),
		Reason:             "checkup",
	}
	require.NoError(t, db.Create(&existing).Error)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"identical interval", base, base.Add(time.Hour), true},
		{"overlapping tail", base.Add(30 * time.Minute), base.Add(90 * time.Minute), true},
		{"contained interval", base.Add(10 * time.Minute), base.Add(20 * time.Minute), true},
		{"back-to-back after is free", base.Add(time.Hour), base.Add(2 * time.Hour), false},
		{"back-to-back before is free", base.Add(-time.Hour), base, false},
		{"disjoint", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflict, err := DoctorHasConflict(db, doctorID, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.conflict, conflict)
		})
	}

	t.Run("other doctor is free", func(t *testing.T) {
		conflict, err := DoctorHasConflict(db, uuid.NewString(), base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, conflict)
	})

	t.Run("cancelled appointments do not block", func(t *testing.T) {
		require.NoError(t, db.Model(&Appointment{}).Where("id = ?", existing.ID).
			Update("status", StatusCancelled).Error)
		conflict, err := DoctorHasConflict(db, doctorID, base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, conflict)
	})
}
