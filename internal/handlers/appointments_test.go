package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"telehealth-server/internal/config"
	"telehealth-server/internal/models"
	"telehealth-server/internal/routes"
	"telehealth-server/internal/utils"
)

type apiResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type appointmentPayload struct {
	ID                      string `json:"id"`
	PatientID               string `json:"patientId"`
	DoctorID                string `json:"doctorId"`
	Status                  string `json:"status"`
	MeetID                  string `json:"meetId"`
	Notes                   string `json:"notes"`
	CancellationReason      string `json:"cancellationReason"`
	CancelledBy             string `json:"cancelledBy"`
	TechnicalIssuesReported string `json:"technicalIssuesReported"`
	IsUpcoming              bool   `json:"isUpcoming"`
	IsPast                  bool   `json:"isPast"`
	CanCancel               bool   `json:"canCancel"`
}

type pagePayload struct {
	Items    []appointmentPayload `json:"items"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
	Total    int64                `json:"total"`
	HasNext  bool                 `json:"hasNext"`
}

type createAppointmentBody struct {
	PatientID          string    `json:"patientId,omitempty"`
	DoctorID           string    `json:"doctorId,omitempty"`
	AppointmentType    string    `json:"appointmentType,omitempty"`
	ScheduledStartTime time.Time `json:"scheduledStartTime"`
	ScheduledEndTime   time.Time `json:"scheduledEndTime"`
	Timezone           string    `json:"timezone,omitempty"`
	Reason             string    `json:"reason"`
	Notes              string    `json:"notes,omitempty"`
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	cfg := &config.Config{
		Environment:               "development",
		JWTSecret:                 "test-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}

	router := gin.New()
	routes.SetupRoutes(router, db, cfg)

	return &testEnv{t: t, db: db, router: router, cfg: cfg}
}

func (e *testEnv) createUser(role models.Role, email string) models.User {
	user := models.User{Email: email, FirstName: "Test", LastName: "User", Role: role}
	require.NoError(e.t, user.SetPassword("password123"))
	require.NoError(e.t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) createDoctor(email string) (models.User, models.Doctor) {
	user := e.createUser(models.RoleDoctor, email)
	doctor := models.Doctor{UserID: user.ID, Specialty: "general"}
	require.NoError(e.t, e.db.Create(&doctor).Error)
	return user, doctor
}

func (e *testEnv) createPatient(email string) (models.User, models.Patient) {
	user := e.createUser(models.RolePatient, email)
	patient := models.Patient{UserID: user.ID}
	require.NoError(e.t, e.db.Create(&patient).Error)
	return user, patient
}

func (e *testEnv) createHospital(email string) (models.User, models.Hospital) {
	user := e.createUser(models.RoleHospital, email)
	hospital := models.Hospital{UserID: user.ID, Name: "General Hospital"}
	require.NoError(e.t, e.db.Create(&hospital).Error)
	return user, hospital
}

func (e *testEnv) token(user models.User) string {
	access, _, err := utils.GenerateTokens(&user, e.cfg)
	require.NoError(e.t, err)
	return access
}

func (e *testEnv) do(method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func decodeAppointment(t *testing.T, data json.RawMessage) appointmentPayload {
	t.Helper()
	var appt appointmentPayload
	require.NoError(t, json.Unmarshal(data, &appt))
	return appt
}

func TestCreateAppointment(t *testing.T) {
	env := newTestEnv(t)
	doctorUser, doctor := env.createDoctor("doctor@example.com")
	patientUser, patient := env.createPatient("patient@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(time.Hour)

	t.Run("patient books a doctor", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
			DoctorID:           doctor.ID,
			ScheduledStartTime: start,
			ScheduledEndTime:   end,
			Reason:             "checkup",
		})
		require.Equal(t, http.StatusCreated, w.Code, resp.Error)

		appt := decodeAppointment(t, resp.Data)
		assert.Equal(t, string(models.StatusScheduled), appt.Status)
		assert.Equal(t, patient.ID, appt.PatientID)
		assert.Equal(t, doctor.ID, appt.DoctorID)
		assert.True(t, appt.IsUpcoming)
		require.NotEmpty(t, appt.MeetID, "activating an appointment must provision a meeting room")

		// Both accounts are on the room roster.
		var memberIDs []string
		require.NoError(t, env.db.Table("meet_members").
			Where("meet_id = ?", appt.MeetID).Pluck("user_id", &memberIDs).Error)
		assert.ElementsMatch(t, []string{doctorUser.ID, patientUser.ID}, memberIDs)
	})

	t.Run("overlapping booking for the same doctor is rejected", func(t *testing.T) {
		p2User, _ := env.createPatient("patient2@example.com")

		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(p2User), createAppointmentBody{
			DoctorID:           doctor.ID,
			ScheduledStartTime: start,
			ScheduledEndTime:   end,
			Reason:             "checkup",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "not available")
	})

	t.Run("back-to-back interval does not conflict", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
			DoctorID:           doctor.ID,
			ScheduledStartTime: end,
			ScheduledEndTime:   end.Add(time.Hour),
			Reason:             "follow up",
		})
		assert.Equal(t, http.StatusCreated, w.Code, resp.Error)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
			DoctorID:           doctor.ID,
			ScheduledStartTime: start.Add(48 * time.Hour),
			ScheduledEndTime:   start.Add(47 * time.Hour),
			Reason:             "checkup",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "end time must be after start time")
	})

	t.Run("past start time is rejected", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
			DoctorID:           doctor.ID,
			ScheduledStartTime: time.Now().Add(-2 * time.Hour),
			ScheduledEndTime:   time.Now().Add(-1 * time.Hour),
			Reason:             "checkup",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "past")
	})

	t.Run("patient must name a doctor", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
			ScheduledStartTime: start.Add(72 * time.Hour),
			ScheduledEndTime:   start.Add(73 * time.Hour),
			Reason:             "checkup",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "doctor is required")
	})

	t.Run("doctor infers own side and names the patient", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(doctorUser), createAppointmentBody{
			PatientID:          patient.ID,
			ScheduledStartTime: start.Add(96 * time.Hour),
			ScheduledEndTime:   start.Add(97 * time.Hour),
			Reason:             "results review",
		})
		require.Equal(t, http.StatusCreated, w.Code, resp.Error)
		appt := decodeAppointment(t, resp.Data)
		assert.Equal(t, doctor.ID, appt.DoctorID)
	})

	t.Run("unknown doctor is not found", func(t *testing.T) {
		w, _ := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
			DoctorID:           uuid.NewString(),
			ScheduledStartTime: start.Add(120 * time.Hour),
			ScheduledEndTime:   start.Add(121 * time.Hour),
			Reason:             "checkup",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAppointmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	doctorUser, doctor := env.createDoctor("doctor@example.com")
	patientUser, _ := env.createPatient("patient@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
		DoctorID:           doctor.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)
	apptID := decodeAppointment(t, resp.Data).ID
	base := "/api/v1/appointments/" + apptID

	t.Run("start before confirmation fails", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, base+"/start", env.token(doctorUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "scheduled")
	})

	t.Run("confirm", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, base+"/confirm", env.token(patientUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		assert.Equal(t, string(models.StatusConfirmed), decodeAppointment(t, resp.Data).Status)
	})

	t.Run("second confirm fails", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, base+"/confirm", env.token(patientUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "confirmed")
	})

	t.Run("patient cannot start", func(t *testing.T) {
		w, _ := env.do(http.MethodPost, base+"/start", env.token(patientUser), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("assigned doctor starts", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, base+"/start", env.token(doctorUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		assert.Equal(t, string(models.StatusInProgress), decodeAppointment(t, resp.Data).Status)
	})

	t.Run("assigned doctor completes with notes", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, base+"/complete", env.token(doctorUser), gin.H{"notes": "resolved"})
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		appt := decodeAppointment(t, resp.Data)
		assert.Equal(t, string(models.StatusCompleted), appt.Status)
		assert.Equal(t, "resolved", appt.Notes)
	})

	t.Run("completed is terminal for cancel", func(t *testing.T) {
		w, _ := env.do(http.MethodPost, base+"/cancel", env.token(patientUser), gin.H{"cancellationReason": "changed plans"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCancelAppointment(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.createDoctor("doctor@example.com")
	patientUser, patient := env.createPatient("patient@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
		DoctorID:           doctor.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)
	apptID := decodeAppointment(t, resp.Data).ID

	t.Run("reason is required", func(t *testing.T) {
		w, _ := env.do(http.MethodPost, "/api/v1/appointments/"+apptID+"/cancel", env.token(patientUser), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("patient cancels with attribution", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, "/api/v1/appointments/"+apptID+"/cancel", env.token(patientUser),
			gin.H{"cancellationReason": "feeling better"})
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		appt := decodeAppointment(t, resp.Data)
		assert.Equal(t, string(models.StatusCancelled), appt.Status)
		assert.Equal(t, "feeling better", appt.CancellationReason)
		assert.Equal(t, string(models.CancelledByPatient), appt.CancelledBy)
	})

	t.Run("past appointment cannot be cancelled", func(t *testing.T) {
		pastAppt := models.Appointment{
			PatientID:          patient.ID,
			DoctorID:           doctor.ID,
			Status:             models.StatusScheduled,
			ScheduledStartTime: time.Now().Add(-2 * time.Hour),
			ScheduledEndTime:   time.Now().Add(-1 * time.Hour),
			Reason:             "missed",
		}
		require.NoError(t, env.db.Create(&pastAppt).Error)

		w, resp := env.do(http.MethodPost, "/api/v1/appointments/"+pastAppt.ID+"/cancel", env.token(patientUser),
			gin.H{"cancellationReason": "too late"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "cannot be cancelled")
	})
}

func TestGenericUpdateTransitionGate(t *testing.T) {
	env := newTestEnv(t)
	doctorUser, doctor := env.createDoctor("doctor@example.com")
	patientUser, _ := env.createPatient("patient@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
		DoctorID:           doctor.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)
	base := "/api/v1/appointments/" + decodeAppointment(t, resp.Data).ID

	t.Run("illegal status jump is rejected", func(t *testing.T) {
		w, resp := env.do(http.MethodPatch, base, env.token(doctorUser), gin.H{"status": "completed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "cannot change status from scheduled to completed")
	})

	t.Run("cancellation must go through the cancel action", func(t *testing.T) {
		w, resp := env.do(http.MethodPatch, base, env.token(doctorUser), gin.H{"status": "cancelled"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "cancel action")

		// The row is untouched: still scheduled, no stray attribution.
		w, resp = env.do(http.MethodGet, base, env.token(doctorUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		appt := decodeAppointment(t, resp.Data)
		assert.Equal(t, string(models.StatusScheduled), appt.Status)
		assert.Empty(t, appt.CancellationReason)
		assert.Empty(t, appt.CancelledBy)
	})

	t.Run("allowed status change passes", func(t *testing.T) {
		w, resp := env.do(http.MethodPatch, base, env.token(doctorUser), gin.H{"status": "confirmed"})
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		assert.Equal(t, string(models.StatusConfirmed), decodeAppointment(t, resp.Data).Status)
	})

	t.Run("repeating the current status is rejected", func(t *testing.T) {
		w, resp := env.do(http.MethodPatch, base, env.token(doctorUser), gin.H{"status": "confirmed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "cannot change status from confirmed to confirmed")
	})

	t.Run("non-status edits bypass the gate", func(t *testing.T) {
		w, resp := env.do(http.MethodPatch, base, env.token(doctorUser), gin.H{"notes": "bring previous labs"})
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		assert.Equal(t, "bring previous labs", decodeAppointment(t, resp.Data).Notes)
	})

	t.Run("patients may not use the generic update", func(t *testing.T) {
		w, _ := env.do(http.MethodPatch, base, env.token(patientUser), gin.H{"notes": "hi"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestReportTechnicalIssue(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.createDoctor("doctor@example.com")
	patientUser, _ := env.createPatient("patient@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
		DoctorID:           doctor.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)
	base := "/api/v1/appointments/" + decodeAppointment(t, resp.Data).ID

	t.Run("issue text is required", func(t *testing.T) {
		w, _ := env.do(http.MethodPost, base+"/report-issue", env.token(patientUser), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("issues append without touching status", func(t *testing.T) {
		w, resp := env.do(http.MethodPost, base+"/report-issue", env.token(patientUser), gin.H{"issue": "audio dropped"})
		require.Equal(t, http.StatusOK, w.Code, resp.Error)

		w, resp = env.do(http.MethodPost, base+"/report-issue", env.token(patientUser), gin.H{"issue": "video froze"})
		require.Equal(t, http.StatusOK, w.Code, resp.Error)

		appt := decodeAppointment(t, resp.Data)
		assert.Equal(t, "audio dropped\n\nvideo froze", appt.TechnicalIssuesReported)
		assert.Equal(t, string(models.StatusScheduled), appt.Status)
	})
}

func TestAccessScoping(t *testing.T) {
	env := newTestEnv(t)
	doctor1User, doctor1 := env.createDoctor("doctor1@example.com")
	_, doctor2 := env.createDoctor("doctor2@example.com")
	patient1User, _ := env.createPatient("patient1@example.com")
	patient2User, _ := env.createPatient("patient2@example.com")
	hospitalUser, hospital := env.createHospital("hospital@example.com")
	adminUser := env.createUser(models.RoleAdmin, "admin@example.com")

	// doctor1 belongs to the hospital, doctor2 does not.
	require.NoError(t, env.db.Model(&models.Doctor{}).Where("id = ?", doctor1.ID).
		Update("hospital_id", hospital.ID).Error)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patient1User), createAppointmentBody{
		DoctorID:           doctor1.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)
	appt1 := decodeAppointment(t, resp.Data)

	w, resp = env.do(http.MethodPost, "/api/v1/appointments", env.token(patient2User), createAppointmentBody{
		DoctorID:           doctor2.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)

	listLen := func(token string) int {
		w, resp := env.do(http.MethodGet, "/api/v1/appointments", token, nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		var page pagePayload
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		return len(page.Items)
	}

	assert.Equal(t, 1, listLen(env.token(doctor1User)), "doctor sees only own appointments")
	assert.Equal(t, 1, listLen(env.token(patient1User)), "patient sees only own appointments")
	assert.Equal(t, 1, listLen(env.token(hospitalUser)), "hospital sees its doctors' appointments")
	assert.Equal(t, 2, listLen(env.token(adminUser)), "admin sees everything")

	t.Run("out-of-scope record presents as not found", func(t *testing.T) {
		w, _ := env.do(http.MethodGet, "/api/v1/appointments/"+appt1.ID, env.token(patient2User), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = env.do(http.MethodPost, "/api/v1/appointments/"+appt1.ID+"/cancel", env.token(patient2User),
			gin.H{"cancellationReason": "not mine"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("in-scope record resolves by id", func(t *testing.T) {
		w, resp := env.do(http.MethodGet, "/api/v1/appointments/"+appt1.ID, env.token(hospitalUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		assert.Equal(t, appt1.ID, decodeAppointment(t, resp.Data).ID)
	})
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.createDoctor("doctor@example.com")
	patientUser, patient := env.createPatient("patient@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
		DoctorID:           doctor.ID,
		AppointmentType:    "mental_health",
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "session",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)

	// A finished appointment in the past, inserted directly.
	past := models.Appointment{
		PatientID:          patient.ID,
		DoctorID:           doctor.ID,
		Status:             models.StatusCompleted,
		AppointmentType:    models.TypeConsultation,
		ScheduledStartTime: time.Now().Add(-48 * time.Hour),
		ScheduledEndTime:   time.Now().Add(-47 * time.Hour),
		Reason:             "old visit",
	}
	require.NoError(t, env.db.Create(&past).Error)

	list := func(query string) pagePayload {
		w, resp := env.do(http.MethodGet, "/api/v1/appointments"+query, env.token(patientUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		var page pagePayload
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		return page
	}

	assert.Len(t, list("").Items, 2)
	assert.Len(t, list("?status=completed").Items, 1)
	assert.Len(t, list("?appointment_type=mental_health").Items, 1)
	assert.Len(t, list("?upcoming=true").Items, 1)
	assert.Len(t, list("?past=true").Items, 1)
	assert.Len(t, list("?doctor_id="+doctor.ID).Items, 2)
	assert.Len(t, list("?start_date="+time.Now().Format(time.RFC3339)).Items, 1)

	t.Run("shortcut endpoints", func(t *testing.T) {
		w, resp := env.do(http.MethodGet, "/api/v1/appointments/upcoming", env.token(patientUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		var page pagePayload
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		assert.Len(t, page.Items, 1)

		w, resp = env.do(http.MethodGet, "/api/v1/appointments/past", env.token(patientUser), nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Error)
		require.NoError(t, json.Unmarshal(resp.Data, &page))
		assert.Len(t, page.Items, 1)
		assert.Equal(t, string(models.StatusCompleted), page.Items[0].Status)
	})

	t.Run("pagination", func(t *testing.T) {
		page := list("?page=1&page_size=1")
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(2), page.Total)
		assert.True(t, page.HasNext)
	})

	t.Run("invalid date filter is rejected", func(t *testing.T) {
		w, _ := env.do(http.MethodGet, "/api/v1/appointments?start_date=yesterday", env.token(patientUser), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeetAccess(t *testing.T) {
	env := newTestEnv(t)
	_, doctor := env.createDoctor("doctor@example.com")
	patientUser, _ := env.createPatient("patient@example.com")
	outsiderUser, _ := env.createPatient("outsider@example.com")

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	w, resp := env.do(http.MethodPost, "/api/v1/appointments", env.token(patientUser), createAppointmentBody{
		DoctorID:           doctor.ID,
		ScheduledStartTime: start,
		ScheduledEndTime:   start.Add(time.Hour),
		Reason:             "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Error)
	meetID := decodeAppointment(t, resp.Data).MeetID
	require.NotEmpty(t, meetID)

	t.Run("member can fetch the room", func(t *testing.T) {
		w, resp := env.do(http.MethodGet, "/api/v1/meets/"+meetID, env.token(patientUser), nil)
		assert.Equal(t, http.StatusOK, w.Code, resp.Error)
	})

	t.Run("non-member gets not found", func(t *testing.T) {
		w, _ := env.do(http.MethodGet, "/api/v1/meets/"+meetID, env.token(outsiderUser), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
