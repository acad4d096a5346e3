package route

import (
	"encoding/json"
	"net/http"
	"time"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
	"campushub/src-server/utils"
)

// sessionUser pulls the authenticated user out of the request context.
// Only valid behind AuthMiddleware.
func sessionUser(r *http.Request) (*model.User, bool) {
	sessionModel, ok := r.Context().Value(SessionCtxKey).(*model.Session)
	if !ok || sessionModel.User == nil {
		return nil, false
	}
	return sessionModel.User, true
}

func Participation(muxer *http.ServeMux, as *utils.AppState, c *coordinator.Coordinator) {
	staffRoles := []model.UserRole{model.USER_ROLE_ORGANIZER, model.USER_ROLE_ADMIN}

	// sign up for a published event
	muxer.HandleFunc("POST /events/{id}/register", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		userModel, ok := sessionUser(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		registrationModel, err := c.Ledger.Register(r.Context(), eventID, userModel.ID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, registrationModel)
	}))

	// withdraw; a no-op when never registered
	muxer.HandleFunc("DELETE /events/{id}/register", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		userModel, ok := sessionUser(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		if err := c.Ledger.Unregister(r.Context(), eventID, userModel.ID); err != nil {
			writeCoordinatorError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	type CheckinReqBody struct {
		QRPayload string `json:"qrPayload"`
	}

	// self check-in by scanning the event QR code
	muxer.HandleFunc("POST /attendance/checkin", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		userModel, ok := sessionUser(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		var reqBody CheckinReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil || reqBody.QRPayload == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		startTimer := time.Now()
		attendanceModel, err := c.Attendance.CheckInByQR(r.Context(), userModel.ID, reqBody.QRPayload, time.Now())
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())
		as.MetricChans.CountAttendanceCheckin()
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, attendanceModel)
	}))

	// the caller's own attendance history
	muxer.HandleFunc("GET /attendance/me", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		userModel, ok := sessionUser(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		attendanceModels, err := c.Attendance.ListForUser(r.Context(), userModel.ID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		writeJSON(w, attendanceModels)
	}))

	muxer.HandleFunc("GET /attendance", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		attendanceModels, err := c.Attendance.ListAll(r.Context())
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		writeJSON(w, attendanceModels)
	}))

	type SetAttendedReqBody struct {
		Attended bool `json:"attended"`
	}

	// admin toggle; responds with the event's whole participation
	// snapshot so the dashboard replaces its state in one round trip
	muxer.HandleFunc("POST /registrations/{id}/attended", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		registrationID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		var reqBody SetAttendedReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		startTimer := time.Now()
		snapshot, err := c.Participation.SetAttended(r.Context(), registrationID, reqBody.Attended)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())
		writeJSON(w, snapshot)
	}))
}
