package route

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
	"campushub/src-server/utils"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf("Can't encode response: %s", err.Error())))
	}
}

func Events(muxer *http.ServeMux, as *utils.AppState, c *coordinator.Coordinator) {
	type CreateEventReqBody struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		Location       string `json:"location"`
		AcademicYear   string `json:"academicYear"`
		Category       string `json:"category"`
		StartDate      string `json:"startDate"`
		EndDate        string `json:"endDate"`
		TotalHours     int    `json:"totalHours"`
		HasCertificate bool   `json:"hasCertificate"`
		Draft          bool   `json:"draft"`
	}

	organizerRoles := []model.UserRole{model.USER_ROLE_ORGANIZER, model.USER_ROLE_ADMIN}
	reviewerRoles := []model.UserRole{model.USER_ROLE_REVIEWER, model.USER_ROLE_ADMIN}
	staffRoles := []model.UserRole{model.USER_ROLE_ORGANIZER, model.USER_ROLE_REVIEWER, model.USER_ROLE_ADMIN}

	// create a new event, pending review
	muxer.HandleFunc("POST /events", RequireRole(as, organizerRoles, func(w http.ResponseWriter, r *http.Request) {
		var reqBody CreateEventReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}

		input := coordinator.CreateEventInput{
			Title:          reqBody.Title,
			Description:    reqBody.Description,
			Location:       reqBody.Location,
			AcademicYear:   reqBody.AcademicYear,
			Category:       model.ParticipationCategory(reqBody.Category),
			TotalHours:     reqBody.TotalHours,
			HasCertificate: reqBody.HasCertificate,
			Draft:          reqBody.Draft,
		}
		for _, date := range []struct {
			raw  string
			dest *time.Time
		}{
			{reqBody.StartDate, &input.StartDate},
			{reqBody.EndDate, &input.EndDate},
		} {
			if date.raw == "" {
				continue
			}
			parsed, err := time.Parse(time.RFC3339, date.raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(fmt.Sprintf("Invalid date %q", date.raw)))
				return
			}
			*date.dest = parsed
		}

		eventModel, err := c.Participation.CreateEvent(r.Context(), input)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, eventModel)
	}))

	// lifecycle transitions; which role may call which transition is
	// pinned here, the status machine only checks predecessors
	transition := func(action func(r *http.Request, eventID int64) (*model.Event, error)) func(http.ResponseWriter, *http.Request) {
		return func(w http.ResponseWriter, r *http.Request) {
			eventID, err := pathID(r, "id")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(err.Error()))
				return
			}
			eventModel, err := action(r, eventID)
			if err != nil {
				writeCoordinatorError(w, err)
				return
			}
			writeJSON(w, eventModel)
		}
	}

	muxer.HandleFunc("POST /events/{id}/submit", RequireRole(as, organizerRoles,
		transition(func(r *http.Request, eventID int64) (*model.Event, error) {
			return c.Status.Submit(r.Context(), eventID)
		})))
	muxer.HandleFunc("POST /events/{id}/approve", RequireRole(as, reviewerRoles,
		transition(func(r *http.Request, eventID int64) (*model.Event, error) {
			return c.Status.Approve(r.Context(), eventID)
		})))
	muxer.HandleFunc("POST /events/{id}/reject", RequireRole(as, reviewerRoles,
		transition(func(r *http.Request, eventID int64) (*model.Event, error) {
			return c.Status.Reject(r.Context(), eventID)
		})))
	muxer.HandleFunc("POST /events/{id}/publish", RequireRole(as, organizerRoles,
		transition(func(r *http.Request, eventID int64) (*model.Event, error) {
			return c.Status.Publish(r.Context(), eventID)
		})))

	// list published events, the participant-facing view
	muxer.HandleFunc("GET /events", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		eventModels := make([]model.Event, 0)
		query := as.BunDB.NewSelect().Model(&eventModels)
		sessionModel, ok := r.Context().Value(SessionCtxKey).(*model.Session)
		if ok && sessionModel.User != nil && sessionModel.User.Role == model.USER_ROLE_PARTICIPANT {
			query = query.Where("status = ?", model.EVENT_STATUS_PUBLISHED)
		}
		startTimer := time.Now()
		if err := query.Order("created_at DESC").Scan(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf("Can't get events: %s", err.Error())))
			return
		}
		as.MetricChans.DatabaseRead <- float64(time.Since(startTimer).Microseconds())
		writeJSON(w, eventModels)
	}))

	// full participation snapshot for the admin dashboard
	muxer.HandleFunc("GET /events/{id}/snapshot", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		startTimer := time.Now()
		snapshot, err := c.Participation.Snapshot(r.Context(), eventID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		as.MetricChans.DatabaseRead <- float64(time.Since(startTimer).Microseconds())
		writeJSON(w, snapshot)
	}))
}
