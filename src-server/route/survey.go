package route

import (
	"encoding/json"
	"net/http"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
	"campushub/src-server/utils"
)

func Surveys(muxer *http.ServeMux, as *utils.AppState, c *coordinator.Coordinator) {
	staffRoles := []model.UserRole{model.USER_ROLE_ORGANIZER, model.USER_ROLE_ADMIN}

	// ensure the event's survey shell exists
	muxer.HandleFunc("POST /events/{id}/survey", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		surveyModel, err := c.Surveys.GetOrCreateShell(r.Context(), eventID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		writeJSON(w, surveyModel)
	}))

	// the survey with its questions, for the respondent form
	muxer.HandleFunc("GET /events/{id}/survey", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		surveyModel := new(model.Survey)
		if err := as.BunDB.NewSelect().
			Model(surveyModel).
			Relation("Questions").
			Where("survey.event_id = ?", eventID).
			Scan(r.Context()); err != nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("No survey for this event"))
			return
		}
		writeJSON(w, surveyModel)
	}))

	// replace the question set wholesale
	muxer.HandleFunc("PUT /surveys/{id}/questions", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		surveyID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		var reqBody []coordinator.QuestionSpec
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		questionModels, err := c.Surveys.ReplaceQuestions(r.Context(), surveyID, reqBody)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		writeJSON(w, questionModels)
	}))

	type RespondReqBody struct {
		Answers map[int64]json.RawMessage `json:"answers"`
	}
	type RespondRespBody struct {
		Response    *model.SurveyResponse `json:"response"`
		Certificate *model.Certificate    `json:"certificate,omitempty"`
	}

	// submit the caller's answers; for hasCertificate events this is
	// the moment the certificate gets issued
	muxer.HandleFunc("POST /surveys/{id}/responses", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		userModel, ok := sessionUser(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		surveyID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		var reqBody RespondReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		responseModel, certificateModel, err := c.Surveys.RecordResponse(r.Context(), surveyID, userModel.ID, reqBody.Answers)
		if err != nil {
			// the response may have been stored even when the render
			// failed; the client retries via an explicit reissue
			writeCoordinatorError(w, err)
			return
		}
		if certificateModel != nil {
			as.MetricChans.CountCertificateIssued()
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, RespondRespBody{
			Response:    responseModel,
			Certificate: certificateModel,
		})
	}))
}
