package route

import (
	"net/http"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
	"campushub/src-server/utils"
)

func Certificates(muxer *http.ServeMux, as *utils.AppState, c *coordinator.Coordinator) {
	staffRoles := []model.UserRole{model.USER_ROLE_ORGANIZER, model.USER_ROLE_ADMIN}

	// the caller's own certificate for an event
	muxer.HandleFunc("GET /events/{id}/certificates/me", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
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
		certificateModel, err := c.Certificates.Get(r.Context(), eventID, userModel.ID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		writeJSON(w, certificateModel)
	}))

	muxer.HandleFunc("GET /events/{id}/certificates/{userId}", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		userID, err := pathID(r, "userId")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		certificateModel, err := c.Certificates.Get(r.Context(), eventID, userID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		writeJSON(w, certificateModel)
	}))

	// make sure the certificate and its artifact exist; a revoked one
	// gets a fresh render, an intact one only a timestamp refresh
	muxer.HandleFunc("POST /events/{id}/certificates/{userId}/reissue", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		userID, err := pathID(r, "userId")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		certificateModel, err := c.Certificates.Reissue(r.Context(), eventID, userID)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		as.MetricChans.CountCertificateIssued()
		writeJSON(w, certificateModel)
	}))

	muxer.HandleFunc("DELETE /events/{id}/certificates/{userId}", RequireRole(as, staffRoles, func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathID(r, "id")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		userID, err := pathID(r, "userId")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}
		if err := c.Certificates.Revoke(r.Context(), eventID, userID); err != nil {
			writeCoordinatorError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}
