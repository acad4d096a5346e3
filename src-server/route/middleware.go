package route

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
	"campushub/src-server/utils"
)

type SessionCtxKeyType string

const (
	SessionCtxKey           SessionCtxKeyType = "session"
	SessionSecretCookieName string            = "session-secret"
)

const sessionLifetime = time.Hour * 24 * 7

func AuthMiddleware(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		// extract session secret from cookies
		sessionSecret := func() string {
			sessionCookie, err := r.Cookie(SessionSecretCookieName)
			if err == nil {
				return strings.TrimSpace(sessionCookie.Value)
			}
			return ""
		}()
		if sessionSecret == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Session secret cookie not found"))
			return
		}

		startTimer := time.Now()
		sessionModel := new(model.Session)
		if err := as.BunDB.
			NewSelect().
			Model(sessionModel).
			Relation("User").
			Where("secret = ?", sessionSecret).
			Where("purpose = ?", model.SESSION_MODEL_PURPOSE_SESSION).
			Scan(r.Context()); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Session secret not found"))
			return
		}
		as.MetricChans.DatabaseReadForAuthMiddleware <- float64(time.Since(startTimer).Microseconds())

		if time.Unix(sessionModel.CreatedAtUnixUTC, 0).UTC().
			Add(sessionLifetime).Before(time.Now()) {
			if _, err := as.BunDB.
				NewDelete().
				Model((*model.Session)(nil)).
				Where("secret = ?", sessionSecret).
				Where("purpose = ?", model.SESSION_MODEL_PURPOSE_SESSION).
				Exec(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't delete session model in DB"))
				slog.Error("can't delete session model in DB", "error", err)
				return
			}

			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Session expired"))
			return
		}

		ctx := context.WithValue(r.Context(), SessionCtxKey, sessionModel)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole wraps AuthMiddleware and refuses callers whose role is
// not in the allowed set. Which role may trigger which transition is
// decided here, never inside the coordinator.
func RequireRole(as *utils.AppState, roles []model.UserRole, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		sessionModel, ok := r.Context().Value(SessionCtxKey).(*model.Session)
		if !ok || sessionModel.User == nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		for _, role := range roles {
			if sessionModel.User.Role == role {
				next(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Insufficient role"))
	})
}

// writeCoordinatorError maps a coordinator error to a status code and
// a JSON body; anything else is a plain 500.
func writeCoordinatorError(w http.ResponseWriter, err error) {
	var coordErr *coordinator.Error
	if !errors.As(err, &coordErr) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		slog.Error("unexpected handler error", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch coordErr.Code {
	case coordinator.CODE_NOT_FOUND:
		w.WriteHeader(http.StatusNotFound)
	case coordinator.CODE_CONFLICT, coordinator.CODE_INVALID_STATE:
		w.WriteHeader(http.StatusConflict)
	case coordinator.CODE_VALIDATION:
		w.WriteHeader(http.StatusBadRequest)
	case coordinator.CODE_DEPENDENCY_FAILURE:
		w.WriteHeader(http.StatusBadGateway)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	if encodeErr := json.NewEncoder(w).Encode(coordErr); encodeErr != nil {
		slog.Error("can't encode error response", "error", encodeErr)
	}
}
