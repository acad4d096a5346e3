package route

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campushub/src-server/model"
	"campushub/src-server/utils"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const tempKeyLifetime = time.Minute * 5

func Auth(muxer *http.ServeMux, as *utils.AppState) {
	// logout
	muxer.HandleFunc("DELETE /auth", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", SessionSecretCookieName+"=; Path=/; HttpOnly; SameSite=Lax")
		w.WriteHeader(http.StatusOK)
	})

	type AuthReqBody struct {
		TempKey string `json:"tempKey"`
	}

	// login: exchange a one-time key provisioned by the identity
	// layer for a session secret
	muxer.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		var reqBody AuthReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}

		newSessionSecret := uuid.NewString()
		allowThrough := false
		err := as.BunDB.RunInTx(r.Context(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			tempKeySessionModel := new(model.Session)
			if err := tx.
				NewSelect().
				Model(tempKeySessionModel).
				Where("secret = ?", reqBody.TempKey).
				Where("purpose = ?", model.SESSION_MODEL_PURPOSE_TEMP).
				Scan(ctx); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Invalid temp key"))
				return nil
			}

			// one-time use, delete right away
			if _, err := tx.
				NewDelete().
				Model((*model.Session)(nil)).
				Where("secret = ?", reqBody.TempKey).
				Where("purpose = ?", model.SESSION_MODEL_PURPOSE_TEMP).
				Exec(ctx); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(fmt.Sprintf("Can't delete temp key in DB: %s", err.Error())))
				return err
			}

			if time.Unix(tempKeySessionModel.CreatedAtUnixUTC, 0).UTC().
				Add(tempKeyLifetime).Before(time.Now()) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Temp key expired"))
				return nil
			}

			if _, err := tx.
				NewInsert().
				Model(&model.Session{
					Secret:           newSessionSecret,
					Purpose:          model.SESSION_MODEL_PURPOSE_SESSION,
					UserID:           tempKeySessionModel.UserID,
					CreatedAtUnixUTC: time.Now().UTC().Unix(),
				}).
				Exec(ctx); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(fmt.Sprintf("Can't insert session model to DB: %s", err.Error())))
				return err
			}
			allowThrough = true
			return nil
		})
		switch {
		case err != nil:
			return
		case !allowThrough:
			return
		}

		switch as.Config.GetDev() {
		case true:
			w.Write([]byte(fmt.Sprintf(`{"sessionSecret": "%s"}`, newSessionSecret)))
		case false:
			w.Header().Set("Set-Cookie", SessionSecretCookieName+"="+newSessionSecret+"; Path=/; HttpOnly; SameSite=Lax")
		}
		w.WriteHeader(http.StatusOK)
	})

	// who am I
	muxer.HandleFunc("GET /auth/me", AuthMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		sessionModel, ok := r.Context().Value(SessionCtxKey).(*model.Session)
		if !ok || sessionModel.User == nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get session from middleware"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"userId":   sessionModel.User.ID,
			"username": sessionModel.User.Username,
			"fullName": sessionModel.User.FullName,
			"role":     sessionModel.User.Role,
		}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf("Can't encode response: %s", err.Error())))
		}
	}))
}
