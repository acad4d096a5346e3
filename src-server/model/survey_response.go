package model

import (
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
)

// One response per (survey, user) pair; a resubmission hits the
// unique index and surfaces as a conflict.
type SurveyResponse struct {
	bun.BaseModel `bun:"table:survey_responses"`

	ID       int64 `bun:"id,pk,autoincrement"`
	SurveyID int64 `bun:"survey_id,notnull,unique:survey_responses_survey_user_key"` // required
	UserID   int64 `bun:"user_id,notnull,unique:survey_responses_survey_user_key"`   // required

	// JSON object keyed by question id
	Answers string `bun:"answers,notnull"` // required

	SubmittedAtUnixUTC int64 `bun:"submitted_at,notnull"`

	Survey *Survey `bun:"rel:belongs-to,join:survey_id=id"`
	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
}

func (r *SurveyResponse) SetAnswerMap(answers map[int64]json.RawMessage) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("(*SurveyResponse).SetAnswerMap: %w", err)
	}
	r.Answers = string(raw)
	return nil
}

func (r *SurveyResponse) AnswerMap() (map[int64]json.RawMessage, error) {
	if r.Answers == "" {
		return nil, nil
	}
	answers := make(map[int64]json.RawMessage)
	if err := json.Unmarshal([]byte(r.Answers), &answers); err != nil {
		return nil, fmt.Errorf("(*SurveyResponse).AnswerMap: %w", err)
	}
	return answers, nil
}
