package model

import (
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
)

// At most one survey per event; the unique event_id column is what
// makes the get-or-create shell operation race-safe.
type Survey struct {
	bun.BaseModel `bun:"table:surveys"`

	ID               int64  `bun:"id,pk,autoincrement"`
	EventID          int64  `bun:"event_id,notnull,unique"` // required
	Title            string `bun:"title"`
	CreatedAtUnixUTC int64  `bun:"created_at,notnull"`

	Event     *Event            `bun:"rel:belongs-to,join:event_id=id"`
	Questions []*SurveyQuestion `bun:"rel:has-many,join:id=survey_id"`
}

type SurveyQuestionType string

const (
	SURVEY_QUESTION_TYPE_SHORT_TEXT    = SurveyQuestionType("short-text")
	SURVEY_QUESTION_TYPE_SINGLE_CHOICE = SurveyQuestionType("single-choice")
	SURVEY_QUESTION_TYPE_MULTI_CHOICE  = SurveyQuestionType("multi-choice")
	SURVEY_QUESTION_TYPE_RATING        = SurveyQuestionType("rating")
)

func (t SurveyQuestionType) Valid() bool {
	switch t {
	case SURVEY_QUESTION_TYPE_SHORT_TEXT,
		SURVEY_QUESTION_TYPE_SINGLE_CHOICE,
		SURVEY_QUESTION_TYPE_MULTI_CHOICE,
		SURVEY_QUESTION_TYPE_RATING:
		return true
	}
	return false
}

func (t SurveyQuestionType) IsChoice() bool {
	return t == SURVEY_QUESTION_TYPE_SINGLE_CHOICE || t == SURVEY_QUESTION_TYPE_MULTI_CHOICE
}

type SurveyQuestion struct {
	bun.BaseModel `bun:"table:survey_questions"`

	ID       int64              `bun:"id,pk,autoincrement"`
	SurveyID int64              `bun:"survey_id,notnull"`         // required
	Position int                `bun:"position,notnull"`          // required
	Prompt   string             `bun:"prompt,notnull"`            // required
	Type     SurveyQuestionType `bun:"type,notnull,type:varchar"` // required

	// JSON-encoded string list; only meaningful for choice types
	Options string `bun:"options"`

	Survey *Survey `bun:"rel:belongs-to,join:survey_id=id"`
}

func (q *SurveyQuestion) SetOptionList(options []string) error {
	raw, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("(*SurveyQuestion).SetOptionList: %w", err)
	}
	q.Options = string(raw)
	return nil
}

func (q *SurveyQuestion) OptionList() ([]string, error) {
	if q.Options == "" {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return nil, fmt.Errorf("(*SurveyQuestion).OptionList: %w", err)
	}
	return options, nil
}
