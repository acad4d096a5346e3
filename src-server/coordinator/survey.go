package coordinator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"campushub/src-server/model"

	"github.com/uptrace/bun"
)

// SurveyGate owns the per-event feedback survey: the survey shell,
// its question set, and participant responses. A completed response
// is what unlocks certificate issuance for hasCertificate events.
type SurveyGate struct {
	db     *bun.DB
	issuer *CertificateIssuer
}

func NewSurveyGate(db *bun.DB, issuer *CertificateIssuer) *SurveyGate {
	return &SurveyGate{db: db, issuer: issuer}
}

// GetOrCreateShell ensures exactly one survey row exists for the
// event. Safe to call repeatedly; the unique event_id column absorbs
// the race between two concurrent first calls.
func (g *SurveyGate) GetOrCreateShell(ctx context.Context, eventID int64) (*model.Survey, error) {
	eventExists, err := g.db.NewSelect().
		Model((*model.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*SurveyGate).GetOrCreateShell: %w", err)
	}
	if !eventExists {
		return nil, NewError(CODE_NOT_FOUND, REASON_EVENT_NOT_FOUND, "event %d does not exist", eventID)
	}

	surveyModel := model.Survey{
		EventID:          eventID,
		CreatedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if _, err := g.db.NewInsert().
		Model(&surveyModel).
		On("CONFLICT (event_id) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("(*SurveyGate).GetOrCreateShell: %w", err)
	}

	if err := g.db.NewSelect().
		Model(&surveyModel).
		Where("event_id = ?", eventID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*SurveyGate).GetOrCreateShell: %w", err)
	}
	return &surveyModel, nil
}

type QuestionSpec struct {
	Prompt  string                   `json:"prompt"`
	Type    model.SurveyQuestionType `json:"type"`
	Options []string                 `json:"options,omitempty"`
}

// ReplaceQuestions swaps the survey's whole question set in one
// transaction. Choice questions need at least two options.
func (g *SurveyGate) ReplaceQuestions(ctx context.Context, surveyID int64, questions []QuestionSpec) ([]model.SurveyQuestion, error) {
	for position, question := range questions {
		switch {
		case question.Prompt == "":
			return nil, NewError(
				CODE_VALIDATION, REASON_INVALID_QUESTION_SET,
				"question %d has a blank prompt", position,
			)
		case !question.Type.Valid():
			return nil, NewError(
				CODE_VALIDATION, REASON_INVALID_QUESTION_SET,
				"question %d has unknown type %q", position, question.Type,
			)
		case question.Type.IsChoice() && len(question.Options) < 2:
			return nil, NewError(
				CODE_VALIDATION, REASON_INVALID_QUESTION_SET,
				"question %d is a choice question with fewer than 2 options", position,
			)
		case !question.Type.IsChoice() && len(question.Options) > 0:
			return nil, NewError(
				CODE_VALIDATION, REASON_INVALID_QUESTION_SET,
				"question %d has options but is not a choice question", position,
			)
		}
	}

	surveyExists, err := g.db.NewSelect().
		Model((*model.Survey)(nil)).
		Where("id = ?", surveyID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*SurveyGate).ReplaceQuestions: %w", err)
	}
	if !surveyExists {
		return nil, NewError(CODE_NOT_FOUND, REASON_SURVEY_NOT_FOUND, "survey %d does not exist", surveyID)
	}

	questionModels := make([]model.SurveyQuestion, 0, len(questions))
	if err := g.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*model.SurveyQuestion)(nil)).
			Where("survey_id = ?", surveyID).
			Exec(ctx); err != nil {
			return err
		}
		for position, question := range questions {
			questionModel := model.SurveyQuestion{
				SurveyID: surveyID,
				Position: position,
				Prompt:   question.Prompt,
				Type:     question.Type,
			}
			if question.Type.IsChoice() {
				if err := questionModel.SetOptionList(question.Options); err != nil {
					return err
				}
			}
			if _, err := tx.NewInsert().
				Model(&questionModel).
				Exec(ctx); err != nil {
				return err
			}
			questionModels = append(questionModels, questionModel)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("(*SurveyGate).ReplaceQuestions: %w", err)
	}

	return questionModels, nil
}

// RecordResponse stores a participant's answer set, at most once per
// (survey, user). On success it runs the certificate trigger, which
// is a no-op unless the event carries the entitlement. The returned
// certificate is nil when no issuance happened.
func (g *SurveyGate) RecordResponse(ctx context.Context, surveyID int64, userID int64, answers map[int64]json.RawMessage) (*model.SurveyResponse, *model.Certificate, error) {
	surveyModel := new(model.Survey)
	if err := g.db.NewSelect().
		Model(surveyModel).
		Relation("Questions").
		Where("survey.id = ?", surveyID).
		Scan(ctx); err != nil {
		return nil, nil, NewError(CODE_NOT_FOUND, REASON_SURVEY_NOT_FOUND, "survey %d does not exist", surveyID)
	}

	userExists, err := g.db.NewSelect().
		Model((*model.User)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("(*SurveyGate).RecordResponse: %w", err)
	}
	if !userExists {
		return nil, nil, NewError(CODE_NOT_FOUND, REASON_USER_NOT_FOUND, "user %d does not exist", userID)
	}

	if len(answers) == 0 {
		return nil, nil, NewError(CODE_VALIDATION, REASON_INVALID_ANSWER_SET, "answer set is empty")
	}
	knownQuestionIDs := make(map[int64]struct{}, len(surveyModel.Questions))
	for _, question := range surveyModel.Questions {
		knownQuestionIDs[question.ID] = struct{}{}
	}
	for questionID := range answers {
		if _, ok := knownQuestionIDs[questionID]; !ok {
			return nil, nil, NewError(
				CODE_VALIDATION, REASON_INVALID_ANSWER_SET,
				"question %d does not belong to survey %d", questionID, surveyID,
			)
		}
	}

	responseModel := model.SurveyResponse{
		SurveyID:           surveyID,
		UserID:             userID,
		SubmittedAtUnixUTC: time.Now().UTC().Unix(),
	}
	if err := responseModel.SetAnswerMap(answers); err != nil {
		return nil, nil, fmt.Errorf("(*SurveyGate).RecordResponse: %w", err)
	}
	res, err := g.db.NewInsert().
		Model(&responseModel).
		On("CONFLICT (survey_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("(*SurveyGate).RecordResponse: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("(*SurveyGate).RecordResponse: %w", err)
	}
	if affected == 0 {
		return nil, nil, NewError(
			CODE_CONFLICT, REASON_DUPLICATE_SURVEY_RESPONSE,
			"user %d already responded to survey %d", userID, surveyID,
		)
	}

	if err := g.db.NewSelect().
		Model(&responseModel).
		Where("survey_id = ?", surveyID).
		Where("user_id = ?", userID).
		Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("(*SurveyGate).RecordResponse: %w", err)
	}

	eventModel := new(model.Event)
	if err := g.db.NewSelect().
		Model(eventModel).
		Where("id = ?", surveyModel.EventID).
		Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("(*SurveyGate).RecordResponse: %w", err)
	}
	cert, err := g.issuer.IssueIfEligible(ctx, eventModel, userID)
	if err != nil {
		// the response row stays; a failed render is retried via an
		// explicit reissue, which is idempotent
		return &responseModel, nil, err
	}
	return &responseModel, cert, nil
}
