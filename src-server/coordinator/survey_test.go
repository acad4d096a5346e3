package coordinator_test

import (
	"context"
	"encoding/json"
	"testing"

	"campushub/src-server/coordinator"
	"campushub/src-server/model"
)

func TestGetOrCreateShellIdempotent(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)

	first, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Error("shell should be created once per event")
	}

	count, err := bundb.NewSelect().
		Model((*model.Survey)(nil)).
		Where("event_id = ?", eventModel.ID).
		Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Error("exactly one survey row expected", count)
	}

	_, err = c.Surveys.GetOrCreateShell(ctx, 404)
	if coordinator.ReasonOf(err) != coordinator.REASON_EVENT_NOT_FOUND {
		t.Error("expected event-not-found, got", err)
	}
}

func TestReplaceQuestionsValidation(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)
	surveyModel, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}

	// case: choice question with a single option is refused
	func() {
		_, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
			{Prompt: "pick one", Type: model.SURVEY_QUESTION_TYPE_SINGLE_CHOICE, Options: []string{"only"}},
		})
		if coordinator.CodeOf(err) != coordinator.CODE_VALIDATION {
			t.Error("expected validation error, got", err)
		}
	}()

	// case: unknown type is refused
	func() {
		_, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
			{Prompt: "???", Type: model.SurveyQuestionType("essay")},
		})
		if coordinator.CodeOf(err) != coordinator.CODE_VALIDATION {
			t.Error("expected validation error, got", err)
		}
	}()

	// case: a valid set replaces the previous one wholesale
	func() {
		if _, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
			{Prompt: "how was it", Type: model.SURVEY_QUESTION_TYPE_SHORT_TEXT},
			{Prompt: "rating", Type: model.SURVEY_QUESTION_TYPE_RATING},
		}); err != nil {
			t.Fatal(err)
		}
		replacement, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
			{Prompt: "pick some", Type: model.SURVEY_QUESTION_TYPE_MULTI_CHOICE, Options: []string{"a", "b", "c"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(replacement) != 1 {
			t.Fatal("expected the replacement set only", len(replacement))
		}
		options, err := replacement[0].OptionList()
		if err != nil {
			t.Fatal(err)
		}
		if len(options) != 3 {
			t.Error("options should round-trip", options)
		}

		count, err := bundb.NewSelect().
			Model((*model.SurveyQuestion)(nil)).
			Where("survey_id = ?", surveyModel.ID).
			Count(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Error("old questions should be gone", count)
		}
	}()
}

func TestRecordResponseGatedIssuance(t *testing.T) {
	c, bundb, renderer := newTestCoordinator(t)
	ctx := context.Background()

	// case: hasCertificate event issues exactly one rendered certificate
	func() {
		userModel := seedUser(t, bundb, "earner")
		eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, true)
		surveyModel, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		questionModels, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
			{Prompt: "rating", Type: model.SURVEY_QUESTION_TYPE_RATING},
		})
		if err != nil {
			t.Fatal(err)
		}

		_, cert, err := c.Surveys.RecordResponse(ctx, surveyModel.ID, userModel.ID, map[int64]json.RawMessage{
			questionModels[0].ID: json.RawMessage(`4`),
		})
		if err != nil {
			t.Fatal(err)
		}
		if cert == nil || cert.FileURL == "" {
			t.Fatal("expected a rendered certificate")
		}
		if renderer.renderCount() != 1 {
			t.Error("expected one render", renderer.renderCount())
		}
	}()

	// case: no entitlement, no certificate row
	func() {
		userModel := seedUser(t, bundb, "visitor")
		eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)
		surveyModel, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		questionModels, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
			{Prompt: "rating", Type: model.SURVEY_QUESTION_TYPE_RATING},
		})
		if err != nil {
			t.Fatal(err)
		}

		_, cert, err := c.Surveys.RecordResponse(ctx, surveyModel.ID, userModel.ID, map[int64]json.RawMessage{
			questionModels[0].ID: json.RawMessage(`2`),
		})
		if err != nil {
			t.Fatal(err)
		}
		if cert != nil {
			t.Error("no certificate expected for an event without the entitlement")
		}

		count, err := bundb.NewSelect().
			Model((*model.Certificate)(nil)).
			Where("user_id = ?", userModel.ID).
			Where("event_id = ?", eventModel.ID).
			Count(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Error("no certificate rows expected", count)
		}
	}()
}

func TestRecordResponseDuplicate(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "twice")
	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)
	surveyModel, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	questionModels, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
		{Prompt: "comments", Type: model.SURVEY_QUESTION_TYPE_SHORT_TEXT},
	})
	if err != nil {
		t.Fatal(err)
	}

	answers := map[int64]json.RawMessage{
		questionModels[0].ID: json.RawMessage(`"fine"`),
	}
	if _, _, err := c.Surveys.RecordResponse(ctx, surveyModel.ID, userModel.ID, answers); err != nil {
		t.Fatal(err)
	}
	_, _, err = c.Surveys.RecordResponse(ctx, surveyModel.ID, userModel.ID, answers)
	if coordinator.ReasonOf(err) != coordinator.REASON_DUPLICATE_SURVEY_RESPONSE {
		t.Fatal("expected duplicate-survey-response, got", err)
	}

	count, err := bundb.NewSelect().
		Model((*model.SurveyResponse)(nil)).
		Where("survey_id = ?", surveyModel.ID).
		Where("user_id = ?", userModel.ID).
		Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Error("exactly one response row expected", count)
	}
}

func TestRecordResponseValidation(t *testing.T) {
	c, bundb, _ := newTestCoordinator(t)
	ctx := context.Background()

	userModel := seedUser(t, bundb, "strict")
	eventModel := seedEvent(t, bundb, model.EVENT_STATUS_PUBLISHED, false)
	surveyModel, err := c.Surveys.GetOrCreateShell(ctx, eventModel.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Surveys.ReplaceQuestions(ctx, surveyModel.ID, []coordinator.QuestionSpec{
		{Prompt: "rating", Type: model.SURVEY_QUESTION_TYPE_RATING},
	}); err != nil {
		t.Fatal(err)
	}

	// empty answer set
	_, _, err = c.Surveys.RecordResponse(ctx, surveyModel.ID, userModel.ID, nil)
	if coordinator.CodeOf(err) != coordinator.CODE_VALIDATION {
		t.Error("expected validation error for empty answers, got", err)
	}

	// answer for a question of another survey
	_, _, err = c.Surveys.RecordResponse(ctx, surveyModel.ID, userModel.ID, map[int64]json.RawMessage{
		9999: json.RawMessage(`1`),
	})
	if coordinator.CodeOf(err) != coordinator.CODE_VALIDATION {
		t.Error("expected validation error for a foreign question, got", err)
	}
}
