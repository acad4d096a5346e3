package coordinator

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CODE_NOT_FOUND          = ErrorCode("NOT_FOUND")
	CODE_CONFLICT           = ErrorCode("CONFLICT")
	CODE_INVALID_STATE      = ErrorCode("INVALID_STATE")
	CODE_VALIDATION         = ErrorCode("VALIDATION")
	CODE_DEPENDENCY_FAILURE = ErrorCode("DEPENDENCY_FAILURE")
)

// Machine-readable reasons inside a code, e.g. a CONFLICT can be a
// duplicate attendance or a duplicate registration.
const (
	REASON_EVENT_NOT_FOUND           = "EVENT_NOT_FOUND"
	REASON_USER_NOT_FOUND            = "USER_NOT_FOUND"
	REASON_REGISTRATION_NOT_FOUND    = "REGISTRATION_NOT_FOUND"
	REASON_SURVEY_NOT_FOUND          = "SURVEY_NOT_FOUND"
	REASON_CERTIFICATE_NOT_FOUND     = "CERTIFICATE_NOT_FOUND"
	REASON_INVALID_USER_OR_EVENT     = "INVALID_USER_OR_EVENT"
	REASON_DUPLICATE_ATTENDANCE      = "DUPLICATE_ATTENDANCE"
	REASON_DUPLICATE_REGISTRATION    = "DUPLICATE_REGISTRATION"
	REASON_DUPLICATE_SURVEY_RESPONSE = "DUPLICATE_SURVEY_RESPONSE"
	REASON_INVALID_EVENT_STATUS      = "INVALID_EVENT_STATUS"
	REASON_INVALID_QUESTION_SET      = "INVALID_QUESTION_SET"
	REASON_INVALID_ANSWER_SET        = "INVALID_ANSWER_SET"
	REASON_INVALID_EVENT             = "INVALID_EVENT"
	REASON_RENDERER_FAILURE          = "RENDERER_FAILURE"
)

// Error is the structured error every coordinator operation returns.
// The HTTP boundary maps Code to a status and serializes the rest.
type Error struct {
	Code    ErrorCode `json:"code"`
	Reason  string    `json:"reason"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Code, e.Reason, e.Message)
}

func NewError(code ErrorCode, reason string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf unwraps err into a coordinator error code, or blank if err
// is not one of ours.
func CodeOf(err error) ErrorCode {
	var coordErr *Error
	if errors.As(err, &coordErr) {
		return coordErr.Code
	}
	return ""
}

// ReasonOf unwraps err into a coordinator error reason, or blank.
func ReasonOf(err error) string {
	var coordErr *Error
	if errors.As(err, &coordErr) {
		return coordErr.Reason
	}
	return ""
}
