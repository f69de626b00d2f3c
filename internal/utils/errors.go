package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidAudio Code = "INVALID_AUDIO" // malformed payload, always user-facing 400
	CodeConfig       Code = "CONFIG"        // credentials absent, route cannot serve
	CodeAuth         Code = "AUTH"          // provider rejected credentials mid-flight
	CodeUnavailable  Code = "UNAVAILABLE"   // provider-side failure surviving retries
	CodeTimeout      Code = "TIMEOUT"       // provider exceeded its wall-clock budget
	CodeParse        Code = "PARSE"         // provider text not parseable as JSON
	CodeSchema       Code = "SCHEMA"        // parseable but missing required fields
	CodeInternal     Code = "INTERNAL"      // anything unanticipated
)

// AppError is the unified error contract across layers.
type AppError struct {
	Code    Code
	Op      string // operation name, ex: "AnalysisService.AnalyzeChunk"
	Message string // safe message
	Err     error  // wrapped error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// ErrKind is the short kind string rendered in the "error" field of an API
// error body.
func ErrKind(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidAudio:
			return "Invalid Audio"
		case CodeConfig:
			return "Configuration Error"
		case CodeAuth, CodeUnavailable:
			return "API Error"
		case CodeTimeout:
			return "Timeout"
		case CodeParse, CodeSchema:
			return "Parse Error"
		}
	}
	return "Server Error"
}

// Details returns the wrapped diagnostic string for operators; empty when
// there is nothing beneath the safe message.
func Details(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return ""
}

func HTTPStatus(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidAudio:
			return http.StatusBadRequest
		case CodeUnavailable, CodeTimeout:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
