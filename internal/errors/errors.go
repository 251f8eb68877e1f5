package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinel values work with errors.Is after wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrEmptyName     = &AppError{Code: "VALID_001", Message: "medicine name is required"}
	ErrEmptyDosage   = &AppError{Code: "VALID_002", Message: "dosage is required"}
	ErrNoTimes       = &AppError{Code: "VALID_003", Message: "at least one dose time is required"}
	ErrMalformedTime = &AppError{Code: "VALID_004", Message: "time must be 24-hour HH:MM"}
	ErrDuplicateTime = &AppError{Code: "VALID_005", Message: "time already added"}
	ErrBadCategory   = &AppError{Code: "VALID_006", Message: "unknown category"}
	ErrNegativePills = &AppError{Code: "VALID_007", Message: "pill count must not be negative"}
	ErrBadDays       = &AppError{Code: "VALID_008", Message: "day window must be between 1 and 366 days"}
	ErrBadThemeMode  = &AppError{Code: "VALID_009", Message: "theme mode must be light, dark or auto"}
	ErrBadText       = &AppError{Code: "VALID_010", Message: "text is too long or contains control characters"}

	ErrStoreRead    = &AppError{Code: "STORE_001", Message: "failed to read medicines"}
	ErrStoreWrite   = &AppError{Code: "STORE_002", Message: "failed to write medicines"}
	ErrStoreCorrupt = &AppError{Code: "STORE_003", Message: "stored medicines are corrupted"}

	ErrAlarmPermission = &AppError{Code: "ALARM_001", Message: "notification permission denied"}
	ErrAlarmSchedule   = &AppError{Code: "ALARM_002", Message: "failed to schedule alarm"}
	ErrAlarmCancel     = &AppError{Code: "ALARM_003", Message: "failed to cancel alarm"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// From derives a new error from a sentinel, keeping its code and message.
func From(sentinel *AppError, cause error) *AppError {
	return &AppError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Cause:   cause,
	}
}

func hasPrefix(err error, prefix string) bool {
	return strings.HasPrefix(GetCode(err), prefix)
}

func IsValidation(err error) bool { return hasPrefix(err, "VALID_") }

func IsStorage(err error) bool { return hasPrefix(err, "STORE_") }

func IsAlarm(err error) bool { return hasPrefix(err, "ALARM_") }
