package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := New("TEST_001", "test error")

	if err.Code != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
}

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New("STORE_002", "write failed", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected error string to contain cause, got %s", err.Error())
	}
	if err.Unwrap() != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestFromKeepsSentinelIdentity(t *testing.T) {
	cause := fmt.Errorf("permission denied by user")
	err := From(ErrAlarmPermission, cause)

	if !stderrors.Is(err, ErrAlarmPermission) {
		t.Error("expected errors.Is to match the sentinel")
	}
	if stderrors.Is(err, ErrAlarmSchedule) {
		t.Error("expected errors.Is not to match a different code")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("saving: %w", From(ErrStoreWrite, nil))

	if GetCode(wrapped) != "STORE_002" {
		t.Errorf("expected STORE_002, got %s", GetCode(wrapped))
	}
	if GetCode(fmt.Errorf("plain")) != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for a standard error")
	}
	if !IsAppError(wrapped) {
		t.Error("expected IsAppError through a wrapping chain")
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		storage    bool
		alarm      bool
	}{
		{"validation", ErrMalformedTime, true, false, false},
		{"storage", From(ErrStoreRead, fmt.Errorf("eof")), false, true, false},
		{"alarm", From(ErrAlarmSchedule, nil), false, false, true},
		{"plain", fmt.Errorf("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsValidation(tt.err) != tt.validation {
				t.Errorf("IsValidation = %v", !tt.validation)
			}
			if IsStorage(tt.err) != tt.storage {
				t.Errorf("IsStorage = %v", !tt.storage)
			}
			if IsAlarm(tt.err) != tt.alarm {
				t.Errorf("IsAlarm = %v", !tt.alarm)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(cause, "WRAP_001", "wrapped error")

	if err.Code != "WRAP_001" {
		t.Errorf("expected code WRAP_001, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}
