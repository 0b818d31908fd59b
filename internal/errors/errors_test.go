package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppError(ErrorTypeValidation, "record is invalid", nil),
			want: "validation: record is invalid",
		},
		{
			name: "with cause",
			err:  NewAppError(ErrorTypeConnection, "cannot reach server", errors.New("dial tcp refused")),
			want: "connection: cannot reach server (caused by: dial tcp refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewAppError(ErrorTypeSQL, "wrapper", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
}

func TestClassifyError_MySQLCodes(t *testing.T) {
	classifier := NewErrorClassifier()

	tests := []struct {
		code            uint16
		wantType        ErrorType
		wantRecoverable bool
	}{
		{1045, ErrorTypePermission, false},
		{1049, ErrorTypeValidation, false},
		{1062, ErrorTypeValidation, false},
		{1146, ErrorTypeSQL, false},
		{1366, ErrorTypeValidation, false},
		{1452, ErrorTypeValidation, false},
		{2003, ErrorTypeConnection, true},
		{2006, ErrorTypeConnection, true},
		{9999, ErrorTypeSQL, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code_%d", tt.code), func(t *testing.T) {
			err := &mysql.MySQLError{Number: tt.code, Message: "boom"}
			appErr := classifier.ClassifyError(err)
			if appErr.Type != tt.wantType {
				t.Errorf("type = %s, want %s", appErr.Type, tt.wantType)
			}
			if appErr.IsRecoverable() != tt.wantRecoverable {
				t.Errorf("recoverable = %v, want %v", appErr.IsRecoverable(), tt.wantRecoverable)
			}
			if appErr.Context["mysql_error_code"] != tt.code {
				t.Errorf("expected mysql_error_code context to be %d", tt.code)
			}
		})
	}
}

func TestClassifyError_SQLSentinels(t *testing.T) {
	classifier := NewErrorClassifier()

	if got := classifier.ClassifyError(sql.ErrNoRows); got.Type != ErrorTypeValidation {
		t.Errorf("ErrNoRows type = %s, want validation", got.Type)
	}
	if got := classifier.ClassifyError(sql.ErrConnDone); !got.IsRecoverable() {
		t.Error("ErrConnDone should be recoverable")
	}
}

func TestClassifyError_Context(t *testing.T) {
	classifier := NewErrorClassifier()

	if got := classifier.ClassifyError(context.DeadlineExceeded); got.Type != ErrorTypeTimeout {
		t.Errorf("DeadlineExceeded type = %s, want timeout", got.Type)
	}
	if got := classifier.ClassifyError(context.Canceled); got.Type != ErrorTypeInterruption {
		t.Errorf("Canceled type = %s, want interruption", got.Type)
	}
}

func TestClassifyError_PassThrough(t *testing.T) {
	classifier := NewErrorClassifier()
	original := NewAppError(ErrorTypeStorage, "upload failed", nil)

	if got := classifier.ClassifyError(original); got != original {
		t.Error("Expected existing AppError to pass through unchanged")
	}
	if classifier.ClassifyError(nil) != nil {
		t.Error("Expected nil error to classify as nil")
	}
}

func TestRetryHandler_NonRecoverableStopsImmediately(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Multiplier:  2.0,
	})

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		return &mysql.MySQLError{Number: 1062, Message: "duplicate"}
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-recoverable error, got %d", attempts)
	}
}

func TestRetryHandler_RecoverableRetries(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	})

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &mysql.MySQLError{Number: 2003, Message: "unreachable"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryHandler_ExhaustsAttempts(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	})

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		return &mysql.MySQLError{Number: 2006, Message: "gone away"}
	})

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("Expected AppError")
	}
	if appErr.Context["attempts"] != 2 {
		t.Errorf("Expected attempts context to be 2, got %v", appErr.Context["attempts"])
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "nothing") != nil {
		t.Error("Expected nil for nil error")
	}

	wrapped := WrapError(&mysql.MySQLError{Number: 1045, Message: "denied"}, "connect failed")
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("Expected AppError")
	}
	if appErr.Type != ErrorTypePermission {
		t.Errorf("type = %s, want permission", appErr.Type)
	}
	if appErr.Message != "connect failed" {
		t.Errorf("message = %q, want %q", appErr.Message, "connect failed")
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(NewAppError(ErrorTypeStorage, "x", nil)); got != ErrorTypeStorage {
		t.Errorf("GetErrorType = %s, want storage", got)
	}
	if got := GetErrorType(errors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("GetErrorType = %s, want unknown", got)
	}
}
