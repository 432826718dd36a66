package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Workflow-facing messages are
// Vietnamese because the portal UI renders them directly.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "email hoặc mật khẩu không đúng")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "tài khoản đã bị vô hiệu hóa")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "bạn không có quyền thực hiện thao tác này")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "dữ liệu không hợp lệ")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	ErrRecordNotFound     = New("RECORD_NOT_FOUND", http.StatusNotFound, "không tìm thấy hồ sơ vị trí khảo sát")
	ErrInvalidTransition  = New("INVALID_TRANSITION", http.StatusConflict, "không thể thực hiện thao tác này ở trạng thái hiện tại")
	ErrOutsideWard        = New("OUTSIDE_JURISDICTION", http.StatusForbidden, "hồ sơ không thuộc địa bàn phường/xã được phân công")
	ErrDuplicateCode      = New("DUPLICATE_IDENTIFIER_CODE", http.StatusConflict, "mã định danh đã tồn tại")
	ErrCollisionExhausted = New("IDENTIFIER_EXHAUSTED", http.StatusInternalServerError, "không thể tạo mã định danh duy nhất, vui lòng thử lại sau")
	ErrIdentifierNotFound = New("IDENTIFIER_NOT_FOUND", http.StatusNotFound, "không tìm thấy mã định danh")

	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the given error code. Wrapped and
// cloned instances of the same predefined error compare equal.
func HasCode(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == target.Code
	}
	return false
}
