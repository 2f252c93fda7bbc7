package pkg

import "errors"

var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrDuplicate             = errors.New("duplicate record")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrDuplicateRating       = errors.New("already rated this event")
	ErrConflict              = errors.New("record modified concurrently")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrValidation            = errors.New("validation failed")
)

// ValidationError 带字段说明的参数错误，errors.Is(err, ErrValidation) 为真
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// reasonError 给哨兵错误附带面向用户的说明
type reasonError struct {
	kind error
	msg  string
}

func (e *reasonError) Error() string {
	return e.msg
}

func (e *reasonError) Unwrap() error {
	return e.kind
}

// WithReason errors.Is(err, kind) 为真，Error() 返回 msg
func WithReason(kind error, msg string) error {
	return &reasonError{kind: kind, msg: msg}
}
