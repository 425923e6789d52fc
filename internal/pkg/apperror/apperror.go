package apperror

import "fmt"

// Kind classifies a service failure so the transport layer can map it to a
// status code without string matching.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindStorageFailure  Kind = "storage_failure"
	KindProviderFailure Kind = "provider_failure"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func StorageFailure(message string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Message: message, Err: err}
}

func ProviderFailure(message string, err error) *Error {
	return &Error{Kind: KindProviderFailure, Message: message, Err: err}
}
