package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeEmptyDataset      ErrorType = "EMPTY_DATASET"
	ErrTypeMalformedRecord   ErrorType = "MALFORMED_RECORD"
	ErrTypeLoad              ErrorType = "LOAD"
	ErrTypeInvalidInput      ErrorType = "INVALID_INPUT"
	ErrTypeInternal          ErrorType = "INTERNAL"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if stderrors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// IsType reports whether any error in err's chain is a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if !stderrors.As(err, &domainErr) {
		return false
	}
	if domainErr.Type == errType {
		return true
	}
	return IsType(domainErr.Err, errType)
}

func SourceUnavailable(message string, err error) *DomainError {
	return New(ErrTypeSourceUnavailable, message, err)
}

func EmptyDataset(message string) *DomainError {
	return New(ErrTypeEmptyDataset, message, nil)
}

func MalformedRecord(message string, err error) *DomainError {
	return New(ErrTypeMalformedRecord, message, err)
}

func Load(message string, err error) *DomainError {
	return New(ErrTypeLoad, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}
