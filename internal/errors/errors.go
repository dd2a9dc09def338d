// Package errors wraps github.com/go-errors/errors so that every error
// carries a stack trace from the point it entered this codebase.
package errors

import (
	"fmt"

	"github.com/go-errors/errors"
)

func New(message string) error {
	return errors.New(message)
}

func Errorf(format string, a ...interface{}) error {
	return errors.Errorf(format, a...)
}

// Wrap attaches a stack trace to err. A nil err stays nil so call sites can
// wrap unconditionally.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	return errors.Wrap(err, 1)
}

// Wrapf is Wrap with a message prefix describing the failed operation.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}

	return errors.WrapPrefix(err, fmt.Sprintf(format, a...), 1)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Stack returns the stack trace recorded in err, or the plain error text if
// err never passed through this package.
func Stack(err error) string {
	var wrapped *errors.Error
	if errors.As(err, &wrapped) {
		return wrapped.ErrorStack()
	}

	return err.Error()
}
