package base

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy from spec.md §7. It is not a type hierarchy:
// every error the core returns wraps exactly one Kind sentinel so callers
// can branch with errors.Is, while the wrapping error carries whatever
// path/argv detail makes the diagnostic actionable.
type Kind error

var (
	ErrConfig              Kind = errors.New("config error")
	ErrToolNotFound         Kind = errors.New("tool not found")
	ErrInvalidArgs          Kind = errors.New("invalid arguments")
	ErrNativeCompileFailed  Kind = errors.New("native compile failed")
	ErrBitcodeCompileFailed Kind = errors.New("bitcode compile failed")
	ErrAttachFailed         Kind = errors.New("bitcode section attach failed")
	ErrUnsupportedFormat    Kind = errors.New("unsupported artifact format")
	ErrMissingBitcode       Kind = errors.New("missing bitcode")
	ErrToolInvocationError  Kind = errors.New("tool invocation error")
)

// Wrap annotates a Kind sentinel with context while keeping it matchable by
// errors.Is(err, kind).
func Wrap(kind Kind, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// WrapErr additionally chains an underlying cause, e.g. the *exec.ExitError
// from a failed subprocess.
func WrapErr(kind Kind, cause error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), kind, cause)
}
