package scenegraph

import (
	"errors"
	"fmt"
)

// Expected failures carry one of these sentinels so callers can pick a
// recovery policy with errors.Is.
var (
	ErrInvalidParent    = errors.New("invalid parent")
	ErrMaterialNotFound = errors.New("material not found")
	ErrIndexOverflow    = errors.New("submesh exceeds 16-bit index range")
	ErrNonFiniteBounds  = errors.New("mesh bounds are not finite")
	ErrDoubleDestroy    = errors.New("visual destroyed twice")
	ErrResourceUpload   = errors.New("resource upload rejected")
)

// DebugChecks controls how contract violations (ErrDoubleDestroy and
// friends) are handled: panic when true, logged no-op when false.
var DebugChecks = false

// contractViolation panics in debug mode and logs otherwise. The wrapped
// error is returned so release-mode callers can still inspect it.
func contractViolation(log Logger, err error, format string, args ...any) error {
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)
	if DebugChecks {
		panic(wrapped)
	}
	if log != nil {
		log.Errorf("%v", wrapped)
	}
	return wrapped
}
