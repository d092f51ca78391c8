// Package xcorr structured error types for better error handling
package xcorr

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
)

// ErrorKind represents categories of errors
type ErrorKind int

const (
	// Memory errors
	KindMemory ErrorKind = iota
	// Invalid argument errors
	KindInvalidArg
	// Launch geometry errors
	KindGeometry
	// Execution errors
	KindExecution
	// Device errors
	KindDevice
)

// Error represents a structured error with the operation that raised it
// and the source location of the failing call site.
type Error struct {
	Kind    ErrorKind
	Op      string // Operation that failed
	Message string // Human-readable message
	Loc     string // Source location of the failing call, file:line
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("xcorr %s error in %s: %s", e.Kind.String(), e.Op, e.Message)
	if e.Loc != "" {
		msg += " at " + e.Loc
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error kind as a string
func (k ErrorKind) String() string {
	switch k {
	case KindMemory:
		return "Memory"
	case KindInvalidArg:
		return "InvalidArgument"
	case KindGeometry:
		return "Geometry"
	case KindExecution:
		return "Execution"
	case KindDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// callerLoc reports the file:line of the caller skip frames up the stack,
// trimmed to the last path element.
func callerLoc(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			file = file[i+1:]
			break
		}
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Common error constructors

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &Error{
		Kind:    KindMemory,
		Op:      op,
		Message: message,
		Loc:     callerLoc(1),
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Kind:    KindInvalidArg,
		Op:      op,
		Message: message,
		Loc:     callerLoc(1),
	}
}

// NewGeometryError creates a launch geometry error
func NewGeometryError(op string, message string) error {
	return &Error{
		Kind:    KindGeometry,
		Op:      op,
		Message: message,
		Loc:     callerLoc(1),
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &Error{
		Kind:    KindExecution,
		Op:      op,
		Message: message,
		Loc:     callerLoc(1),
		Err:     err,
	}
}

// NewDeviceError creates a device capability error
func NewDeviceError(op string, message string, err error) error {
	return &Error{
		Kind:    KindDevice,
		Op:      op,
		Message: message,
		Loc:     callerLoc(1),
		Err:     err,
	}
}

// Common pre-defined errors

var (
	// ErrOutOfMemory indicates memory allocation failure
	ErrOutOfMemory = NewMemoryError("Malloc", "out of memory", nil)

	// ErrInvalidSize indicates invalid size parameter
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrNullPointer indicates null pointer access
	ErrNullPointer = NewInvalidArgError("Memory", "null pointer")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates invalid device ID
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")
)

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == KindMemory
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == KindInvalidArg
	}
	return false
}

// IsGeometryError checks if an error is a launch geometry error
func IsGeometryError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == KindGeometry
	}
	return false
}

// FaultPolicy selects what a device-layer fault does to the process.
type FaultPolicy int32

const (
	// FaultPropagate returns faults to the caller as ordinary errors.
	FaultPropagate FaultPolicy = iota
	// FaultTerminate prints a diagnostic naming the failed operation and
	// its source location, then exits with a non-zero status.
	FaultTerminate
)

var faultPolicy atomic.Int32

// SetFaultPolicy installs the process-wide fault policy and returns the
// previous one. The default is FaultPropagate.
func SetFaultPolicy(p FaultPolicy) FaultPolicy {
	return FaultPolicy(faultPolicy.Swap(int32(p)))
}

// CurrentFaultPolicy reports the installed fault policy.
func CurrentFaultPolicy() FaultPolicy {
	return FaultPolicy(faultPolicy.Load())
}

// exit is swapped out in tests.
var exit = os.Exit

// fault applies the installed policy to err. Under FaultPropagate it hands
// err back for the caller to return; under FaultTerminate it writes a
// diagnostic to stderr and terminates the process.
func fault(err error) error {
	if err == nil {
		return nil
	}
	if CurrentFaultPolicy() == FaultTerminate {
		if e, ok := err.(*Error); ok && e.Loc != "" {
			fmt.Fprintf(os.Stderr, "xcorr: fatal: %s failed at %s: %s\n", e.Op, e.Loc, e.Message)
		} else {
			fmt.Fprintf(os.Stderr, "xcorr: fatal: %v\n", err)
		}
		exit(1)
	}
	return err
}
