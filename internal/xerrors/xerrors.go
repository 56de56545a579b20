// Package xerrors adds call-site information to errors without changing
// their messages. Errors built here still work with errors.Is and errors.As.
//
// Two kinds of annotation exist:
//   - a full stack (New, Newf, WithStack, EnsureTrace), exposed via StackPCs
//   - a single frame (Wrap, Wrapf), exposed via PC
//
// internal/log reads both when rendering error_links and stack attributes.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 64

// stacked carries the full call stack captured where the error was created.
type stacked struct {
	cause error
	pcs   []uintptr
}

func (e *stacked) Error() string       { return e.cause.Error() }
func (e *stacked) Unwrap() error       { return e.cause }
func (e *stacked) StackPCs() []uintptr { return e.pcs }

// annotated prefixes a message and records the single frame that added it.
type annotated struct {
	cause error
	msg   string
	pc    uintptr
}

func (e *annotated) Error() string { return e.msg + ": " + e.cause.Error() }
func (e *annotated) Unwrap() error { return e.cause }
func (e *annotated) PC() uintptr   { return e.pc }

// callers returns the stack above the function `skip` frames up from the
// caller of callers.
func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

func caller(skip int) uintptr {
	var pc [1]uintptr
	if runtime.Callers(skip+2, pc[:]) == 0 {
		return 0
	}
	return pc[0]
}

func stack(err error, skip int) error {
	if err == nil {
		return nil
	}
	return &stacked{cause: err, pcs: callers(skip + 1)}
}

// New returns an error with msg and the caller's stack.
func New(msg string) error { return stack(errors.New(msg), 1) }

// Newf is New with fmt formatting. %w is honoured.
func Newf(format string, args ...any) error { return stack(fmt.Errorf(format, args...), 1) }

// WithStack attaches the caller's stack to err. Nil stays nil.
func WithStack(err error) error { return stack(err, 1) }

// EnsureTrace attaches a stack only if nothing in err's chain has one yet.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	var s interface{ StackPCs() []uintptr }
	if errors.As(err, &s) && len(s.StackPCs()) > 0 {
		return err
	}
	return stack(err, 1)
}

// Wrap prefixes err with msg and records the caller. Nil stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: msg, pc: caller(1)}
}

// Wrapf is Wrap with fmt formatting of the prefix.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: fmt.Sprintf(format, args...), pc: caller(1)}
}
