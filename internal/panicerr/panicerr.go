// Package panicerr converts abnormal goroutine exits into error values.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Recover runs f in a new goroutine wrapped in defer logic to recover any
// abnormal exits or panics as non-nil error returns.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExit(name, errch)
		defer recoverPanic(name, errch)
		errch <- f()
	}()
	return <-errch
}

// Error is a recovered panic, retaining the stack where it happened.
type Error struct {
	Name  string
	Value interface{}
	Stack []byte
}

func (pe Error) Error() string {
	return fmt.Sprint(pe)
}

// Format prints the panic value; the %+v form adds the stack trace.
func (pe Error) Format(f fmt.State, c rune) {
	if pe.Name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.Value)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.Name, pe.Value)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.Stack)
	}
}

// Unwrap returns the panic value when it was an error.
func (pe Error) Unwrap() error {
	err, _ := pe.Value.(error)
	return err
}

// ExitError records that a goroutine called runtime.Goexit.
type ExitError string

func (name ExitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

// IsPanic returns true if err indicates a recovered goroutine panic.
func IsPanic(err error) bool {
	var pe Error
	return errors.As(err, &pe)
}

// IsExit returns true if err indicates a recovered goroutine exit.
func IsExit(err error) bool {
	var xe ExitError
	return errors.As(err, &xe)
}

// Stack returns a non-empty stacktrace string if err is a recovered
// goroutine panic.
func Stack(err error) string {
	var pe Error
	if errors.As(err, &pe) {
		return string(pe.Stack)
	}
	return ""
}

func recoverPanic(name string, errch chan<- error) {
	if e := recover(); e != nil {
		select {
		case errch <- Error{name, e, debug.Stack()}:
		default:
		}
	}
}

func recoverExit(name string, errch chan<- error) {
	select {
	case errch <- ExitError(name):
	default:
		// the happy path already sent its (maybe nil) result
	}
}
