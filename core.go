package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/gogpm/internal/byteio"
	"github.com/jcorbin/gogpm/internal/fileinput"
	"github.com/jcorbin/gogpm/internal/flushio"
)

// Core holds the machine's connections to the outside world: the input
// stream, the output stream, the monitor stream for diagnostics, and an
// optional trace logging function.
type Core struct {
	logging
	fileinput.Input
	out     flushio.WriteFlusher
	monitor flushio.WriteFlusher
}

var errUnexpectedEOF = errors.New("unexpected end of input")

// Close flushes any buffered output and closes any remaining input streams.
func (core *Core) Close() (err error) {
	if err = core.flush(); err != nil {
		core.Input.Close()
		return err
	}
	return core.Input.Close()
}

func (core *Core) flush() (err error) {
	if core.out != nil {
		err = core.out.Flush()
	}
	if core.monitor != nil {
		if ferr := core.monitor.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

func (core *Core) halt(err error) {
	// ignore any panics while trying to flush output
	func() {
		defer func() { recover() }()
		if ferr := core.flush(); err == nil {
			err = ferr
		}
	}()

	// ignore any panics while logging
	func() {
		defer func() { recover() }()
		if err != nil {
			core.logf("#", "halt error: %v", err)
		} else {
			core.logf("#", "halt")
		}
	}()

	panic(haltError{err})
}

func (core *Core) haltif(err error) {
	if err != nil {
		core.halt(err)
	}
}

func (core *Core) writeCell(v int) {
	core.haltif(byteio.WriteCell(core.out, v))
}

// readByte returns the next byte of input, flushing output first so that
// interactive input sees any prompt or prior expansion.
func (core *Core) readByte() int {
	core.haltif(core.flush())
	b, err := core.Input.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errUnexpectedEOF
		}
		core.halt(err)
	}
	return int(b)
}

// monitorf prints monitor diagnostics to the monitor stream, or to the output
// stream if none was given.
func (core *Core) monitorf(mess string, args ...interface{}) {
	w := core.monitor
	if w == nil {
		w = core.out
	} else {
		core.haltif(core.out.Flush())
	}
	if len(args) > 0 {
		_, err := fmt.Fprintf(w, mess, args...)
		core.haltif(err)
	} else {
		_, err := w.Write([]byte(mess))
		core.haltif(err)
	}
}

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err haltError) Unwrap() error { return err.error }

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
