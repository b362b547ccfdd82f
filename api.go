package main

import (
	"context"
	"errors"
	"io"

	"github.com/jcorbin/gogpm/internal/byteio"
	"github.com/jcorbin/gogpm/internal/panicerr"
)

// New creates a VM with the given options applied over the defaults:
// no input, discarded output, and a memory limit of 64Ki cells.
func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run expands all input, returning nil once an unquoted ">" is read at top
// level. Any monitor condition that the machine could not recover from is
// returned as an error, as is running out of input before the ">".
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		vm.run(ctx)
		return nil
	})
	var halt haltError
	if errors.As(err, &halt) {
		return halt.error
	}
	return err
}

// Dump writes a description of the machine's registers, environment, calls
// in progress, and memory to w.
func (vm *VM) Dump(w io.Writer) error {
	return panicerr.Recover("dump", func() error {
		vmDumper{vm: vm, out: w}.dump()
		return nil
	})
}

// NamedReader attaches a name to r, used when reporting input locations.
func NamedReader(name string, r io.Reader) io.Reader { return byteio.NamedReader(name, r) }

func WithInput(r io.Reader) VMOption      { return withInput(r) }
func WithInputs(rs ...io.Reader) VMOption { return withInput(rs...) }
func WithOutput(w io.Writer) VMOption     { return withOutput(w) }
func WithTee(w io.Writer) VMOption        { return withTee(w) }
func WithMonitor(w io.Writer) VMOption    { return withMonitor(w) }
func WithMemLimit(limit int) VMOption     { return withMemLimit(limit) }
func WithItemWidth(width int) VMOption    { return withItemWidth(width) }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
