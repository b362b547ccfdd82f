package main

import (
	"io"

	"github.com/jcorbin/gogpm/internal/flushio"
)

// VMOption configures a VM built by New.
type VMOption interface{ apply(vm *VM) }

const (
	defaultMemLimit  = 64 * 1024
	defaultItemWidth = 72
)

var defaultOptions = VMOptions(
	withOutput(io.Discard),
	withMemLimit(defaultMemLimit),
	withItemWidth(defaultItemWidth),
)

// VMOptions combines any number of options into one; nil options are ignored.
func VMOptions(opts ...VMOption) VMOption {
	var res vmOptions
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case vmOptions:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type vmOptions []VMOption

func (opts vmOptions) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type inputOption []io.Reader
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type monitorOption struct{ io.Writer }
type memLimitOption int
type itemWidthOption int

func withInput(rs ...io.Reader) inputOption   { return inputOption(rs) }
func withOutput(w io.Writer) outputOption     { return outputOption{w} }
func withTee(w io.Writer) teeOption           { return teeOption{w} }
func withMonitor(w io.Writer) monitorOption   { return monitorOption{w} }
func withMemLimit(limit int) memLimitOption   { return memLimitOption(limit) }
func withItemWidth(width int) itemWidthOption { return itemWidthOption(width) }

func (rs inputOption) apply(vm *VM) {
	vm.Queue = append(vm.Queue, rs...)
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.WriteFlushers(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (o monitorOption) apply(vm *VM) {
	if vm.monitor != nil {
		vm.monitor.Flush()
	}
	if o.Writer == nil {
		vm.monitor = nil
	} else {
		vm.monitor = flushio.NewWriteFlusher(o.Writer)
	}
}

func (lim memLimitOption) apply(vm *VM) {
	vm.Limit = int(lim)
}

func (width itemWidthOption) apply(vm *VM) {
	vm.itemWidth = int(width)
}
