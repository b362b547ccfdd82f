package main

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/gogpm/internal/logio"
	"github.com/jcorbin/gogpm/internal/panicerr"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type vmTestCase struct {
	name    string
	opts    []interface{}
	ops     []func(vm *VM)
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration
	wantErr error

	exclusive   bool
	nextInputID int
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

func (vmt vmTestCase) withMemLimit(limit int) vmTestCase {
	vmt.opts = append(vmt.opts, withMemLimit(limit))
	return vmt
}

func (vmt vmTestCase) withItemWidth(width int) vmTestCase {
	vmt.opts = append(vmt.opts, withItemWidth(width))
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		name := t.Name() + "/input"
		if id := vmt.nextInputID; id > 0 {
			name += "_" + strconv.Itoa(id+1)
		}
		vmt.nextInputID++
		return WithInput(NamedReader(name, strings.NewReader(input)))
	})
	return vmt
}

func (vmt vmTestCase) withNamedInput(name string, input string) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithInput(NamedReader(name, strings.NewReader(input)))
	})
	return vmt
}

func (vmt vmTestCase) do(ops ...func(vm *VM)) vmTestCase {
	vmt.ops = append(vmt.ops, ops...)
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectRegisters(registers string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, registers, vm.registers(), "expected registers")
	})
	return vmt
}

func (vmt vmTestCase) expectMemAt(addr int, values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		buf := make([]int, len(values))
		assert.NoError(t, vm.LoadInto(addr, buf), "unable to load @%v", addr)
		if !assert.Equal(t, values, buf, "expected memory values @%v", addr) {
			for i, value := range values {
				a := addr + i
				assert.Equal(t, quoteCell(value), quoteCell(buf[i]), "expected memory value @%v", a)
			}
		}
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectOutputPrefix(prefix string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.True(t, strings.HasPrefix(out.String(), prefix),
			"expected output prefix %q, got %q", prefix, out.String())
	})
	return vmt
}

func (vmt vmTestCase) expectMonitor(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithMonitor(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected monitor output")
	})
	return vmt
}

func (vmt vmTestCase) expectDumpContains(parts ...string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var out strings.Builder
		assert.NoError(t, vm.Dump(&out), "unexpected dump error")
		for _, part := range parts {
			assert.Contains(t, out.String(), part, "expected dump content")
		}
	})
	return vmt
}

func (vmt vmTestCase) withTestOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithTee(&logio.Writer{Logf: t.Logf, Prefix: "out: "})
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Since(then))
	}(time.Now())

	// collect a trace, only logged if the test fails
	var trace []string
	vm := vmt.buildVM(t)
	WithLogf(func(mess string, args ...interface{}) {
		trace = append(trace, fmt.Sprintf(mess, args...))
	}).apply(vm)
	defer func() {
		if t.Failed() {
			for _, line := range trace {
				t.Log(line)
			}
		}
	}()

	vmt.runVMTest(context.Background(), t, vm)
}

func (vmt vmTestCase) runVMTest(ctx context.Context, t *testing.T, vm *VM) {
	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if t.Failed() {
			vmt.dumpToTest(t, vm)
		}
	}()

	if err := vmt.runVM(ctx, vm); vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

func (vmt vmTestCase) runVM(ctx context.Context, vm *VM) (rerr error) {
	defer func() {
		if err := vm.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("vm.Close failed: %w", err)
		}
	}()

	if len(vmt.ops) == 0 {
		return vm.Run(ctx)
	}

	names := make([]string, len(vmt.ops))
	for i, op := range vmt.ops {
		names[i] = runtime.FuncForPC(reflect.ValueOf(op).Pointer()).Name()
	}
	err := panicerr.Recover("vmTestCase.ops", func() error {
		vm.init()
		for i, op := range vmt.ops {
			vm.logf(">", "do[%v] %v", i, names[i])
			op(vm)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return nil
	})
	var halt haltError
	if errors.As(err, &halt) {
		return halt.error
	}
	return err
}

func (vmt vmTestCase) buildVM(t *testing.T) *VM {
	const testMemLimit = 4 * 1024

	var opt VMOption = withMemLimit(testMemLimit)
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opt = VMOptions(opt, impl(&vmt, t))
		case VMOption:
			opt = VMOptions(opt, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	return New(opt)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	if err := vm.Dump(&lw); err != nil {
		t.Logf("dump failed: %v", err)
	}
}

//// utilities

// steps returns an op that performs n dispatch loop steps.
func steps(n int) func(vm *VM) {
	return func(vm *VM) {
		act := actNext
		for i := 0; i < n; i++ {
			act = vm.step(act)
		}
	}
}

// monitorCalls formats the monitor's call listing for the given calls, each
// given as a status and its rendered items.
func monitorCalls(calls ...[]string) string {
	var sb strings.Builder
	sb.WriteString("\nCurrent macros are")
	for _, call := range calls {
		sb.WriteString("\n")
		sb.WriteString(call[0])
		for i, item := range call[1:] {
			if i > 0 {
				fmt.Fprintf(&sb, "\nArg %d\t", i)
			}
			sb.WriteString(" ")
			sb.WriteString(item)
		}
	}
	sb.WriteString("\nEnd of monitor printing\n")
	return sb.String()
}

func entered(items ...string) []string    { return append([]string{"Already entered"}, items...) }
func notEntered(items ...string) []string { return append([]string{"Not yet entered"}, items...) }
