package main

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"
)

//// Monitor diagnostics

// The monitor reports misuse of the notation. Some conditions are recovered
// from, after saying how; the rest print the chain of current macro calls
// and halt the machine.

// monitorKind identifies a monitor condition; it serves as a sentinel error
// for errors.Is.
type monitorKind int

const (
	errUnmatchedSemicolon monitorKind = 1
	errUnquotedTilde      monitorKind = 2
	errImpossibleArg      monitorKind = 3
	errNoArgument         monitorKind = 4
	errTerminator         monitorKind = 5
	errUndefinedName      monitorKind = 7
	errUnmatchedExit      monitorKind = 8
	errUpdateTooLong      monitorKind = 9
	errNonDigit           monitorKind = 10
	errUpdateMachine      monitorKind = 12
	errDivideByZero       monitorKind = 13
	errBadOperator        monitorKind = 14
	errOutOfRange         monitorKind = 15
)

var monitorKindNames = map[monitorKind]string{
	errUnmatchedSemicolon: "unmatched semicolon",
	errUnquotedTilde:      "unquoted tilde",
	errImpossibleArg:      "impossible argument number",
	errNoArgument:         "missing argument",
	errTerminator:         "unexpected terminator",
	errUndefinedName:      "undefined name",
	errUnmatchedExit:      "unmatched exit",
	errUpdateTooLong:      "update argument too long",
	errNonDigit:           "non-digit in number",
	errUpdateMachine:      "cannot update machine macro",
	errDivideByZero:       "division by zero",
	errBadOperator:        "impossible operator",
	errOutOfRange:         "number out of range",
}

func (kind monitorKind) Error() string {
	if name, ok := monitorKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("monitor condition %d", int(kind))
}

// monitorError is the error that a fatal monitor condition halts with.
type monitorError struct {
	kind   monitorKind
	detail string
}

func (err monitorError) Error() string {
	if err.detail == "" {
		return err.kind.Error()
	}
	return fmt.Sprintf("%v: %v", err.kind, err.detail)
}

func (err monitorError) Unwrap() error { return err.kind }

func (vm *VM) monitor1() action {
	vm.monitorf("\nMONITOR: Unmatched semicolon in definition of")
	vm.item(vm.p + 2)
	vm.monitorf("\nIf this had been quoted the result would be \n")
	vm.logf("#", "recovered: %v", errUnmatchedSemicolon)
	return actCopy
}

func (vm *VM) monitor2() action {
	vm.monitorf("\nMONITOR: Unquoted tilde in argument list of")
	vm.item(vm.f + 2)
	vm.monitorf("\nIf this had been quoted the result would be \n")
	vm.logf("#", "recovered: %v", errUnquotedTilde)
	return actCopy
}

func (vm *VM) monitor3() action {
	vm.monitorf("\nMONITOR: Impossible argument number in definition of")
	return vm.fatal(errImpossibleArg, vm.item(vm.p+2))
}

func (vm *VM) monitor4(n int) action {
	vm.monitorf("\nMONITOR: No argument %d in call for", n)
	return vm.fatal(errNoArgument, fmt.Sprintf("%d of %s", n, vm.item(vm.p+2)))
}

// monitor5 handles a frame terminator reached while a call is still open.
// Within a macro this is taken to be a missing semicolon: one is supplied by
// backing C up onto the terminator, which is then read again once the
// supplied call has been applied.
func (vm *VM) monitor5() action {
	vm.monitorf("\nMONITOR: Terminator in")
	if vm.c == 0 {
		vm.monitorf(" input stream. Probably machine error.")
		return vm.fatal(errTerminator, vm.Location().String())
	}
	vm.monitorf(" argument list for")
	vm.item(vm.f + 2)
	vm.monitorf("\nProbably due to a semicolon missing from the definition of")
	vm.item(vm.p + 2)
	vm.monitorf("\nIf a final semicolon is inserted the result is \n")
	vm.logf("#", "recovered: %v", errTerminator)
	vm.c--
	return actApply
}

func (vm *VM) monitor7() int {
	vm.monitorf("\nMONITOR: Undefined name")
	vm.fatal(errUndefinedName, vm.item(vm.w))
	return 0
}

func (vm *VM) monitor8() action {
	vm.monitorf("\nMONITOR: Unmatched >. Probably machine error.")
	return vm.fatal(errUnmatchedExit, "")
}

func (vm *VM) monitor9(name int) action {
	vm.monitorf("\nMONITOR: Update argument too long for")
	return vm.fatal(errUpdateTooLong, vm.item(name))
}

func (vm *VM) monitor10(x int) action {
	vm.monitorf("\nMONITOR: Non-digit in number")
	return vm.fatal(errNonDigit, vm.render(x))
}

func (vm *VM) monitorUpdateMachine(name int) action {
	vm.monitorf("\nMONITOR: Update of machine macro")
	return vm.fatal(errUpdateMachine, vm.item(name))
}

func (vm *VM) monitorDivide() action {
	vm.monitorf("\nMONITOR: Division by zero in")
	return vm.fatal(errDivideByZero, vm.item(vm.p+2))
}

func (vm *VM) monitorOperator(op int) action {
	vm.monitorf("\nMONITOR: Impossible operator")
	return vm.fatal(errBadOperator, vm.item(op))
}

// monitorRange reports a number that does not fit in a cell; x is the item
// it came from, or 0 for an arithmetic result.
func (vm *VM) monitorRange(x int) action {
	vm.monitorf("\nMONITOR: Number out of range in")
	if x != 0 {
		return vm.fatal(errOutOfRange, vm.item(x))
	}
	return vm.fatal(errOutOfRange, vm.item(vm.p+2))
}

// fatal prints the current macro calls, and halts.
func (vm *VM) fatal(kind monitorKind, detail string) action {
	vm.printCalls()
	vm.halt(monitorError{kind, detail})
	return actNext
}

const maxMonitorItems = 20

// printCalls prints every call in progress, innermost first: both those
// already entered, along the P chain, and those still having their argument
// lists collected, along the F chain.
func (vm *VM) printCalls() {
	vm.monitorf("\nCurrent macros are")
	for p, f := vm.p, vm.f; p != 0 || f != 0; {
		var x int
		if p > f {
			vm.monitorf("\nAlready entered")
			x, p = p+2, vm.load(p)
		} else {
			vm.monitorf("\nNot yet entered")
			x, f = f+2, vm.load(f)
		}
		for r := 0; r < maxMonitorItems; r++ {
			if r > 0 {
				vm.monitorf("\nArg %d\t", r)
			}
			vm.item(x)
			end, complete := vm.itemEnd(x)
			if !complete || end >= vm.s {
				break
			}
			if x = end; vm.load(x) == marker {
				break
			}
		}
	}
	vm.monitorf("\nEnd of monitor printing\n")
}

// item prints the item at x, preceded by a space, returning its text.
func (vm *VM) item(x int) string {
	text := vm.render(x)
	vm.monitorf(" %s", text)
	if _, complete := vm.itemEnd(x); !complete {
		vm.monitorf("...\t(Incomplete)")
	}
	return text
}

// itemEnd returns the address just past the item at x, and whether the item
// is complete. An incomplete item ends at the first call frame above it, or
// at S.
func (vm *VM) itemEnd(x int) (int, bool) {
	if !vm.isOpen(x) {
		if n := vm.load(x); n > 0 && x+n <= vm.s {
			return x + n, true
		}
	}
	end := vm.s
	for p, f := vm.p, vm.f; p != 0 || f != 0; {
		var base int
		if p > f {
			base, p = p-1, vm.load(p)
		} else {
			base, f = f-1, vm.load(f)
		}
		if base > x && base < end {
			end = base
		}
	}
	return end, false
}

// isOpen returns true if the item at x is still being accumulated: either
// the current item, or one that an open call will return to. The length
// cell of such an item only holds an adjustment for calls nested within it.
func (vm *VM) isOpen(x int) bool {
	if x == vm.h {
		return true
	}
	for f := vm.f; f != 0; f = vm.load(f) {
		if vm.load(f-1) == x {
			return true
		}
	}
	return false
}

// render returns the text of the item at x; cells that do not hold a byte
// are written in braces.
func (vm *VM) render(x int) string {
	end, _ := vm.itemEnd(x)
	var sb strings.Builder
	for i := x + 1; i < end; i++ {
		if v := vm.load(i); v >= 0 && v <= 0xff {
			sb.WriteByte(byte(v))
		} else {
			sb.WriteString(quoteCell(v))
		}
	}
	text := sb.String()
	if vm.itemWidth > 0 {
		text = truncate.StringWithTail(text, uint(vm.itemWidth), "...")
	}
	return text
}
