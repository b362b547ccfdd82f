package main

import (
	"fmt"
	"math"
	"strconv"
)

//// Machine code macros

// The machine macros are preloaded into the environment, each entry's value
// being a single cell holding its negated number. They run as soon as their
// call is applied, put any result through the usual accumulation target, and
// then collapse their own frame.

const numMachineMacros = 6

type machineMacroDef struct {
	name string
	run  func(vm *VM) action
}

var machineMacros [numMachineMacros]machineMacroDef

func init() {
	machineMacros = [...]machineMacroDef{
		{"DEF", (*VM).def},
		{"VAL", (*VM).val},
		{"UPDATE", (*VM).update},
		{"BIN", (*VM).bin},
		{"DEC", (*VM).dec},
		{"BAR", (*VM).bar},
	}
}

func (m machineMacro) run(vm *VM) action { return machineMacros[m].run(vm) }

func (m machineMacro) String() string {
	if int(m) >= 0 && int(m) < len(machineMacros) {
		return machineMacros[m].name
	}
	return fmt.Sprintf("machineMacro(%d)", int(m))
}

// def, called as $DEF,name,text; adds an entry to the environment. The entry
// is made out of the call's own frame: everything from the name onward is
// kept in place, the cell just before the name becomes the back pointer, and
// the frame shrinks down to its header so that endFn moves the entry to
// where the frame began. Any further arguments become part of the text,
// rejoined by the commas that separated them.
func (vm *VM) def() action {
	name := vm.arg(1)
	text := vm.arg(2)
	end := text + vm.load(text)
	for n := vm.load(end); n != marker; n = vm.load(end) {
		vm.stor(end, ',')
		end += n
	}
	vm.stor(text, end-text)
	back := name - 1
	keep := back - (vm.p - 1)
	if vm.h != 0 {
		vm.stor(vm.h, vm.load(vm.h)-(vm.load(vm.p-1)-keep))
	}
	vm.stor(vm.p-1, keep)
	vm.stor(back, vm.e)
	vm.e = back
	return actEndFn
}

// val, called as $VAL,name; copies out the current replacement text of name
// without expanding it.
func (vm *VM) val() action {
	w := vm.find(vm.arg(1))
	if _, ok := vm.meaningAt(w).(textMacro); ok {
		for w++; vm.load(w) != marker; w++ {
			vm.put(vm.load(w))
		}
	}
	return actEndFn
}

// update, called as $UPDATE,name,text; overwrites the replacement text of
// name in place; the new text may be no longer than the original.
func (vm *VM) update() action {
	name := vm.arg(1)
	text := vm.arg(2)
	w := vm.find(name)
	if _, ok := vm.meaningAt(w).(textMacro); !ok {
		return vm.monitorUpdateMachine(name)
	}
	n := vm.load(text)
	if n > vm.load(w) {
		return vm.monitor9(name)
	}
	for r := 1; r < n; r++ {
		vm.stor(w+r, vm.load(text+r))
	}
	vm.stor(w+n, marker)
	return actEndFn
}

// bin, called as $BIN,digits; converts optionally signed decimal digits into
// a single binary valued cell. The magnitude may be at most math.MaxInt, so
// no result is ever the marker.
func (vm *VM) bin() action {
	x := vm.arg(1)
	end := x + vm.load(x)
	i := x + 1
	neg := false
	if i < end {
		switch vm.load(i) {
		case '-':
			neg = true
			i++
		case '+':
			i++
		}
	}
	num := 0
	for ; i < end; i++ {
		d := vm.load(i) - '0'
		if d < 0 || d > 9 {
			return vm.monitor10(x)
		}
		if num > (math.MaxInt-d)/10 {
			return vm.monitorRange(x)
		}
		num = 10*num + d
	}
	if neg {
		num = -num
	}
	vm.push(num)
	return actEndFn
}

// dec, called as $DEC,value; converts a binary valued cell back into decimal
// digits.
func (vm *VM) dec() action {
	for _, d := range strconv.AppendInt(nil, int64(vm.argCell(1)), 10) {
		vm.put(int(d))
	}
	return actEndFn
}

// bar, called as $BAR,op,x,y; performs binary arithmetic on two binary
// valued cells; op is one of + - * / %. Results that overflow, or that would
// be the marker, are out of range.
func (vm *VM) bar() action {
	op := vm.arg(1)
	x, y := vm.argCell(2), vm.argCell(3)
	var r int
	switch vm.argCell(1) {
	case '+':
		r = x + y
		if (x > 0 && y > 0 && r < 0) || (x < 0 && y < 0 && r >= 0) {
			return vm.monitorRange(0)
		}
	case '-':
		r = x - y
		if (x >= 0 && y < 0 && r < 0) || (x < 0 && y > 0 && r >= 0) {
			return vm.monitorRange(0)
		}
	case '*':
		r = x * y
		if x != 0 && (r/x != y || (x == -1 && y == marker)) {
			return vm.monitorRange(0)
		}
	case '/':
		if y == 0 {
			return vm.monitorDivide()
		}
		r = x / y
	case '%':
		if y == 0 {
			return vm.monitorDivide()
		}
		r = x % y
	default:
		return vm.monitorOperator(op)
	}
	if r == marker {
		return vm.monitorRange(0)
	}
	vm.put(r)
	return actEndFn
}

// argCell returns the first cell of argument n, or 0 if it is empty.
func (vm *VM) argCell(n int) int {
	x := vm.arg(n)
	if vm.load(x) < 2 {
		return 0
	}
	return vm.load(x + 1)
}
