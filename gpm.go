package main

import (
	"context"
	"fmt"
	"math"

	"github.com/jcorbin/gogpm/internal/byteio"
	"github.com/jcorbin/gogpm/internal/mem"
)

//// The machine

// VM implements the General Purpose Macrogenerator. All of its state lives in
// one memory of integer cells and a handful of registers; the memory is at
// once the stack of pending output, the stack of call frames, and the symbol
// table.
type VM struct {
	Core

	// Memory is a large array of ints.  When we speak of addresses, we
	// actually mean indices into memory.
	mem.Cells

	s int // first free cell; the top of the stack
	e int // head of the environment chain; chainEnd when empty
	q int // quote level; 1 when interpreting, higher while copying verbatim
	c int // next character address; 0 means read from the input stream
	h int // length cell of the item being accumulated; 0 means write output
	p int // frame of the macro currently being expanded; 0 at top level
	f int // frame of the innermost call not yet applied
	a int // the current character
	w int // scratch address, left at the last argument or name looked up

	itemWidth int
}

const (
	// marker terminates call frames and stored definitions; it collides with
	// no byte and no length.
	marker = math.MinInt

	// chainEnd is the back pointer of the oldest environment entry.
	chainEnd = -1
)

//// Memory layout

// An item is a length cell followed by that many cells less one: the length
// counts itself. While an item is still being accumulated its length cell
// holds 0, or an adjustment for any frames nested inside of it.

// A call frame starts out, when its "$" is read, as four cells:
//
//     [saved H] [saved F] [0] [0]
//                  ^F          ^H
//
// and is followed by its items, the first of which is the macro name. When
// the call is applied by ";" the header is rewritten in place:
//
//     [frame size] [saved P] [saved C] [name item] [arg items...] [marker]
//                     ^P
//
// so that the frame size covers every cell from the header through the marker.

// An environment entry is a back pointer, a name item, and the value:
//
//     [back] [name item] [value...] [marker]
//
// For a defined macro the value is its replacement text item; for a machine
// macro it is a single cell holding the negated machine macro number.

//// Dispatch

type action uint8

const (
	actNext  action = iota // read the next character and dispatch on it
	actCopy                // copy the current character
	actApply               // apply the innermost open call
	actEndFn               // collapse the frame of the macro being expanded
)

var actionNames = [...]string{"next", "copy", "apply", "endfn"}

func (act action) String() string {
	if int(act) < len(actionNames) {
		return actionNames[act]
	}
	return fmt.Sprintf("action(%d)", uint8(act))
}

func (vm *VM) exec(ctx context.Context) {
	if vm.logfn != nil {
		defer vm.withLogPrefix("	")()
	}

	for act := actNext; ; {
		act = vm.step(act)
		vm.haltif(ctx.Err())
	}
}

// step performs one action, returning the one that follows it. Handlers never
// call back into the dispatch loop; they hand off by returning an action.
func (vm *VM) step(act action) action {
	switch act {
	case actNext:
		vm.nextCh()
		if vm.logfn != nil {
			vm.logf(">", "%v %v", quoteCell(vm.a), vm.registers())
		}
		return vm.dispatch()
	case actCopy:
		return vm.copy()
	case actApply:
		vm.logf("+", "apply %v", vm.registers())
		return vm.apply()
	case actEndFn:
		vm.logf("-", "endfn %v", vm.registers())
		return vm.endFn()
	}
	vm.halt(actionError(act))
	return actNext
}

// nextCh reads the next character into A: from the input stream when C is 0,
// otherwise from memory at C, advancing C.
func (vm *VM) nextCh() {
	if vm.c == 0 {
		vm.a = vm.readByte()
	} else {
		vm.a = vm.load(vm.c)
		vm.c++
	}
}

// dispatch routes the character in A by its syntactic role.
func (vm *VM) dispatch() action {
	if vm.q > 1 {
		switch vm.a {
		case '<':
			vm.q++
		case '>':
			if vm.q--; vm.q == 1 {
				return actNext
			}
		case marker:
			// quotes never span the end of a replacement text
			vm.logf("#", "unclosed quote at end of macro")
			vm.q = 1
			return vm.endFn()
		}
		return vm.copy()
	}

	switch vm.a {
	case '<':
		vm.q++
		return actNext
	case '$':
		return vm.open()
	case ',':
		return vm.nextItem()
	case ';':
		return vm.apply()
	case '~':
		return vm.loadArg()
	case marker:
		return vm.endFn()
	case '>':
		return vm.exit()
	}
	return vm.copy()
}

// copy puts the current character into the accumulation target.
func (vm *VM) copy() action {
	vm.put(vm.a)
	return actNext
}

// put writes v to the output when no item is being accumulated, otherwise
// pushes it onto the stack as part of the current item.
func (vm *VM) put(v int) {
	if vm.h == 0 {
		vm.writeCell(v)
	} else {
		vm.push(v)
	}
}

func (vm *VM) push(v int) {
	vm.stor(vm.s, v)
	vm.s++
}

//// Warning character actions

// open starts a new call frame on "$".
func (vm *VM) open() action {
	vm.stor(vm.s, vm.h, vm.f, 0, 0)
	vm.h = vm.s + 3
	vm.f = vm.s + 1
	vm.s += 4
	return actNext
}

// nextItem closes the current item on ",", and starts the next one.
func (vm *VM) nextItem() action {
	if vm.h == 0 {
		return vm.copy()
	}
	vm.stor(vm.s, 0)
	vm.stor(vm.h, vm.s-vm.h-vm.load(vm.h))
	vm.h = vm.s
	vm.s++
	return actNext
}

// apply turns the innermost open frame into a call on ";": the frame header
// saves the caller's P and C, H and F return to their values from before the
// "$", and the name is looked up. Machine macros run immediately; defined
// macros are expanded by redirecting C into their replacement text.
func (vm *VM) apply() action {
	if vm.p > vm.f {
		return vm.monitor1()
	} else if vm.h == 0 {
		return vm.copy()
	}

	savedF, savedH := vm.load(vm.f), vm.load(vm.f-1)
	vm.stor(vm.f-1, vm.s-vm.f+2, vm.p, vm.c)
	vm.stor(vm.s, marker)
	vm.stor(vm.h, vm.s-vm.h)
	vm.s++
	vm.h = savedH
	vm.p = vm.f
	vm.f = savedF

	// the enclosing item will lose this frame once it collapses
	if vm.h != 0 {
		vm.stor(vm.h, vm.load(vm.h)+vm.load(vm.p-1))
	}

	w := vm.find(vm.p + 2)
	switch m := vm.meaningAt(w).(type) {
	case machineMacro:
		vm.logf("+", "machine %v", m)
		return m.run(vm)
	case textMacro:
		vm.c = int(m) + 1
	}
	return actNext
}

// loadArg copies an argument of the macro being expanded on "~n".
func (vm *VM) loadArg() action {
	if vm.p == 0 {
		if vm.h == 0 {
			return vm.copy()
		}
		return vm.monitor2()
	}
	vm.nextCh()
	n := vm.a - '0'
	if n < 0 || n > 9 {
		return vm.monitor3()
	}
	w := vm.arg(n)
	for r, end := 1, vm.load(w); r < end; r++ {
		vm.put(vm.load(w + r))
	}
	return actNext
}

// arg returns the address of the length cell of argument n of the macro
// being expanded; argument 0 is the macro name.
func (vm *VM) arg(n int) int {
	vm.w = vm.p + 2
	for i := 0; i < n; i++ {
		vm.w += vm.load(vm.w)
		if vm.load(vm.w) == marker {
			vm.monitor4(n)
		}
	}
	return vm.w
}

// endFn collapses the frame of the macro being expanded once its
// replacement text is done: any environment entries above the frame move
// down with the rest of the stack, any inside it are dropped, and the caller
// resumes reading where it left off.
func (vm *VM) endFn() action {
	if vm.f > vm.p {
		return vm.monitor5()
	}

	base := vm.p - 1
	size := vm.load(base)
	top := base + size

	// relocate entries above the frame; the chain is threaded through S so
	// that E is relocated along with the rest
	a := vm.s
	vm.stor(a, vm.e)
	for next := vm.load(a); next >= top; next = vm.load(a) {
		vm.stor(a, next-size)
		a = next
	}

	// unlink entries inside the frame
	w := vm.load(a)
	for w >= base {
		w = vm.load(w)
	}
	vm.stor(a, w)
	vm.e = vm.load(vm.s)

	if vm.h != 0 {
		if vm.h > vm.p {
			vm.h -= size
		} else {
			vm.stor(vm.h, vm.load(vm.h)-size)
		}
	}

	vm.c = vm.load(vm.p + 1)
	vm.p = vm.load(vm.p)
	vm.s -= size
	vm.move(base, top, vm.s-base)
	return actNext
}

// exit ends expansion on an unquoted ">", which is only proper at top level.
func (vm *VM) exit() action {
	if vm.c != 0 || vm.h != 0 {
		return vm.monitor8()
	}
	vm.halt(nil)
	return actNext
}

//// The environment

// find looks up the name item at x, returning the address of the value of the
// most recent entry with that name.
func (vm *VM) find(x int) int {
	vm.w = x
	n := vm.load(x)
	for a := vm.e; a != chainEnd; a = vm.load(a) {
		if vm.sameItem(x, a+1, n) {
			vm.w = a + 1 + n
			return vm.w
		}
	}
	return vm.monitor7()
}

func (vm *VM) sameItem(x, y, n int) bool {
	for r := 0; r < n; r++ {
		if vm.load(x+r) != vm.load(y+r) {
			return false
		}
	}
	return true
}

// meaning is what the value of an environment entry denotes.
type meaning interface{ isMeaning() }

// machineMacro numbers one of the builtin machine code macros.
type machineMacro int

// textMacro addresses the replacement text item of a defined macro.
type textMacro int

func (machineMacro) isMeaning() {}
func (textMacro) isMeaning()    {}

func (vm *VM) meaningAt(w int) meaning {
	if v := vm.load(w); v < 0 && v >= -numMachineMacros {
		return machineMacro(-v - 1)
	}
	return textMacro(w)
}

//// Memory access

func (vm *VM) load(addr int) int {
	val, err := vm.Cells.Load(addr)
	vm.haltif(err)
	return val
}

func (vm *VM) stor(addr int, values ...int) {
	vm.haltif(vm.Cells.Stor(addr, values...))
}

func (vm *VM) move(dst, src, n int) {
	vm.haltif(vm.Cells.Move(dst, src, n))
}

// init loads the machine macro definitions into the base of memory, unless
// memory has already been set up.
func (vm *VM) init() {
	if vm.s != 0 {
		return
	}
	vm.q = 1
	vm.e = chainEnd
	for id, mm := range machineMacros {
		at := vm.s
		vm.stor(at, vm.e, len(mm.name)+1)
		for i := 0; i < len(mm.name); i++ {
			vm.stor(at+2+i, int(mm.name[i]))
		}
		vm.stor(at+2+len(mm.name), -(id + 1))
		vm.e = at
		vm.s = at + 3 + len(mm.name)
	}
}

func (vm *VM) run(ctx context.Context) {
	vm.init()
	vm.exec(ctx)
}

func (vm *VM) registers() string {
	return fmt.Sprintf("S:%v E:%v Q:%v C:%v H:%v P:%v F:%v",
		vm.s, vm.e, vm.q, vm.c, vm.h, vm.p, vm.f)
}

func quoteCell(v int) string {
	if v == marker {
		return "<END>"
	}
	return byteio.QuoteCell(v)
}

type actionError action

func (act actionError) Error() string { return fmt.Sprintf("invalid action %v", action(act)) }
