package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/reflow/indent"
)

type vmDumper struct {
	vm  *VM
	out io.Writer

	addrWidth int
	rowWidth  int
}

const defaultDumpRowWidth = 8

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# GPM Dump\n")
	fmt.Fprintf(dump.out, "  %v\n", dump.vm.registers())
	dump.dumpEnv()
	dump.dumpCalls()
	dump.dumpMem()
}

// dumpEnv lists environment entries from most recent to oldest.
func (dump vmDumper) dumpEnv() {
	fmt.Fprintf(dump.out, "# Environment\n")
	seen := make(map[int]bool)
	for a := dump.vm.e; a != chainEnd; {
		if a < 0 || a >= dump.vm.s || seen[a] {
			fmt.Fprintf(dump.out, "  @%v INVALID\n", a)
			return
		}
		seen[a] = true

		var buf strings.Builder
		name := a + 1
		w := name + dump.vm.load(name)
		fmt.Fprintf(&buf, "@%v %s", a, dump.vm.render(name))
		switch m := dump.vm.meaningAt(w).(type) {
		case machineMacro:
			fmt.Fprintf(&buf, " <machine %v>", m)
		case textMacro:
			fmt.Fprintf(&buf, " = %q", dump.text(int(m)))
		}
		io.WriteString(dump.out, indent.String(buf.String(), 2))
		io.WriteString(dump.out, "\n")

		a = dump.vm.load(a)
	}
}

// text returns the replacement text starting at the length cell w, up to the
// terminating marker.
func (dump vmDumper) text(w int) string {
	var sb strings.Builder
	for i := w + 1; i < dump.vm.s; i++ {
		v := dump.vm.load(i)
		if v == marker {
			break
		}
		sb.WriteString(quoteCell(v))
	}
	return sb.String()
}

// dumpCalls lists calls in progress, innermost first.
func (dump vmDumper) dumpCalls() {
	fmt.Fprintf(dump.out, "# Calls\n")
	for p, f := dump.vm.p, dump.vm.f; p != 0 || f != 0; {
		var buf strings.Builder
		var x int
		if p > f {
			fmt.Fprintf(&buf, "@%v entered", p)
			x, p = p+2, dump.vm.load(p)
		} else {
			fmt.Fprintf(&buf, "@%v open", f)
			x, f = f+2, dump.vm.load(f)
		}
		for i := 0; i < maxMonitorItems && x < dump.vm.s; i++ {
			if i > 0 {
				buf.WriteString(" ,")
			}
			buf.WriteString(" ")
			buf.WriteString(strconv.Quote(dump.vm.render(x)))
			end, complete := dump.vm.itemEnd(x)
			if !complete {
				buf.WriteString("...")
				break
			}
			if x = end; dump.vm.load(x) == marker {
				break
			}
		}
		io.WriteString(dump.out, indent.String(buf.String(), 2))
		io.WriteString(dump.out, "\n")
	}
}

// dumpMem lists every cell below S, several to a row.
func (dump vmDumper) dumpMem() {
	fmt.Fprintf(dump.out, "# Memory\n")
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(dump.vm.s))
	}
	if dump.rowWidth == 0 {
		dump.rowWidth = defaultDumpRowWidth
	}
	var buf strings.Builder
	for addr := 0; addr < dump.vm.s; addr += dump.rowWidth {
		buf.Reset()
		fmt.Fprintf(&buf, "  @%-*v", dump.addrWidth, addr)
		for i := addr; i < addr+dump.rowWidth && i < dump.vm.s; i++ {
			buf.WriteByte(' ')
			buf.WriteString(dump.formatCell(dump.vm.load(i)))
		}
		buf.WriteByte('\n')
		io.WriteString(dump.out, buf.String())
	}
}

func (dump vmDumper) formatCell(v int) string {
	if v >= 0x21 && v < 0x7f {
		return strconv.QuoteRune(rune(v))
	}
	if v == marker {
		return quoteCell(v)
	}
	return strconv.Itoa(v)
}
