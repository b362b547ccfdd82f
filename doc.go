/* Package main: GPM -- the General Purpose Macrogenerator

GPM is a macro processor in the form Strachey gave it: a small machine that
reads text a byte at a time, copying it to output, except where the text
calls a macro. A call's result is read again as input, so macros may expand
into further calls, definitions, or even calls of DEF that define new
macros. Expansion goes on until only plain text remains.

Notation

A call is written $NAME,arg1,arg2,...; -- the name and each argument are
themselves read as text, so they may contain further calls, which complete
before the outer one does. Within the text of a macro, ~n stands for its n-th
argument, with ~0 standing for the name it was called by.

Text between < and > is copied without being interpreted, less the outer
pair of quotes; quotes nest. An unquoted > outside of any call ends the run.

Definitions are made by calling the machine macro DEF:

	$DEF,GREET,<hello ~1>;
	$GREET,world;>

expands to "hello world". Quoting the body keeps ~1 from being read while
DEF's own arguments are being collected.

Machine

All state lives in one array of integer cells, which serves at once as the
stack for collecting calls, the stack of macros being executed, and the
table of definitions. A handful of registers index into it:

	S  the first free cell
	E  the most recent definition; each one links back to the one before
	Q  the quote depth; 1 when interpreting
	C  where the next byte comes from; 0 for the input stream
	H  the length cell of the item being collected; 0 when output is due
	P  the call frame of the macro being executed; 0 at top level
	F  the innermost call frame still collecting arguments

Names are looked up by walking the chain from E, so a later definition hides
an earlier one of the same name. Definitions made while collecting a call's
arguments go away when that call ends; those made by a macro's own text are
kept, and moved down into the space its call frame occupied.

Machine macros

	DEF     ~1 name, ~2 text: define a macro
	VAL     ~1 name: the text of a macro, without expanding it
	UPDATE  ~1 name, ~2 text: overwrite a macro's text, which must fit
	BIN     ~1 decimal number: convert to a single binary cell
	DEC     ~1 binary cell: convert to decimal text
	BAR     ~1 operator of + - * / %, ~2 and ~3 binary cells: arithmetic

Since BIN and BAR produce cells rather than text, they are meant to be used
in the arguments of DEC, BAR, or UPDATE:

	$DEC,$BAR,+,$BIN,7;,$BIN,2;;;

Binary values are Go ints, less the one value reserved to end texts and
frames: BIN of a number with a magnitude past math.MaxInt, and BAR
arithmetic that overflows, are reported by the monitor.

Any arguments given to DEF past the text are joined to it, commas included,
so that $DEF,A,x,y; defines A as "x,y".

Monitor

Misuse of the notation is reported by the monitor, on the output stream
unless a separate one is given. Some conditions are recovered from: an
unmatched ; or an unquoted ~ is copied through as text, and a call left open
at the end of a macro is given its missing semicolon. The rest print the
calls in progress, and halt the machine with an error.

*/
package main
