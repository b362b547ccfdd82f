package fileinput

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jcorbin/gogpm/internal/byteio"
)

// Location names an a line in an Input file.
type Location struct {
	Name string
	Line int
}

// Line combines a Location along with a bytes.Buffer for handling it.
type Line struct {
	Location
	bytes.Buffer
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }
func (il Line) String() string      { return fmt.Sprintf("%v %q", il.Location, il.Buffer.String()) }

// Input implements sequential byte reading through a Queue of one or more
// input streams, presenting them as one stream. Both the current and last
// scanned lines are tracked to facilitate user feedback.
type Input struct {
	cur   io.Reader
	br    io.ByteReader
	Queue []io.Reader
	Last  Line
	Scan  Line
}

// ReadByte reads one byte from the current input stream, appending it into
// the current Scan line, and rolling Scan over to Last after line feed.
// Returns io.EOF only once every queued stream is exhausted.
func (in *Input) ReadByte() (byte, error) {
	for {
		if in.br == nil && !in.nextIn() {
			return 0, io.EOF
		}
		b, err := in.br.ReadByte()
		if err == nil {
			if b == '\n' {
				in.nextLine()
			} else {
				in.Scan.WriteByte(b)
			}
			return b, nil
		}
		if err != io.EOF {
			return 0, err
		}
		in.closeIn()
	}
}

// Location returns the location of the line currently being scanned.
func (in *Input) Location() Location {
	return in.Scan.Location
}

func (in *Input) nextLine() {
	in.Last.Reset()
	in.Last.Name = in.Scan.Name
	in.Last.Line = in.Scan.Line
	in.Last.Write(in.Scan.Bytes())
	in.Scan.Reset()
	in.Scan.Line++
}

func (in *Input) closeIn() {
	if in.Scan.Len() > 0 {
		in.nextLine()
	}
	if cl, ok := in.cur.(io.Closer); ok {
		cl.Close()
	}
	in.cur, in.br = nil, nil
}

func (in *Input) nextIn() bool {
	if len(in.Queue) > 0 {
		r := in.Queue[0]
		in.Queue = in.Queue[1:]
		in.cur = r
		in.br = byteio.NewReader(r)
		in.Scan.Reset()
		in.Scan.Name = nameOf(r)
		in.Scan.Line = 1
	}
	return in.br != nil
}

// Close closes any remaining queued streams that implement io.Closer.
func (in *Input) Close() (err error) {
	if in.br != nil {
		in.closeIn()
	}
	for _, r := range in.Queue {
		if cl, ok := r.(io.Closer); ok {
			if cerr := cl.Close(); err == nil {
				err = cerr
			}
		}
	}
	in.Queue = nil
	return err
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
