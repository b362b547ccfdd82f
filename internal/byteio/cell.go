package byteio

import (
	"io"
	"strconv"
)

// WriteCell writes the low byte of a memory cell to w.
func WriteCell(w io.Writer, v int) error {
	if bw, ok := w.(io.ByteWriter); ok {
		return bw.WriteByte(byte(v))
	}
	_, err := w.Write([]byte{byte(v)})
	return err
}

// CaretForm computes the ^-escaped printable form of a C0 control byte, or
// DEL; it returns "" for any other byte.
func CaretForm(b byte) string {
	if b < 0x20 || b == 0x7f {
		return "^" + string(rune(b^0x40))
	}
	return ""
}

// QuoteCell renders a memory cell for humans: printable bytes as
// themselves, controls in caret form, high bytes in hex, and anything
// outside the byte range as a braced decimal.
func QuoteCell(v int) string {
	switch {
	case v < 0 || v > 0xff:
		return "{" + strconv.Itoa(v) + "}"
	case v >= 0x80:
		return `\x` + strconv.FormatInt(int64(v), 16)
	}
	if caret := CaretForm(byte(v)); caret != "" {
		return caret
	}
	return string(rune(v))
}
