package fileinput_test

import (
	"io"
	"strings"
	"testing"

	"github.com/jcorbin/gogpm/internal/byteio"
	"github.com/jcorbin/gogpm/internal/fileinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput(t *testing.T) {
	in := fileinput.Input{Queue: []io.Reader{
		byteio.NamedReader("a.gpm", strings.NewReader("ab\ncd")),
		byteio.NamedReader("b.gpm", strings.NewReader("")),
		byteio.NamedReader("c.gpm", strings.NewReader("e\n")),
	}}

	var got strings.Builder
	var locs []string
	for {
		locs = append(locs, in.Location().String())
		b, err := in.ReadByte()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got.WriteByte(b)
	}

	assert.Equal(t, "ab\ncde\n", got.String(), "expected concatenated streams")
	assert.Equal(t, []string{
		":0",
		"a.gpm:1", "a.gpm:1",
		"a.gpm:2", "a.gpm:2", "a.gpm:2",
		"c.gpm:1",
		"c.gpm:2",
	}, locs, "expected byte locations")
	assert.Equal(t, "c.gpm:1", in.Last.Location.String(), "expected last line location")
	assert.Equal(t, "e", in.Last.Buffer.String(), "expected last line content")
	assert.NoError(t, in.Close())
}
