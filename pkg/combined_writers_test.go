package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type failingWriter struct {
	err error
}

func (fw failingWriter) Write([]byte) (int, error) {
	return 0, fw.err
}

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb1.WriteString("already-here|")
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	for _, msg := range []string{"level up", "|sync done"} {
		n, err := cw.Write([]byte(msg))
		require.NoError(t, err)
		assert.Equal(t, len(msg), n)
	}

	assert.Equal(t, "already-here|level up|sync done", sb1.String())
	assert.Equal(t, "level up|sync done", sb2.String())
}

func TestCombinedWriter_Write_WithError(t *testing.T) {
	diskFull := errors.New("disk full")
	sb := &strings.Builder{}

	n, err := NewCombinedWriter(failingWriter{err: diskFull}, sb).Write([]byte("msg"))
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 3, n)
	assert.Equal(t, "msg", sb.String())

	closed := errors.New("closed")
	n, err = NewCombinedWriter(failingWriter{err: diskFull}, failingWriter{err: closed}).Write([]byte("msg"))
	assert.Equal(t, 0, n)
	assert.Len(t, multierr.Errors(err), 2)
}
