package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, sb2)
	require.NotNil(t, cw)
	assert.Len(t, cw.Writers, 2)

	msg := "a log line"
	n, err := cw.Write([]byte(msg))
	require.NoError(t, err)
	assert.Equal(t, 2*len(msg), n)
	assert.Equal(t, msg, sb1.String())
	assert.Equal(t, msg, sb2.String())

	msg2 := ", and another"
	_, err = cw.Write([]byte(msg2))
	require.NoError(t, err)
	assert.Equal(t, msg+msg2, sb1.String())
	assert.Equal(t, msg+msg2, sb2.String())
}
