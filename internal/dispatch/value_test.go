package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/spring/internal/errors"
)

func TestValueString(t *testing.T) {
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "eth0", String("eth0").String())
	assert.Equal(t, "", Nil.String())
	assert.Equal(t, "", List(nil).String())
}

func TestParseArg(t *testing.T) {
	v, err := parseArg("0x10", TypeInt)
	require.NoError(t, err)
	assert.Equal(t, Int(16), v)

	v, err = parseArg("-3", TypeInt)
	require.NoError(t, err)
	assert.Equal(t, Int(-3), v)

	v, err = parseArg("10", TypeString)
	require.NoError(t, err)
	assert.Equal(t, String("10"), v)

	_, err = parseArg("x", TypeInt)
	assert.True(t, errors.IsKind(err, errors.KindArgument))

	_, err = parseArg("x", TypeList)
	assert.True(t, errors.IsKind(err, errors.KindArgument))
}
