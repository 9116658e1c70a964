package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := NewRegistry()

	a, err := reg.Register("interactive", 200)
	require.NoError(t, err)
	require.Equal(t, "interactive", a.Name())
	require.Equal(t, uint32(200), a.Shares())

	b, err := reg.Register("background", 50)
	require.NoError(t, err)
	require.NotEqual(t, a.ID(), b.ID())

	assert.Same(t, a, reg.Lookup("interactive"))
	assert.Same(t, b, reg.Lookup("background"))
	assert.Nil(t, reg.Lookup("missing"))
}

func TestRegisterDuplicateName(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Register("a", 100)
	require.NoError(t, err)

	_, err = reg.Register("a", 100)
	require.Error(t, err)
}

func TestRegisterZeroShares(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Register("a", 0)
	require.Error(t, err)
}
