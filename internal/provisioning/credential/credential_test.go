package credential

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	gen, err := New("BANK", nil)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		cred, err := gen.Generate()
		require.NoError(t, err)

		assert.Len(t, cred, 11)
		assert.True(t, strings.HasPrefix(cred, "BANK"))
		assert.Contains(t, symbols, string(cred[4]))
		for _, c := range cred[5:] {
			assert.Contains(t, alphanumeric, string(c))
		}
	}
}

func TestGenerateDeterministicSource(t *testing.T) {
	gen, err := New("BANK", bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, err)

	cred, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "BANK!AAAAAA", cred)
}

func TestNewRejectsBadPrefix(t *testing.T) {
	_, err := New("BK", nil)
	require.Error(t, err)

	_, err = New("TOOLONG", nil)
	require.Error(t, err)
}

func TestGenerateFailsOnExhaustedSource(t *testing.T) {
	gen, err := New("BANK", bytes.NewReader([]byte{1, 2}))
	require.NoError(t, err)

	_, err = gen.Generate()
	require.Error(t, err)
}
