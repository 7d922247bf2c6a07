package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhoneHash(t *testing.T) {
	t.Run("accepts hex string", func(t *testing.T) {
		p, err := ParsePhoneHash("00a1b2c3")
		require.NoError(t, err)
		assert.Equal(t, "00a1b2c3", p.String())
	})

	t.Run("strips 0x prefix and lowercases", func(t *testing.T) {
		p, err := ParsePhoneHash("0x00A1B2C3")
		require.NoError(t, err)
		assert.Equal(t, "00a1b2c3", p.String())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParsePhoneHash("")
		require.Error(t, err)
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := ParsePhoneHash("not-hex")
		require.Error(t, err)
	})
}

func TestNewPhoneHash(t *testing.T) {
	p := NewPhoneHash([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Equal(t, "deadbeef", p.String())
	assert.False(t, p.IsZero())
	assert.True(t, PhoneHash("").IsZero())
}
