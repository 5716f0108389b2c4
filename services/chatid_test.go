package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChatID(t *testing.T) {
	cases := map[string]string{
		"42":             "42",
		" 42 ":           "42",
		"+042":           "42",
		"-1001234567890": "-1001234567890",
	}
	for in, want := range cases {
		got, err := NormalizeChatID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeChatIDRejectsNonIntegers(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12.5", "99999999999999999999"} {
		_, err := NormalizeChatID(in)
		assert.ErrorIs(t, err, ErrMalformedInput, in)
	}
}

func TestChatIDFromIntMatchesNormalized(t *testing.T) {
	id, err := NormalizeChatID("-00077")
	require.NoError(t, err)
	assert.Equal(t, ChatIDFromInt(-77), id)
}
