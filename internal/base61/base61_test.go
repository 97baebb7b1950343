package base61

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet(t *testing.T) {
	require.Len(t, Alphabet, 61)
	assert.NotContains(t, Alphabet, "0")
	seen := map[rune]bool{}
	for _, r := range Alphabet {
		assert.False(t, seen[r], "duplicate symbol %q", r)
		seen[r] = true
	}
}

func TestEncode_Known(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "1"},
		{1, "2"},
		{8, "9"},
		{9, "A"},
		{35, "a"},
		{60, "z"},
		{61, "21"},
		{61*61 - 1, "zz"},
		{61 * 61, "211"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Encode(tt.n), "Encode(%d)", tt.n)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 60, 61, 62, 3721, 1_700_000_000_000, math.MaxUint32, math.MaxUint64}
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		values = append(values, r.Uint64())
	}
	for _, n := range values {
		got, err := Decode(Encode(n))
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestDecode_InvalidCharacter(t *testing.T) {
	for _, s := range []string{"0", "12-3", "abc!", "A B", "é"} {
		_, err := Decode(s)
		require.Error(t, err, s)
		assert.True(t, errors.Is(err, ErrInvalidCharacter), "%q: %v", s, err)
	}
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestDecode_Overflow(t *testing.T) {
	_, err := Decode(Encode(math.MaxUint64) + "2")
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDecode_LeadingZeroSymbols(t *testing.T) {
	got, err := Decode("112")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("Zz9"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("a0"))
}
