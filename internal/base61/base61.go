// Package base61 implements a positional numeral encoding over the 61 symbols
// 1-9, A-Z and a-z. The digit zero is left out so identifiers cannot be
// misread; the first symbol ('1') therefore stands for the value 0.
package base61

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Alphabet lists the symbols in digit order.
const Alphabet = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Base is the radix of the encoding.
const Base = uint64(len(Alphabet))

var (
	ErrInvalidCharacter = errors.New("invalid base61 character")
	ErrEmptyInput       = errors.New("empty base61 input")
	ErrOverflow         = errors.New("base61 value overflows uint64")
)

var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = int8(i)
	}
	return t
}()

// Encode returns the base61 form of n. Encode(0) is "1".
func Encode(n uint64) string {
	if n == 0 {
		return Alphabet[:1]
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = Alphabet[n%Base]
		n /= Base
	}
	return string(buf[i:])
}

// Decode parses s back into an integer.
func Decode(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmptyInput
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d := decodeTable[s[i]]
		if d < 0 {
			return 0, fmt.Errorf("%w %q at position %d", ErrInvalidCharacter, s[i], i)
		}
		if n > (math.MaxUint64-uint64(d))/Base {
			return 0, ErrOverflow
		}
		n = n*Base + uint64(d)
	}
	return n, nil
}

// Valid reports whether every character of s belongs to the alphabet.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
