// Package bits turns hexadecimal transmissions into addressable bit sequences.
//
// Bits are packed MSB-first: bit 0 of a sequence is the most significant bit
// of its first byte.
package bits

import (
	"errors"
	"fmt"
	"strings"
)

// MaxWidth is the widest field Uint can read in one call.
const MaxWidth = 64

var (
	ErrInvalidHex = errors.New("bits: invalid hex digit")
	ErrTruncated  = errors.New("bits: truncated data")
	ErrWidth      = errors.New("bits: invalid field width")
)

// Sequence is an immutable, finite run of bits.
type Sequence struct {
	buf []byte
	n   int
}

// FromHex expands each hex digit of s into four bits, most significant first.
// Surrounding whitespace is trimmed before conversion.
func FromHex(s string) (Sequence, error) {
	s = strings.TrimSpace(s)
	var w Writer
	w.grow(len(s) * 4)
	for i := 0; i < len(s); i++ {
		nib, ok := nibble(s[i])
		if !ok {
			return Sequence{}, fmt.Errorf("%w %q at index %d", ErrInvalidHex, s[i], i)
		}
		w.WriteUint(uint64(nib), 4)
	}
	return w.Sequence(), nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// Len returns the number of bits in the sequence.
func (s Sequence) Len() int {
	return s.n
}

// Bit returns bit i. It panics if i is out of range.
func (s Sequence) Bit(i int) bool {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("bits: index %d out of range [0,%d)", i, s.n))
	}
	return s.buf[i/8]&(0x80>>(i%8)) != 0
}

// Uint reads width bits starting at off as an unsigned big-endian integer.
func (s Sequence) Uint(off, width int) (uint64, error) {
	if width < 0 || width > MaxWidth {
		return 0, fmt.Errorf("%w: %d", ErrWidth, width)
	}
	if off < 0 || off+width > s.n {
		return 0, fmt.Errorf("%w: need %d bits at offset %d, have %d", ErrTruncated, width, off, s.n)
	}
	var v uint64
	for i := off; i < off+width; i++ {
		v <<= 1
		if s.buf[i/8]&(0x80>>(i%8)) != 0 {
			v |= 1
		}
	}
	return v, nil
}

// String renders the sequence as '0' and '1' characters.
func (s Sequence) String() string {
	var sb strings.Builder
	sb.Grow(s.n)
	for i := 0; i < s.n; i++ {
		if s.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Hex renders the sequence as uppercase hex, zero-padding the final digit.
func (s Sequence) Hex() string {
	const digits = "0123456789ABCDEF"
	n := (s.n + 3) / 4
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := s.buf[i/2]
		if i%2 == 0 {
			b >>= 4
		}
		out[i] = digits[b&0x0F]
	}
	return string(out)
}

// Writer accumulates bits into a Sequence. The zero value is ready to use.
type Writer struct {
	buf []byte
	n   int
}

func (w *Writer) grow(bitsHint int) {
	if need := (bitsHint + 7) / 8; cap(w.buf) < need {
		buf := make([]byte, len(w.buf), need)
		copy(buf, w.buf)
		w.buf = buf
	}
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(bit bool) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if bit {
		w.buf[len(w.buf)-1] |= 0x80 >> (w.n % 8)
	}
	w.n++
}

// WriteUint appends the low width bits of v, most significant first.
// It panics if width exceeds MaxWidth.
func (w *Writer) WriteUint(v uint64, width int) {
	if width < 0 || width > MaxWidth {
		panic(fmt.Sprintf("bits: invalid write width %d", width))
	}
	for i := width - 1; i >= 0; i-- {
		w.WriteBit((v>>uint(i))&1 == 1)
	}
}

// WriteSequence appends every bit of seq.
func (w *Writer) WriteSequence(seq Sequence) {
	w.grow(w.n + seq.n)
	for i := 0; i < seq.n; i++ {
		w.WriteBit(seq.Bit(i))
	}
}

// Len returns the number of bits written so far.
func (w *Writer) Len() int {
	return w.n
}

// Sequence returns a snapshot of the written bits.
func (w *Writer) Sequence() Sequence {
	buf := make([]byte, len(w.buf))
	copy(buf, w.buf)
	return Sequence{buf: buf, n: w.n}
}

// ParseBinary builds a sequence from '0' and '1' characters.
func ParseBinary(s string) (Sequence, error) {
	s = strings.TrimSpace(s)
	var w Writer
	w.grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			w.WriteBit(false)
		case '1':
			w.WriteBit(true)
		default:
			return Sequence{}, fmt.Errorf("bits: invalid binary digit %q at index %d", s[i], i)
		}
	}
	return w.Sequence(), nil
}
