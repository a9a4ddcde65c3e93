package packet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/bitsctl/internal/bits"
)

var (
	ErrInvalidInput    = bits.ErrInvalidHex
	ErrTruncatedStream = bits.ErrTruncated
	ErrMalformedPacket = errors.New("packet: malformed packet")
	ErrLiteralOverflow = errors.New("packet: literal exceeds 64 bits")
	ErrTooDeep         = errors.New("packet: nesting too deep")
)

// DecodeError locates a decode failure in the bit stream and the packet tree.
type DecodeError struct {
	Offset int   // bit offset of the packet being decoded
	Path   []int // child indices from the outermost packet
	Err    error
}

func (e *DecodeError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("decode at bit %d: %v", e.Offset, e.Err)
	}
	parts := make([]string, len(e.Path))
	for i, idx := range e.Path {
		parts[i] = strconv.Itoa(idx)
	}
	return fmt.Sprintf("decode at bit %d (child %s): %v", e.Offset, strings.Join(parts, "."), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wrapChild prefixes a child's failure with its index in the parent.
func wrapChild(err error, index int) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{
			Offset: de.Offset,
			Path:   append([]int{index}, de.Path...),
			Err:    de.Err,
		}
	}
	return err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPacket, fmt.Sprintf(format, args...))
}
