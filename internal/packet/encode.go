package packet

import (
	"fmt"

	"github.com/danmuck/bitsctl/internal/bits"
)

// Encode writes p using the same framing rules Decode reads.
func Encode(p Packet) (bits.Sequence, error) {
	var w bits.Writer
	if err := encodeInto(&w, p); err != nil {
		return bits.Sequence{}, err
	}
	return w.Sequence(), nil
}

// EncodeHex is Encode rendered as an uppercase transmission.
func EncodeHex(p Packet) (string, error) {
	seq, err := Encode(p)
	if err != nil {
		return "", err
	}
	return seq.Hex(), nil
}

func encodeInto(w *bits.Writer, p Packet) error {
	switch p := p.(type) {
	case *Literal:
		if p.Version > 7 {
			return malformed("version %d out of range", p.Version)
		}
		w.WriteUint(uint64(p.Version), VersionBits)
		w.WriteUint(uint64(TypeLiteral), TypeBits)
		writeLiteral(w, p.Value)
		return nil
	case *Operator:
		return encodeOperator(w, p)
	case nil:
		return malformed("nil packet")
	default:
		return fmt.Errorf("packet: unsupported packet %T", p)
	}
}

func encodeOperator(w *bits.Writer, p *Operator) error {
	if p.Version > 7 || p.TypeID > 7 || p.TypeID == TypeLiteral {
		return malformed("operator header v=%d type=%d out of range", p.Version, p.TypeID)
	}
	if len(p.Children) == 0 {
		return malformed("operator has no sub-packets")
	}
	w.WriteUint(uint64(p.Version), VersionBits)
	w.WriteUint(uint64(p.TypeID), TypeBits)

	switch p.Length {
	case LengthBits:
		var body bits.Writer
		for _, child := range p.Children {
			if err := encodeInto(&body, child); err != nil {
				return err
			}
		}
		if body.Len() >= 1<<TotalLengthBits {
			return malformed("sub-packets span %d bits, limit %d", body.Len(), 1<<TotalLengthBits-1)
		}
		w.WriteUint(uint64(LengthBits), LengthTypeBits)
		w.WriteUint(uint64(body.Len()), TotalLengthBits)
		w.WriteSequence(body.Sequence())
	case LengthCount:
		if len(p.Children) >= 1<<CountBits {
			return malformed("%d sub-packets, limit %d", len(p.Children), 1<<CountBits-1)
		}
		w.WriteUint(uint64(LengthCount), LengthTypeBits)
		w.WriteUint(uint64(len(p.Children)), CountBits)
		for _, child := range p.Children {
			if err := encodeInto(w, child); err != nil {
				return err
			}
		}
	default:
		return malformed("unknown length type %d", p.Length)
	}
	return nil
}

// writeLiteral emits the fewest 5-bit groups that hold v, at least one.
func writeLiteral(w *bits.Writer, v uint64) {
	groups := 1
	for rest := v >> 4; rest != 0; rest >>= 4 {
		groups++
	}
	for i := groups - 1; i >= 0; i-- {
		w.WriteBit(i > 0)
		w.WriteUint((v>>(4*uint(i)))&0x0F, 4)
	}
}
