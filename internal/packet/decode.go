package packet

import (
	"github.com/danmuck/bitsctl/internal/bits"
)

// Limits constrains decode recursion.
type Limits struct {
	MaxDepth int
}

func DefaultLimits() Limits {
	return Limits{MaxDepth: 256}
}

// Decode reads one packet starting at offset and returns it with the offset
// immediately after its last bit.
func Decode(seq bits.Sequence, offset int) (Packet, int, error) {
	return DecodeWithLimits(seq, offset, DefaultLimits())
}

// DecodeWithLimits is Decode with caller-supplied limits.
func DecodeWithLimits(seq bits.Sequence, offset int, limits Limits) (Packet, int, error) {
	if limits.MaxDepth <= 0 {
		limits = DefaultLimits()
	}
	d := decoder{seq: seq, limits: limits}
	return d.packet(offset, 0)
}

// DecodeHex decodes the outermost packet of a hex transmission. Padding after
// that packet is not interpreted.
func DecodeHex(s string) (Packet, int, error) {
	seq, err := bits.FromHex(s)
	if err != nil {
		return nil, 0, err
	}
	return Decode(seq, 0)
}

type decoder struct {
	seq    bits.Sequence
	limits Limits
}

func (d *decoder) packet(offset, depth int) (Packet, int, error) {
	fail := func(err error) (Packet, int, error) {
		return nil, offset, &DecodeError{Offset: offset, Err: err}
	}
	if depth >= d.limits.MaxDepth {
		return fail(ErrTooDeep)
	}

	version, err := d.seq.Uint(offset, VersionBits)
	if err != nil {
		return fail(err)
	}
	typeID, err := d.seq.Uint(offset+VersionBits, TypeBits)
	if err != nil {
		return fail(err)
	}
	cursor := offset + HeaderBits

	if uint8(typeID) == TypeLiteral {
		value, next, err := d.literal(cursor)
		if err != nil {
			return fail(err)
		}
		return &Literal{Version: uint8(version), Value: value}, next, nil
	}

	flag, err := d.seq.Uint(cursor, LengthTypeBits)
	if err != nil {
		return fail(err)
	}
	cursor += LengthTypeBits

	op := &Operator{Version: uint8(version), TypeID: uint8(typeID), Length: LengthType(flag)}
	switch op.Length {
	case LengthBits:
		total, err := d.seq.Uint(cursor, TotalLengthBits)
		if err != nil {
			return fail(err)
		}
		cursor += TotalLengthBits
		if total == 0 {
			return fail(malformed("operator declares 0 sub-packet bits"))
		}
		start := cursor
		for cursor-start < int(total) {
			child, next, err := d.packet(cursor, depth+1)
			if err != nil {
				return nil, offset, wrapChild(err, len(op.Children))
			}
			op.Children = append(op.Children, child)
			cursor = next
		}
		if consumed := cursor - start; consumed != int(total) {
			return fail(malformed("sub-packets consumed %d bits, declared %d", consumed, total))
		}
	case LengthCount:
		count, err := d.seq.Uint(cursor, CountBits)
		if err != nil {
			return fail(err)
		}
		cursor += CountBits
		if count == 0 {
			return fail(malformed("operator declares 0 sub-packets"))
		}
		op.Children = make([]Packet, 0, count)
		for i := 0; i < int(count); i++ {
			child, next, err := d.packet(cursor, depth+1)
			if err != nil {
				return nil, offset, wrapChild(err, i)
			}
			op.Children = append(op.Children, child)
			cursor = next
		}
	}
	return op, cursor, nil
}

// literal reads 5-bit groups until one carries a clear continuation flag.
func (d *decoder) literal(cursor int) (uint64, int, error) {
	var value uint64
	for {
		group, err := d.seq.Uint(cursor, GroupBits)
		if err != nil {
			return 0, cursor, err
		}
		cursor += GroupBits
		if value>>60 != 0 {
			return 0, cursor, ErrLiteralOverflow
		}
		value = value<<4 | group&0x0F
		if group&0x10 == 0 {
			return value, cursor, nil
		}
	}
}
