package packet

import "fmt"

// Type IDs from the packet header.
const (
	TypeSum     uint8 = 0
	TypeProduct uint8 = 1
	TypeMinimum uint8 = 2
	TypeMaximum uint8 = 3
	TypeLiteral uint8 = 4
	TypeGreater uint8 = 5
	TypeLess    uint8 = 6
	TypeEqual   uint8 = 7
)

// Header field widths in bits.
const (
	VersionBits     = 3
	TypeBits        = 3
	HeaderBits      = VersionBits + TypeBits
	GroupBits       = 5
	LengthTypeBits  = 1
	TotalLengthBits = 15
	CountBits       = 11
)

// LengthType selects how an operator frames its sub-packets.
type LengthType uint8

const (
	LengthBits  LengthType = 0 // 15-bit total length of sub-packets
	LengthCount LengthType = 1 // 11-bit number of sub-packets
)

func (l LengthType) String() string {
	switch l {
	case LengthBits:
		return "bits"
	case LengthCount:
		return "count"
	}
	return fmt.Sprintf("length(%d)", uint8(l))
}

// TypeName returns a readable name for a type ID.
func TypeName(typeID uint8) string {
	switch typeID {
	case TypeSum:
		return "sum"
	case TypeProduct:
		return "product"
	case TypeMinimum:
		return "minimum"
	case TypeMaximum:
		return "maximum"
	case TypeLiteral:
		return "literal"
	case TypeGreater:
		return "greater"
	case TypeLess:
		return "less"
	case TypeEqual:
		return "equal"
	}
	return fmt.Sprintf("type(%d)", typeID)
}

// IsRelational reports whether typeID compares exactly two operands.
func IsRelational(typeID uint8) bool {
	return typeID == TypeGreater || typeID == TypeLess || typeID == TypeEqual
}

// Packet is one decoded node: *Literal or *Operator.
type Packet interface {
	PacketVersion() uint8
	PacketType() uint8
	isPacket()
}

// Literal is a leaf carrying a single number.
type Literal struct {
	Version uint8
	Value   uint64
}

// Operator is an interior node over ordered children.
type Operator struct {
	Version  uint8
	TypeID   uint8
	Length   LengthType
	Children []Packet
}

func (p *Literal) PacketVersion() uint8  { return p.Version }
func (p *Operator) PacketVersion() uint8 { return p.Version }
func (p *Literal) PacketType() uint8     { return TypeLiteral }
func (p *Operator) PacketType() uint8    { return p.TypeID }
func (*Literal) isPacket()               {}
func (*Operator) isPacket()              {}
