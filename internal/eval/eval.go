// Package eval computes results over decoded packet trees.
package eval

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/danmuck/bitsctl/internal/packet"
)

// ErrOverflow reports a value outside the int64 range. Results are never
// wrapped.
var ErrOverflow = errors.New("eval: int64 overflow")

// VersionSum adds the version field of every packet in the tree.
func VersionSum(p packet.Packet) uint64 {
	switch p := p.(type) {
	case *packet.Literal:
		return uint64(p.Version)
	case *packet.Operator:
		sum := uint64(p.Version)
		for _, child := range p.Children {
			sum += VersionSum(child)
		}
		return sum
	}
	return 0
}

// Evaluate computes the expression value of the tree.
func Evaluate(p packet.Packet) (int64, error) {
	switch p := p.(type) {
	case *packet.Literal:
		if p.Value > math.MaxInt64 {
			return 0, fmt.Errorf("%w: literal %d", ErrOverflow, p.Value)
		}
		return int64(p.Value), nil
	case *packet.Operator:
		return evaluateOperator(p)
	case nil:
		return 0, fmt.Errorf("%w: nil packet", packet.ErrMalformedPacket)
	}
	return 0, fmt.Errorf("%w: unsupported packet %T", packet.ErrMalformedPacket, p)
}

func evaluateOperator(p *packet.Operator) (int64, error) {
	if len(p.Children) == 0 {
		return 0, fmt.Errorf("%w: %s operator has no sub-packets", packet.ErrMalformedPacket, packet.TypeName(p.TypeID))
	}
	if packet.IsRelational(p.TypeID) && len(p.Children) != 2 {
		return 0, fmt.Errorf("%w: %s operator needs 2 sub-packets, has %d",
			packet.ErrMalformedPacket, packet.TypeName(p.TypeID), len(p.Children))
	}

	values := make([]int64, len(p.Children))
	for i, child := range p.Children {
		v, err := Evaluate(child)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}

	switch p.TypeID {
	case packet.TypeSum:
		var acc int64
		for _, v := range values {
			next, ok := add(acc, v)
			if !ok {
				return 0, fmt.Errorf("%w: sum", ErrOverflow)
			}
			acc = next
		}
		return acc, nil
	case packet.TypeProduct:
		acc := int64(1)
		for _, v := range values {
			next, ok := mul(acc, v)
			if !ok {
				return 0, fmt.Errorf("%w: product", ErrOverflow)
			}
			acc = next
		}
		return acc, nil
	case packet.TypeMinimum:
		return slices.Min(values), nil
	case packet.TypeMaximum:
		return slices.Max(values), nil
	case packet.TypeGreater:
		return boolValue(values[0] > values[1]), nil
	case packet.TypeLess:
		return boolValue(values[0] < values[1]), nil
	case packet.TypeEqual:
		return boolValue(values[0] == values[1]), nil
	}
	return 0, fmt.Errorf("%w: operator type %d", packet.ErrMalformedPacket, p.TypeID)
}

// VersionSumHex decodes a transmission and sums its versions.
func VersionSumHex(s string) (uint64, error) {
	p, _, err := packet.DecodeHex(s)
	if err != nil {
		return 0, err
	}
	return VersionSum(p), nil
}

// EvaluateHex decodes a transmission and evaluates it.
func EvaluateHex(s string) (int64, error) {
	p, _, err := packet.DecodeHex(s)
	if err != nil {
		return 0, err
	}
	return Evaluate(p)
}

func add(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

func boolValue(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
