package packet

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/danmuck/bitsctl/internal/bits"
	"github.com/google/go-cmp/cmp"
)

func lit(version uint8, value uint64) *Literal {
	return &Literal{Version: version, Value: value}
}

func op(version, typeID uint8, length LengthType, children ...Packet) *Operator {
	return &Operator{Version: version, TypeID: typeID, Length: length, Children: children}
}

func mustBinary(t *testing.T, s string) bits.Sequence {
	t.Helper()
	seq, err := bits.ParseBinary(s)
	if err != nil {
		t.Fatalf("parse binary: %v", err)
	}
	return seq
}

func TestDecodeLiteral(t *testing.T) {
	p, next, err := DecodeHex("D2FE28")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(Packet(lit(6, 2021)), p); diff != "" {
		t.Fatalf("packet mismatch (-want +got):\n%s", diff)
	}
	if next != 21 {
		t.Fatalf("expected 21 bits consumed, got %d", next)
	}
}

func TestDecodeOperatorBitLength(t *testing.T) {
	seq := mustBinary(t, "00111000000000000110111101000101001010010001001000000000")
	p, next, err := Decode(seq, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := op(1, TypeLess, LengthBits, lit(6, 10), lit(2, 20))
	if diff := cmp.Diff(Packet(want), p); diff != "" {
		t.Fatalf("packet mismatch (-want +got):\n%s", diff)
	}
	if next != 49 {
		t.Fatalf("expected 49 bits consumed, got %d", next)
	}
}

func TestDecodeOperatorCount(t *testing.T) {
	seq := mustBinary(t, "11101110000000001101010000001100100000100011000001100000")
	p, next, err := Decode(seq, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := op(7, TypeMaximum, LengthCount, lit(2, 1), lit(4, 2), lit(1, 3))
	if diff := cmp.Diff(Packet(want), p); diff != "" {
		t.Fatalf("packet mismatch (-want +got):\n%s", diff)
	}
	if next != 51 {
		t.Fatalf("expected 51 bits consumed, got %d", next)
	}
}

func TestDecodeNestedTree(t *testing.T) {
	p, next, err := DecodeHex("620080001611562C8802118E34")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := op(3, TypeSum, LengthCount,
		op(0, TypeSum, LengthBits, lit(0, 10), lit(5, 11)),
		op(1, TypeSum, LengthCount, lit(0, 12), lit(3, 13)),
	)
	if diff := cmp.Diff(Packet(want), p); diff != "" {
		t.Fatalf("packet mismatch (-want +got):\n%s", diff)
	}
	if next != 102 {
		t.Fatalf("expected 102 bits consumed, got %d", next)
	}
}

func TestDecodeAtOffsetIsIndependent(t *testing.T) {
	seq := mustBinary(t, "00111000000000000110111101000101001010010001001000000000")
	// header(6) + length type(1) + total length(15)
	p, next, err := Decode(seq, 22)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(Packet(lit(6, 10)), p); diff != "" {
		t.Fatalf("packet mismatch (-want +got):\n%s", diff)
	}
	if next != 33 {
		t.Fatalf("expected offset 33, got %d", next)
	}
	p, next, err = Decode(seq, next)
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if diff := cmp.Diff(Packet(lit(2, 20)), p); diff != "" {
		t.Fatalf("packet mismatch (-want +got):\n%s", diff)
	}
	if next != 49 {
		t.Fatalf("expected offset 49, got %d", next)
	}
}

func TestDecodeConsumesExactlyTheEncodedBits(t *testing.T) {
	vectors := []string{
		"D2FE28",
		"38006F45291200",
		"EE00D40C823060",
		"8A004A801A8002F478",
		"620080001611562C8802118E34",
		"C0015000016115A2E0802F182340",
		"A0016C880162017C3686B18A3D4780",
		"C200B40A82",
		"04005AC33890",
		"880086C3E88112",
		"CE00C43D881120",
		"D8005AC2A8F0",
		"F600BC2D8F",
		"9C005AC2F8F0",
		"9C0141080250320F1802104A08",
	}
	for _, hex := range vectors {
		seq, err := bits.FromHex(hex)
		if err != nil {
			t.Fatalf("%s: from hex: %v", hex, err)
		}
		p, next, err := Decode(seq, 0)
		if err != nil {
			t.Fatalf("%s: decode: %v", hex, err)
		}
		enc, err := Encode(p)
		if err != nil {
			t.Fatalf("%s: encode: %v", hex, err)
		}
		if enc.Len() != next {
			t.Fatalf("%s: decode consumed %d bits, encoding spans %d", hex, next, enc.Len())
		}
		if !strings.HasPrefix(seq.String(), enc.String()) {
			t.Fatalf("%s: re-encoded bits differ:\n got %s\nfrom %s", hex, enc.String(), seq.String())
		}
		if trailing := seq.String()[next:]; strings.Contains(trailing, "1") {
			t.Fatalf("%s: unexpected set bits in padding %q", hex, trailing)
		}
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 15, 16, 255, 2021, 1 << 32, 1<<60 - 1, 1 << 60, math.MaxInt64, math.MaxUint64}
	for _, v := range values {
		seq, err := Encode(lit(5, v))
		if err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}
		p, next, err := Decode(seq, 0)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		got, ok := p.(*Literal)
		if !ok {
			t.Fatalf("expected literal for %d, got %T", v, p)
		}
		if got.Value != v || got.Version != 5 {
			t.Fatalf("round trip mismatch: got=%+v want value=%d", got, v)
		}
		if next != seq.Len() || (next-HeaderBits)%GroupBits != 0 {
			t.Fatalf("value %d: consumed %d of %d bits", v, next, seq.Len())
		}
	}
}

func writeLiteralGroups(w *bits.Writer, nibbles ...uint64) {
	w.WriteUint(0, VersionBits)
	w.WriteUint(uint64(TypeLiteral), TypeBits)
	for i, n := range nibbles {
		w.WriteBit(i < len(nibbles)-1)
		w.WriteUint(n, 4)
	}
}

func TestDecodeLiteralOverflow(t *testing.T) {
	nibbles := make([]uint64, 17)
	for i := range nibbles {
		nibbles[i] = 0xF
	}
	var w bits.Writer
	writeLiteralGroups(&w, nibbles...)
	if _, _, err := Decode(w.Sequence(), 0); !errors.Is(err, ErrLiteralOverflow) {
		t.Fatalf("expected ErrLiteralOverflow, got %v", err)
	}

	// leading zero groups do not count against the bound
	nibbles[0] = 0
	w = bits.Writer{}
	writeLiteralGroups(&w, nibbles...)
	p, _, err := Decode(w.Sequence(), 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.(*Literal).Value != math.MaxUint64 {
		t.Fatalf("unexpected value: %d", p.(*Literal).Value)
	}
}

func TestDecodeRejectsInvalidHex(t *testing.T) {
	if _, _, err := DecodeHex("D2FZ28"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	for _, hex := range []string{"", "D2FE", "38006F4529"} {
		_, _, err := DecodeHex(hex)
		if !errors.Is(err, ErrTruncatedStream) {
			t.Fatalf("%q: expected ErrTruncatedStream, got %v", hex, err)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%q: expected *DecodeError, got %T", hex, err)
		}
	}
}

func TestDecodeErrorCarriesChildPath(t *testing.T) {
	var w bits.Writer
	w.WriteUint(1, VersionBits)
	w.WriteUint(uint64(TypeSum), TypeBits)
	w.WriteUint(uint64(LengthCount), LengthTypeBits)
	w.WriteUint(2, CountBits)
	writeLiteralGroups(&w, 3)
	// second child stops after its header
	w.WriteUint(0, VersionBits)
	w.WriteUint(uint64(TypeLiteral), TypeBits)

	_, _, err := Decode(w.Sequence(), 0)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if diff := cmp.Diff([]int{1}, de.Path); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
	if de.Offset != 29 {
		t.Fatalf("expected failing packet at bit 29, got %d", de.Offset)
	}
	if !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func TestDecodeBitLengthMismatch(t *testing.T) {
	var w bits.Writer
	w.WriteUint(0, VersionBits)
	w.WriteUint(uint64(TypeSum), TypeBits)
	w.WriteUint(uint64(LengthBits), LengthTypeBits)
	w.WriteUint(10, TotalLengthBits) // child below spans 11 bits
	writeLiteralGroups(&w, 7)

	if _, _, err := Decode(w.Sequence(), 0); !errors.Is(err, ErrMalformedPacket) {
		t.Fatalf("expected ErrMalformedPacket, got %v", err)
	}
}

func TestDecodeRejectsEmptyOperators(t *testing.T) {
	var count bits.Writer
	count.WriteUint(0, VersionBits)
	count.WriteUint(uint64(TypeSum), TypeBits)
	count.WriteUint(uint64(LengthCount), LengthTypeBits)
	count.WriteUint(0, CountBits)

	var length bits.Writer
	length.WriteUint(0, VersionBits)
	length.WriteUint(uint64(TypeSum), TypeBits)
	length.WriteUint(uint64(LengthBits), LengthTypeBits)
	length.WriteUint(0, TotalLengthBits)

	for _, seq := range []bits.Sequence{count.Sequence(), length.Sequence()} {
		if _, _, err := Decode(seq, 0); !errors.Is(err, ErrMalformedPacket) {
			t.Fatalf("expected ErrMalformedPacket, got %v", err)
		}
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	var w bits.Writer
	for i := 0; i < 5; i++ {
		w.WriteUint(0, VersionBits)
		w.WriteUint(uint64(TypeSum), TypeBits)
		w.WriteUint(uint64(LengthCount), LengthTypeBits)
		w.WriteUint(1, CountBits)
	}
	writeLiteralGroups(&w, 1)
	seq := w.Sequence()

	if _, _, err := DecodeWithLimits(seq, 0, Limits{MaxDepth: 3}); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
	p, _, err := DecodeWithLimits(seq, 0, Limits{MaxDepth: 6})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if Count(p) != 6 {
		t.Fatalf("expected 6 packets, got %d", Count(p))
	}
}
