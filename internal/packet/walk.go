package packet

import (
	"fmt"
	"strings"
)

// Walk visits p and its descendants in pre-order. Returning false from visit
// skips the children of that node.
func Walk(p Packet, visit func(p Packet, depth int) bool) {
	walk(p, 0, visit)
}

func walk(p Packet, depth int, visit func(Packet, int) bool) {
	if p == nil || !visit(p, depth) {
		return
	}
	if op, ok := p.(*Operator); ok {
		for _, child := range op.Children {
			walk(child, depth+1, visit)
		}
	}
}

// Count returns the number of packets in the tree.
func Count(p Packet) int {
	n := 0
	Walk(p, func(Packet, int) bool {
		n++
		return true
	})
	return n
}

// Format renders the tree one packet per line, indented by depth.
func Format(p Packet) string {
	var sb strings.Builder
	Walk(p, func(p Packet, depth int) bool {
		writeIndents(&sb, depth)
		switch p := p.(type) {
		case *Literal:
			fmt.Fprintf(&sb, "literal v=%d value=%d\n", p.Version, p.Value)
		case *Operator:
			fmt.Fprintf(&sb, "%s v=%d len=%s (%d children)\n", TypeName(p.PacketType()), p.Version, p.Length, len(p.Children))
		}
		return true
	})
	return sb.String()
}

func writeIndents(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("\t")
	}
}
