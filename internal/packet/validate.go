package packet

import "fmt"

// Validate checks the structural invariants of a packet tree. Decode only
// produces trees that pass everything except the relational arity rule,
// which depends on the evaluation semantics of type IDs 5-7.
func Validate(p Packet) error {
	return validate(p, nil)
}

func validate(p Packet, path []int) error {
	at := func(err error) error {
		if len(path) == 0 {
			return err
		}
		return fmt.Errorf("child %v: %w", path, err)
	}
	switch p := p.(type) {
	case *Literal:
		if p.Version > 7 {
			return at(malformed("version %d out of range", p.Version))
		}
	case *Operator:
		if p.Version > 7 {
			return at(malformed("version %d out of range", p.Version))
		}
		if p.TypeID > 7 || p.TypeID == TypeLiteral {
			return at(malformed("operator type %d", p.TypeID))
		}
		if len(p.Children) == 0 {
			return at(malformed("%s operator has no sub-packets", TypeName(p.TypeID)))
		}
		if IsRelational(p.TypeID) && len(p.Children) != 2 {
			return at(malformed("%s operator needs 2 sub-packets, has %d", TypeName(p.TypeID), len(p.Children)))
		}
		for i, child := range p.Children {
			if err := validate(child, append(path[:len(path):len(path)], i)); err != nil {
				return err
			}
		}
	case nil:
		return at(malformed("nil packet"))
	default:
		return at(fmt.Errorf("packet: unsupported packet %T", p))
	}
	return nil
}
