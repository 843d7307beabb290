package expr

// References reports whether n depends on the record parameter p.
//
// A node references p if it is p itself, if its static type is the
// record type, or if any of its operands, call receiver or call
// arguments reference p. Member chains are therefore rooted at p
// whenever their innermost target is p.
func References(n Node, p *Parameter) bool {
	if n == nil || p == nil {
		return false
	}
	if p.typ != nil && n.Type() == p.typ {
		return true
	}

	switch n := n.(type) {
	case *Parameter:
		return n == p
	case *Member:
		return References(n.Target, p)
	case *Unary:
		return References(n.Operand, p)
	case *Binary:
		return References(n.Left, p) || References(n.Right, p)
	case *Call:
		if References(n.Receiver, p) {
			return true
		}
		for _, arg := range n.Args {
			if References(arg, p) {
				return true
			}
		}
		return false
	case *Lambda:
		return References(n.Body, p)
	default:
		return false
	}
}
