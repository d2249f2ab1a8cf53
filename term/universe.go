package term

const (
	TrueName  = "true"
	FalseName = "false"

	// NumeralZero and NumeralSucc build the unary numerals that integer literals stand for
	NumeralZero = "0"
	NumeralSucc = "succ"
)

const (
	BoolSort Sort = "Bool"
	NatSort  Sort = "Nat"
)

// Numeral builds succ(succ(...(0)))
func (s *Store) Numeral(n uint64) *Term {
	result := s.Const(NumeralZero)
	succ := s.Op(NumeralSucc, 1)
	for i := uint64(0); i < n; i++ {
		result = s.Apply(succ, result)
	}
	return result
}

// AsNumeral is the inverse of Store.Numeral
func AsNumeral(t *Term) (uint64, bool) {
	var n uint64
	for t.kind == KindApplication {
		head := t.head
		if head.kind != KindSymbol || head.symbol.name != NumeralSucc || head.symbol.arity != 1 {
			return 0, false
		}
		n++
		t = t.args[0]
	}
	if t.kind != KindSymbol || t.symbol.name != NumeralZero || t.symbol.arity != 0 {
		return 0, false
	}
	return n, true
}
