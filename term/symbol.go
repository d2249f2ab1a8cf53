package term

import (
	"fmt"
	"log/slog"
)

// Symbol is an interned function symbol. Two symbols with the same
// name and arity obtained from the same Store are the same pointer.
type Symbol struct {
	name  string
	arity int
	index uint32

	// term is the KindSymbol term for this symbol. It is nil once the symbol was collected.
	term *Term
}

func (s *Symbol) Name() string { return s.name }
func (s *Symbol) Arity() int   { return s.arity }

// Index is a small integer identifying s among the live symbols of its Store.
// Indices of collected symbols get reused.
func (s *Symbol) Index() uint32 { return s.index }

func (s *Symbol) String() string {
	return fmt.Sprintf("%s/%d", s.name, s.arity)
}

type symbolKey struct {
	name  string
	arity int
}

// Symbol interns the function symbol (name, arity)
func (s *Store) Symbol(name string, arity int) *Symbol {
	if name == "" {
		panic("function symbol with empty name")
	}
	if arity < 0 {
		panic(fmt.Sprintf("function symbol %s with negative arity %d", name, arity))
	}
	key := symbolKey{name: name, arity: arity}
	if s.threadSafe {
		s.mu.RLock()
		sym, ok := s.symbols[key]
		s.mu.RUnlock()
		if ok {
			return sym
		}
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if sym, ok := s.symbols[key]; ok {
		return sym
	}
	return s.newSymbol(key)
}

// newSymbol must be called with the write lock held
func (s *Store) newSymbol(key symbolKey) *Symbol {
	sym := &Symbol{name: key.name, arity: key.arity}
	if n := len(s.freeIndices); n > 0 {
		sym.index = s.freeIndices[n-1]
		s.freeIndices = s.freeIndices[:n-1]
		s.symbolsByIndex[sym.index] = sym
	} else {
		sym.index = uint32(len(s.symbolsByIndex))
		s.symbolsByIndex = append(s.symbolsByIndex, sym)
	}
	s.symbols[key] = sym
	sym.term = s.insert(&Term{kind: KindSymbol, symbol: sym})
	symbolsInterned.Inc()
	s.logger.Debug("interned symbol", "symbol", sym.String(), "index", sym.index)
	return sym
}

// SymbolAt returns the live symbol with the given index
func (s *Store) SymbolAt(index uint32) (*Symbol, bool) {
	if s.threadSafe {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	if int(index) >= len(s.symbolsByIndex) {
		return nil, false
	}
	sym := s.symbolsByIndex[index]
	return sym, sym != nil
}

// SymbolCount is the number of live function symbols
func (s *Store) SymbolCount() int {
	if s.threadSafe {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return len(s.symbols)
}

// MaxSymbolIndex is an upper bound (exclusive) for the indices of live symbols
func (s *Store) MaxSymbolIndex() int {
	if s.threadSafe {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return len(s.symbolsByIndex)
}

// Func returns the term standing for sym.
// If sym was collected in the meantime, it is interned again.
func (s *Store) Func(sym *Symbol) *Term {
	if s.threadSafe {
		s.mu.RLock()
		t := sym.term
		s.mu.RUnlock()
		if t != nil {
			return t
		}
	} else if sym.term != nil {
		return sym.term
	}
	return s.Symbol(sym.name, sym.arity).term
}

// Op is shorthand for Func(Symbol(name, arity))
func (s *Store) Op(name string, arity int) *Term {
	return s.Func(s.Symbol(name, arity))
}

// Const is shorthand for a nullary function symbol
func (s *Store) Const(name string) *Term {
	return s.Op(name, 0)
}

func (s *Symbol) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
