package term

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"

	"github.com/cottand/trs/internal/log"
	"github.com/cottand/trs/util"
)

const defaultCollectThreshold = 1 << 16

type Settings struct {
	// ThreadSafe guards interning and collection with a lock, so that
	// the Store can be shared between goroutines
	ThreadSafe bool
	// CollectThreshold is the number of live terms above which MaybeCollect runs a collection.
	// Zero means a default of 65536.
	CollectThreshold int
	// Logger may be nil
	Logger *slog.Logger
}

// Store interns symbols and terms so that structurally equal terms are the same pointer.
//
// Terms are reference counted: a term is alive while it is protected (Protect) or
// while a live term has it as a child. Collect removes every other term from the
// intern table. Terms only referenced from a goroutine's stack are not protected,
// so Collect must only be called at points where no such term is still needed.
type Store struct {
	threadSafe bool
	threshold  int
	logger     *slog.Logger

	// mu guards everything below when threadSafe is set.
	// Rehashing (map growth) and collection happen under the write lock only.
	mu sync.RWMutex

	table map[uint64][]*Term
	size  int
	// nextID starts at 1 so that 0 is never a valid term ID
	nextID uint64

	symbols        map[symbolKey]*Symbol
	symbolsByIndex []*Symbol
	freeIndices    []uint32

	lastCollectSize int

	trueTerm, falseTerm *Term
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// Default returns the process-wide thread-safe Store, creating it on first use
func Default() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = NewStore(Settings{ThreadSafe: true})
	})
	return defaultStore
}

func NewStore(settings Settings) *Store {
	logger := settings.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	threshold := settings.CollectThreshold
	if threshold <= 0 {
		threshold = defaultCollectThreshold
	}
	s := &Store{
		threadSafe: settings.ThreadSafe,
		threshold:  threshold,
		logger:     slog.New(SlogHandler(logger.Handler())).With("section", "store"),
		table:      make(map[uint64][]*Term, 64),
		nextID:     1,
		symbols:    make(map[symbolKey]*Symbol, 16),
	}
	s.trueTerm = s.Const(TrueName)
	s.falseTerm = s.Const(FalseName)
	s.Protect(s.trueTerm)
	s.Protect(s.falseTerm)
	return s
}

// True is the nullary symbol a condition must rewrite to for a rule to apply
func (s *Store) True() *Term  { return s.trueTerm }
func (s *Store) False() *Term { return s.falseTerm }

func (s *Store) ThreadSafe() bool { return s.threadSafe }

// Size is the number of live terms, symbol terms included
func (s *Store) Size() int {
	if s.threadSafe {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return s.size
}

// intern returns the existing term structurally equal to proto, or inserts proto
func (s *Store) intern(proto *Term) *Term {
	proto.hash = computeHash(proto)
	proto.marked = proto.kind == KindNormalised
	for child := range proto.children() {
		proto.marked = proto.marked || child.marked
	}
	if s.threadSafe {
		s.mu.RLock()
		found := s.lookup(proto)
		s.mu.RUnlock()
		if found != nil {
			return found
		}
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if found := s.lookup(proto); found != nil {
		return found
	}
	return s.insert(proto)
}

func (s *Store) lookup(proto *Term) *Term {
	for _, candidate := range s.table[proto.hash] {
		if sameNode(candidate, proto) {
			return candidate
		}
	}
	return nil
}

// insert must be called with the write lock held
func (s *Store) insert(t *Term) *Term {
	if t.hash == 0 {
		t.hash = computeHash(t)
	}
	t.id = s.nextID
	s.nextID++
	for child := range t.children() {
		child.refs.Add(1)
	}
	s.table[t.hash] = append(s.table[t.hash], t)
	s.size++
	termsInterned.Inc()
	return t
}

// sameNode compares the fields of two nodes, comparing children by identity
func sameNode(a, b *Term) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindSymbol:
		return a.symbol == b.symbol
	case KindVariable:
		return a.name == b.name && a.sort == b.sort
	case KindApplication:
		return a.head == b.head && slices.Equal(a.args, b.args)
	case KindAbstraction:
		return a.binder == b.binder && a.head == b.head && slices.Equal(a.vars, b.vars)
	case KindWhere:
		return a.head == b.head && slices.Equal(a.vars, b.vars) && slices.Equal(a.args, b.args)
	case KindNormalised:
		return a.head == b.head
	default:
		panic("unexpected term kind " + a.kind.String())
	}
}

func computeHash(t *Term) uint64 {
	h := fnv.New64a()
	arr := make([]byte, 0, 8*(2+len(t.args)+len(t.vars)))
	arr = append(arr, byte(t.kind), byte(t.binder))
	switch t.kind {
	case KindSymbol:
		_, _ = h.Write([]byte(t.symbol.name))
		arr = binary.LittleEndian.AppendUint64(arr, uint64(t.symbol.arity))
	case KindVariable:
		_, _ = h.Write([]byte(t.name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(t.sort))
	case KindApplication, KindAbstraction, KindWhere, KindNormalised:
		arr = binary.LittleEndian.AppendUint64(arr, t.head.id)
		for _, a := range t.args {
			arr = binary.LittleEndian.AppendUint64(arr, a.id)
		}
		for _, v := range t.vars {
			arr = binary.LittleEndian.AppendUint64(arr, v.id)
		}
	default:
		panic("unexpected term kind " + t.kind.String())
	}
	_, _ = h.Write(arr)
	sum := h.Sum64()
	if sum == 0 {
		// zero marks a hash that was not computed yet
		sum = 1
	}
	return sum
}

// Var interns the variable (name, sort)
func (s *Store) Var(name string, sort Sort) *Term {
	if name == "" {
		panic("variable with empty name")
	}
	return s.intern(&Term{kind: KindVariable, name: name, sort: sort})
}

// Apply interns the application of head to args.
// If head is a function symbol, len(args) must equal its arity.
func (s *Store) Apply(head *Term, args ...*Term) *Term {
	if head == nil {
		panic("application with nil head")
	}
	if len(args) == 0 {
		panic(fmt.Sprintf("application of '%v' to no arguments", head))
	}
	if head.kind == KindSymbol && head.symbol.arity != len(args) {
		panic(fmt.Sprintf("function symbol %v applied to %d arguments", head.symbol, len(args)))
	}
	for i, a := range args {
		if a == nil {
			panic(fmt.Sprintf("argument %d of application of '%v' is nil", i, head))
		}
	}
	return s.intern(&Term{kind: KindApplication, head: head, args: slices.Clone(args)})
}

// Abstract interns a binder over vars, which must be distinct variables
func (s *Store) Abstract(binder Binder, vars []*Term, body *Term) *Term {
	if binder != BinderLambda && binder != BinderForall && binder != BinderExists {
		panic(fmt.Sprintf("invalid binder %d", binder))
	}
	if len(vars) == 0 {
		panic(binder.String() + " without bound variables")
	}
	if body == nil {
		panic(binder.String() + " with nil body")
	}
	for i, v := range vars {
		if v == nil || v.kind != KindVariable {
			panic(fmt.Sprintf("bound position %d of %v is not a variable: %v", i, binder, v))
		}
		if slices.Contains(vars[:i], v) {
			panic(fmt.Sprintf("variable %v bound twice by the same %v", v, binder))
		}
	}
	return s.intern(&Term{kind: KindAbstraction, binder: binder, head: body, vars: slices.Clone(vars)})
}

func (s *Store) Lambda(vars []*Term, body *Term) *Term { return s.Abstract(BinderLambda, vars, body) }
func (s *Store) Forall(vars []*Term, body *Term) *Term { return s.Abstract(BinderForall, vars, body) }
func (s *Store) Exists(vars []*Term, body *Term) *Term { return s.Abstract(BinderExists, vars, body) }

// Where interns `body where v1 = e1, ..., vn = en`
func (s *Store) Where(body *Term, assignments ...Assignment) *Term {
	if body == nil {
		panic("where clause with nil body")
	}
	if len(assignments) == 0 {
		panic("where clause without assignments")
	}
	vars := make([]*Term, len(assignments))
	values := make([]*Term, len(assignments))
	for i, a := range assignments {
		if a.Var == nil || a.Var.kind != KindVariable {
			panic(fmt.Sprintf("assignment %d of where clause does not assign a variable: %v", i, a.Var))
		}
		if a.Value == nil {
			panic(fmt.Sprintf("assignment %d of where clause has no value", i))
		}
		if slices.Contains(vars[:i], a.Var) {
			panic(fmt.Sprintf("variable %v assigned twice in the same where clause", a.Var))
		}
		vars[i] = a.Var
		values[i] = a.Value
	}
	return s.intern(&Term{kind: KindWhere, head: body, vars: vars, args: values})
}

// Normalised wraps t to record that it is in normal form.
// Only the rewriter should build markers.
func (s *Store) Normalised(t *Term) *Term {
	if t.kind == KindNormalised {
		return t
	}
	return s.intern(&Term{kind: KindNormalised, head: t})
}

// Protect keeps t (and so all of its subterms) alive across Collect
func (s *Store) Protect(t *Term) {
	t.refs.Add(1)
}

// Release undoes one Protect
func (s *Store) Release(t *Term) {
	if t.refs.Add(-1) < 0 {
		panic(fmt.Sprintf("term '%v' released more often than it was protected", t))
	}
}

// MaybeCollect runs Collect when the store grew past its threshold since the last collection
func (s *Store) MaybeCollect() int {
	if s.threadSafe {
		s.mu.RLock()
	}
	due := s.size > s.threshold && s.size > 2*s.lastCollectSize
	if s.threadSafe {
		s.mu.RUnlock()
	}
	if !due {
		return 0
	}
	return s.Collect()
}

// Collect removes every term whose reference count is zero, together with the
// children it kept alive, and returns how many terms were removed.
func (s *Store) Collect() int {
	if s.threadSafe {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	var work util.Stack[*Term]
	for _, bucket := range s.table {
		for _, t := range bucket {
			if t.refs.Load() == 0 {
				work.Push(t)
			}
		}
	}
	collected := 0
	for t, ok := work.Pop(); ok; t, ok = work.Pop() {
		if t.dead || t.refs.Load() != 0 {
			continue
		}
		s.remove(t)
		collected++
		for child := range t.children() {
			if child.refs.Add(-1) == 0 {
				work.Push(child)
			}
		}
	}
	s.lastCollectSize = s.size
	termsCollected.Add(float64(collected))
	collections.Inc()
	s.logger.Debug("collected terms", "collected", collected, "live", s.size, "symbols", len(s.symbols))
	return collected
}

// remove must be called with the write lock held
func (s *Store) remove(t *Term) {
	bucket := s.table[t.hash]
	idx := slices.Index(bucket, t)
	if idx < 0 {
		panic(fmt.Sprintf("term %d not found in intern table", t.id))
	}
	bucket = slices.Delete(bucket, idx, idx+1)
	if len(bucket) == 0 {
		delete(s.table, t.hash)
	} else {
		s.table[t.hash] = bucket
	}
	t.dead = true
	s.size--
	if t.kind == KindSymbol {
		sym := t.symbol
		delete(s.symbols, symbolKey{name: sym.name, arity: sym.arity})
		s.symbolsByIndex[sym.index] = nil
		s.freeIndices = append(s.freeIndices, sym.index)
		sym.term = nil
	}
}

// HasVariable reports whether the variable (name, sort) is currently interned
func (s *Store) HasVariable(name string, sort Sort) bool {
	proto := &Term{kind: KindVariable, name: name, sort: sort}
	proto.hash = computeHash(proto)
	if s.threadSafe {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return s.lookup(proto) != nil
}

// Alive reports whether t is still in the intern table
func (s *Store) Alive(t *Term) bool {
	if s.threadSafe {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return !t.dead
}
