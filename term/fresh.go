package term

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// freshSeparator never occurs in variable names produced by the frontend,
// so fresh names cannot collide with names written by users
const freshSeparator = "@"

// Fresher hands out variable names that are not in use yet.
// It is safe for concurrent use.
type Fresher struct {
	count atomic.Uint64
}

func NewFresher() *Fresher {
	return &Fresher{}
}

// Name returns a new name derived from hint, like x@3 for hint x or x@1
func (f *Fresher) Name(hint string) string {
	base, _, _ := strings.Cut(hint, freshSeparator)
	if base == "" {
		base = "v"
	}
	return base + freshSeparator + strconv.FormatUint(f.count.Add(1)-1, 10)
}

// Variable returns a variable of the same sort as like, with a name that
// no variable of that sort in s currently has
func (f *Fresher) Variable(s *Store, like *Term) *Term {
	like.mustBe(KindVariable)
	for {
		name := f.Name(like.name)
		if !s.HasVariable(name, like.sort) {
			return s.Var(name, like.sort)
		}
	}
}
