package rwerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWithCode(t *testing.T) {
	err := New(NewMissingSide{EqName: "plus-zero", Side: "right-hand side"})
	assert.Equal(t, "(E006) plus-zero: equation has no right-hand side", FormatWithCode(err))
	assert.Equal(t, "missing-side", err.Code().String())
	assert.NotEmpty(t, err.getStack())
}

func TestErrors(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	assert.Zero(t, errs.Len())
	assert.Nil(t, errs.Errors())

	first := New(NewMissingSide{EqName: "a", Side: "left-hand side"})
	second := New(NewMarkerInEquation{EqName: "b"})
	errs = errs.With(first)
	errs = errs.Merge(nil)
	errs = errs.Merge((*Errors)(nil).With(second))

	assert.True(t, errs.HasError())
	assert.Equal(t, []RuleError{first, second}, errs.Errors())
	assert.Len(t, errs.LogValue().Group(), 2)
}

func TestErrorsByEquation(t *testing.T) {
	missing := New(NewMissingSide{EqName: "f-zero", Side: "right-hand side"})
	marker := New(NewMarkerInEquation{EqName: "f-zero"})
	other := New(NewMissingSide{EqName: "g-zero", Side: "left-hand side"})

	errs := (*Errors)(nil).With(missing, other)
	// a second build reporting the same equation again
	errs = errs.Merge((*Errors)(nil).With(New(NewMissingSide{EqName: "f-zero", Side: "right-hand side"}), marker))

	assert.Equal(t, []RuleError{missing, other, marker}, errs.Errors())
	assert.Equal(t, []string{"f-zero", "g-zero"}, errs.Equations())
	assert.Equal(t, []RuleError{missing, marker}, errs.For("f-zero"))
	assert.Empty(t, errs.For("h-zero"))

	group := errs.LogValue().Group()
	require.Len(t, group, 2)
	assert.Equal(t, "f-zero", group[0].Key)
	assert.Equal(t, []string{
		"(E006) f-zero: equation has no right-hand side",
		"(E005) f-zero: equation contains an engine-internal normal form marker",
	}, group[0].Value.Any())
}
