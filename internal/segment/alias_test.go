package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliasResolver_FirstMatchWins(t *testing.T) {
	cfg := &AliasConfig{
		EntityPatterns: []EntityPattern{
			{Pattern: "nasdaq:{ticker}", Canonical: "equity:{ticker}"},
			{Pattern: "cusip:{code*}", Canonical: "equity:{code}"},
		},
	}
	r := NewAliasResolver(cfg)

	assert.Equal(t, "equity:AAPL", r.Resolve("nasdaq:AAPL"))
	assert.Equal(t, "equity:037833100", r.Resolve("cusip:037833100"))
	assert.Equal(t, "unrecognized-id", r.Resolve("unrecognized-id"))
	assert.Equal(t, 2, r.PatternCount())
}

func TestAliasResolver_NilAndEmptyAreNoop(t *testing.T) {
	var nilResolver *AliasResolver
	assert.Equal(t, "x", nilResolver.Resolve("x"))
	assert.Equal(t, 0, nilResolver.PatternCount())

	empty := NewAliasResolver(nil)
	assert.Equal(t, "x", empty.Resolve("x"))
}

func TestAliasResolver_SkipsInvalidPatterns(t *testing.T) {
	cfg := &AliasConfig{
		EntityPatterns: []EntityPattern{
			{Pattern: "", Canonical: "x"},
			{Pattern: "y", Canonical: ""},
			{Pattern: "[invalid", Canonical: "z"},
			{Pattern: "ok:{id}", Canonical: "canon:{id}"},
		},
	}
	r := NewAliasResolver(cfg)
	assert.Equal(t, 1, r.PatternCount())
	assert.Equal(t, "canon:1", r.Resolve("ok:1"))
}
