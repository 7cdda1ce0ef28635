package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := Object{"b": Int(1), "a": String("x")}
	b := Object{"a": String("x"), "b": Int(1)}

	ha, err := Hash(DomainSave, a)
	require.NoError(t, err)
	hb, err := Hash(DomainSave, b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb, "key order must not change the digest")
	assert.Len(t, ha, 64)
}

func TestHashDomainSeparation(t *testing.T) {
	v := Object{"a": Int(1)}
	assert.NotEqual(t, MustHash(DomainSave, v), MustHash(DomainSource, v))
}

func TestHashBytesMatchesHash(t *testing.T) {
	v := List{Int(1), Int(2)}
	canonical, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t, MustHash(DomainSave, v), HashBytes(DomainSave, canonical))
}

func TestHashRejectsFloats(t *testing.T) {
	_, err := Hash(DomainSave, 0.5)
	require.Error(t, err)
}
