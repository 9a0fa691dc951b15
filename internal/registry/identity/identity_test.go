package identity

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetd/internal/registry/models"
)

func TestGenerate_Layout(t *testing.T) {
	var random [32]byte
	for i := range random {
		random[i] = byte(i + 1)
	}

	identity, attr := Generate(random, 0x01020304, 0x0a0b0c0d0e0f1011)

	require.Len(t, identity, PayloadLength)
	assert.Equal(t, random[:], []byte(identity[:32]))
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, []byte(identity[32:36]))
	assert.Equal(t, []byte{0x11, 0x10, 0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a}, []byte(identity[36:44]))
	assert.Equal(t, models.AttributeB, attr, "first byte 0x01 is odd")
}

func TestGenerate_IsPure(t *testing.T) {
	random := [32]byte{42}
	a, attrA := Generate(random, 3, 9)
	b, attrB := Generate(random, 3, 9)
	assert.True(t, a.Equal(b))
	assert.Equal(t, attrA, attrB)
}

func TestGenerate_InputsDiversifyPayload(t *testing.T) {
	random := [32]byte{42}
	base, _ := Generate(random, 0, 1)
	otherIndex, _ := Generate(random, 1, 1)
	otherBlock, _ := Generate(random, 0, 2)

	assert.False(t, base.Equal(otherIndex))
	assert.False(t, base.Equal(otherBlock))
}

// Attribute derivation is a function of first-byte parity only.
func TestAttributeOf_SampledPayloads(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var sawA, sawB bool

	for range 2000 {
		payload := make([]byte, 1+rng.IntN(64))
		for i := range payload {
			payload[i] = byte(rng.UintN(256))
		}

		want := models.AttributeA
		if payload[0]&1 == 1 {
			want = models.AttributeB
		}
		assert.Equal(t, want, AttributeOf(payload))

		// Changing any byte but the first never changes the attribute.
		if len(payload) > 1 {
			mutated := append([]byte(nil), payload...)
			mutated[len(mutated)-1] ^= 0xff
			assert.Equal(t, want, AttributeOf(mutated))
		}

		sawA = sawA || want == models.AttributeA
		sawB = sawB || want == models.AttributeB
	}

	assert.True(t, sawA && sawB, "sample must cover both parities")
}

func TestAttributeOf_EveryFirstByte(t *testing.T) {
	for b := 0; b < 256; b++ {
		want := models.AttributeA
		if b%2 == 1 {
			want = models.AttributeB
		}
		assert.Equal(t, want, AttributeOf([]byte{byte(b), 0xff}))
	}
	assert.Equal(t, models.AttributeA, AttributeOf(nil))
}

func TestGenerate_AttributeMatchesPayload(t *testing.T) {
	for b := 0; b < 256; b++ {
		identity, attr := Generate([32]byte{byte(b)}, 0, 0)
		assert.Equal(t, AttributeOf(identity), attr)
	}
}
