// Package identity derives candidate asset identities from host-provided
// entropy. Generation is pure: identical inputs always produce identical
// output, which replay depends on. Uniqueness is not guaranteed here; the
// registry service checks candidates against stored assets.
package identity

import (
	"encoding/binary"

	"assetd/internal/registry/models"
	id "assetd/pkg/domain"
)

// Subject is the domain-separation tag under which randomness is drawn.
var Subject = []byte("dna")

// PayloadLength is the size of every generated identity.
const PayloadLength = 32 + 4 + 8

// Generate concatenates the canonical fixed-width encodings of its inputs:
//
//	random (32 bytes) || extrinsicIndex (uint32 LE) || block (uint64 LE)
//
// The payload is returned as the identity without hashing, together with the
// attribute derived from its first byte.
func Generate(random [32]byte, extrinsicIndex uint32, block uint64) (id.Identity, models.Attribute) {
	payload := make([]byte, 0, PayloadLength)
	payload = append(payload, random[:]...)
	payload = binary.LittleEndian.AppendUint32(payload, extrinsicIndex)
	payload = binary.LittleEndian.AppendUint64(payload, block)
	return id.Identity(payload), AttributeOf(payload)
}

// AttributeOf classifies a payload by the parity of its first byte:
// even is A, odd is B. An empty payload is A.
func AttributeOf(payload []byte) models.Attribute {
	if len(payload) == 0 || payload[0]%2 == 0 {
		return models.AttributeA
	}
	return models.AttributeB
}
