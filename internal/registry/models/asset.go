package models

import (
	"fmt"

	id "assetd/pkg/domain"
)

// Attribute is the binary classification derived from an asset's identity.
type Attribute uint8

const (
	// AttributeA marks identities whose first byte is even.
	AttributeA Attribute = 0
	// AttributeB marks identities whose first byte is odd.
	AttributeB Attribute = 1
)

func (a Attribute) String() string {
	switch a {
	case AttributeA:
		return "A"
	case AttributeB:
		return "B"
	default:
		return fmt.Sprintf("Attribute(%d)", uint8(a))
	}
}

func (a Attribute) Valid() bool {
	return a == AttributeA || a == AttributeB
}

// Asset is one registry entry.
//
// Invariants:
//   - Identity is unique across the registry and never changes
//   - Owner's owner-index entry contains Identity exactly once
//   - CreatedAt is the time-source reading at creation and never changes
//   - Price is stored as-is; nothing reads or validates it
type Asset struct {
	Identity  id.Identity
	Price     uint32
	Attribute Attribute
	Owner     id.AccountID
	// CreatedAt is a time-source moment in milliseconds.
	CreatedAt uint64
}

// Equal compares every field, identity byte-wise.
func (a *Asset) Equal(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Identity.Equal(other.Identity) &&
		a.Price == other.Price &&
		a.Attribute == other.Attribute &&
		a.Owner == other.Owner &&
		a.CreatedAt == other.CreatedAt
}

// Clone returns a deep copy.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := *a
	c.Identity = a.Identity.Clone()
	return &c
}

// assetRecord is the persisted layout, a 5-element CBOR array:
//
//	[0] identity    byte string
//	[1] price       unsigned int (uint32 range)
//	[2] attribute   unsigned int, 0 = A, 1 = B
//	[3] owner       byte string, 16 bytes (UUID)
//	[4] created_at  unsigned int, milliseconds
//
// New fields must be appended; decoders reject arrays of any other length.
type assetRecord struct {
	_         struct{} `cbor:",toarray"`
	Identity  []byte
	Price     uint32
	Attribute uint8
	Owner     []byte
	CreatedAt uint64
}

// MarshalBinary encodes the asset in its persisted layout.
func (a *Asset) MarshalBinary() ([]byte, error) {
	if !a.Attribute.Valid() {
		return nil, fmt.Errorf("encode asset: invalid attribute %d", a.Attribute)
	}
	return encMode.Marshal(assetRecord{
		Identity:  a.Identity,
		Price:     a.Price,
		Attribute: uint8(a.Attribute),
		Owner:     a.Owner.Bytes(),
		CreatedAt: a.CreatedAt,
	})
}

// UnmarshalBinary decodes the persisted layout produced by MarshalBinary.
func (a *Asset) UnmarshalBinary(data []byte) error {
	var rec assetRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode asset: %w", err)
	}
	attr := Attribute(rec.Attribute)
	if !attr.Valid() {
		return fmt.Errorf("decode asset: invalid attribute %d", rec.Attribute)
	}
	owner, err := id.AccountIDFromBytes(rec.Owner)
	if err != nil {
		return fmt.Errorf("decode asset owner: %w", err)
	}
	*a = Asset{
		Identity:  id.Identity(rec.Identity),
		Price:     rec.Price,
		Attribute: attr,
		Owner:     owner,
		CreatedAt: rec.CreatedAt,
	}
	return nil
}
