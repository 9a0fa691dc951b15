package models

import (
	"fmt"

	id "assetd/pkg/domain"
)

// OwnedSet is one account's owner-index entry: an unordered collection of
// identities bounded by a capacity supplied at insertion time. Membership,
// not order, is meaningful.
type OwnedSet struct {
	items []id.Identity
}

// NewOwnedSet builds a set from identities, copying them.
func NewOwnedSet(items ...id.Identity) *OwnedSet {
	s := &OwnedSet{items: make([]id.Identity, 0, len(items))}
	for _, item := range items {
		s.items = append(s.items, item.Clone())
	}
	return s
}

func (s *OwnedSet) Len() int { return len(s.items) }

// Items returns copies of the members in storage order.
func (s *OwnedSet) Items() []id.Identity {
	out := make([]id.Identity, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

func (s *OwnedSet) indexOf(identity id.Identity) int {
	for i, item := range s.items {
		if item.Equal(identity) {
			return i
		}
	}
	return -1
}

func (s *OwnedSet) Contains(identity id.Identity) bool {
	return s.indexOf(identity) >= 0
}

// TryInsert appends identity unless the set already holds capacity members,
// in which case it returns ErrCapacityExceeded and leaves the set untouched.
func (s *OwnedSet) TryInsert(identity id.Identity, capacity int) error {
	if len(s.items) >= capacity {
		return ErrCapacityExceeded
	}
	s.items = append(s.items, identity.Clone())
	return nil
}

// SwapRemove deletes identity by moving the last member into its slot.
// Reports whether identity was present.
func (s *OwnedSet) SwapRemove(identity id.Identity) bool {
	i := s.indexOf(identity)
	if i < 0 {
		return false
	}
	last := len(s.items) - 1
	s.items[i] = s.items[last]
	s.items[last] = nil
	s.items = s.items[:last]
	return true
}

func (s *OwnedSet) Clone() *OwnedSet {
	return NewOwnedSet(s.items...)
}

// MarshalBinary encodes the set as a CBOR array of byte strings.
func (s *OwnedSet) MarshalBinary() ([]byte, error) {
	raw := make([][]byte, len(s.items))
	for i, item := range s.items {
		raw[i] = item
	}
	return encMode.Marshal(raw)
}

func (s *OwnedSet) UnmarshalBinary(data []byte) error {
	var raw [][]byte
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode owned set: %w", err)
	}
	s.items = make([]id.Identity, len(raw))
	for i, item := range raw {
		s.items[i] = id.Identity(item)
	}
	return nil
}
