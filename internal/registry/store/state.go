package store

import (
	"context"
	"fmt"

	"assetd/internal/registry/models"
	id "assetd/pkg/domain"
	"assetd/pkg/platform/sentinel"
)

// State exposes typed accessors for the counter, the asset registry and the
// owner index over one transaction's overlay. Returned values are copies;
// changes are only staged by the Put/Set methods.
type State struct {
	overlay *Overlay
}

// Counter returns the lifetime creation count; an unset counter is 0.
func (s *State) Counter(ctx context.Context) (uint32, error) {
	raw, ok, err := s.overlay.Get(ctx, counterKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := models.DecodeCounter(raw)
	if err != nil {
		return 0, fmt.Errorf("decode counter: %w", err)
	}
	return n, nil
}

func (s *State) SetCounter(n uint32) error {
	raw, err := models.EncodeCounter(n)
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}
	s.overlay.Put(counterKey, raw)
	return nil
}

// Asset returns the asset stored under identity or sentinel.ErrNotFound.
func (s *State) Asset(ctx context.Context, identity id.Identity) (*models.Asset, error) {
	raw, ok, err := s.overlay.Get(ctx, AssetKey(identity))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var asset models.Asset
	if err := asset.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *State) HasAsset(ctx context.Context, identity id.Identity) (bool, error) {
	_, ok, err := s.overlay.Get(ctx, AssetKey(identity))
	return ok, err
}

func (s *State) PutAsset(asset *models.Asset) error {
	raw, err := asset.MarshalBinary()
	if err != nil {
		return err
	}
	s.overlay.Put(AssetKey(asset.Identity), raw)
	return nil
}

// Owned returns account's owner-index entry; an absent entry is empty.
func (s *State) Owned(ctx context.Context, account id.AccountID) (*models.OwnedSet, error) {
	raw, ok, err := s.overlay.Get(ctx, OwnedKey(account))
	if err != nil {
		return nil, err
	}
	set := models.NewOwnedSet()
	if !ok {
		return set, nil
	}
	if err := set.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *State) PutOwned(account id.AccountID, set *models.OwnedSet) error {
	raw, err := set.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode owned set: %w", err)
	}
	s.overlay.Put(OwnedKey(account), raw)
	return nil
}
