package service

import (
	"context"
	"errors"
	"time"

	"assetd/internal/registry/models"
	"assetd/internal/registry/store"
	id "assetd/pkg/domain"
	dErrors "assetd/pkg/domain-errors"
	"assetd/pkg/platform/sentinel"
)

// Create mints a new asset owned by caller.
//
// The candidate identity is derived from beacon randomness, the extrinsic
// index and the block number. It is rejected if already registered, if the
// counter would overflow, or if caller already holds MaxOwned assets; in
// each case nothing is written.
func (s *Service) Create(ctx context.Context, caller id.AccountID) (*models.Asset, error) {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveCreate(start)
	}
	ctx, span := s.tracer.Start(ctx, "registry.create", spanAttrs("caller", caller.String()))
	defer span.End()

	if caller.IsNil() {
		return nil, s.fail(ctx, span, "create", dErrors.New(dErrors.CodeInvalidInput, "caller is required"))
	}

	identity, attr := s.generate(ctx)
	asset := &models.Asset{
		Identity:  identity,
		Price:     0,
		Attribute: attr,
		Owner:     caller,
		CreatedAt: s.clock.Now(ctx),
	}

	var ownedAfter int
	err := s.store.RunInTx(ctx, func(st *store.State) error {
		exists, err := st.HasAsset(ctx, identity)
		if err != nil {
			return err
		}
		if exists {
			return dErrors.Wrap(models.ErrDuplicateIdentity, dErrors.CodeConflict, "asset identity already exists")
		}

		counter, err := st.Counter(ctx)
		if err != nil {
			return err
		}
		next, err := nextCounter(counter)
		if err != nil {
			return err
		}

		owned, err := st.Owned(ctx, caller)
		if err != nil {
			return err
		}
		if err := owned.TryInsert(identity, s.maxOwned); err != nil {
			return dErrors.Wrap(err, dErrors.CodeCapacityExceeded, "caller owns the maximum number of assets")
		}

		if err := st.PutAsset(asset); err != nil {
			return err
		}
		if err := st.SetCounter(next); err != nil {
			return err
		}
		if err := st.PutOwned(caller, owned); err != nil {
			return err
		}
		ownedAfter = owned.Len()
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "create", translateStoreError(err, "failed to create asset"))
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated(ownedAfter)
	}
	s.logEvent(ctx, models.EventCreated,
		"identity", identity.String(),
		"owner", caller.String(),
		"attribute", attr.String(),
	)
	s.publish(ctx, models.Created{Identity: identity.Clone(), Owner: caller})
	return asset, nil
}

// Transfer moves identity from caller to to.
//
// Checks run in order and the first failure wins: the asset must exist,
// caller must own it, to must differ from caller, and the owner index must
// agree with the asset record. The recipient's capacity is enforced like on
// creation. On any failure nothing is written.
func (s *Service) Transfer(ctx context.Context, caller, to id.AccountID, identity id.Identity) error {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveTransfer(start)
	}
	ctx, span := s.tracer.Start(ctx, "registry.transfer",
		spanAttrs("caller", caller.String(), "to", to.String(), "identity", identity.String()))
	defer span.End()

	if caller.IsNil() || to.IsNil() {
		return s.fail(ctx, span, "transfer", dErrors.New(dErrors.CodeInvalidInput, "caller and recipient are required"))
	}

	var ownedAfter int
	err := s.store.RunInTx(ctx, func(st *store.State) error {
		asset, err := st.Asset(ctx, identity)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(models.ErrNotFound, dErrors.CodeNotFound, "asset not found")
		}
		if err != nil {
			return err
		}
		if asset.Owner != caller {
			return dErrors.Wrap(models.ErrNotOwner, dErrors.CodeForbidden, "caller does not own asset")
		}
		if caller == to {
			return dErrors.Wrap(models.ErrSelfTransfer, dErrors.CodeBadRequest, "cannot transfer to self")
		}

		from, err := st.Owned(ctx, caller)
		if err != nil {
			return err
		}
		if !from.SwapRemove(identity) {
			return dErrors.Wrap(models.ErrNotFound, dErrors.CodeNotFound, "asset missing from owner index")
		}

		recipient, err := st.Owned(ctx, to)
		if err != nil {
			return err
		}
		if err := recipient.TryInsert(identity, s.maxOwned); err != nil {
			return dErrors.Wrap(err, dErrors.CodeCapacityExceeded, "recipient owns the maximum number of assets")
		}

		asset.Owner = to
		if err := st.PutOwned(caller, from); err != nil {
			return err
		}
		if err := st.PutOwned(to, recipient); err != nil {
			return err
		}
		if err := st.PutAsset(asset); err != nil {
			return err
		}
		ownedAfter = recipient.Len()
		return nil
	})
	if err != nil {
		return s.fail(ctx, span, "transfer", translateStoreError(err, "failed to transfer asset"))
	}

	if s.metrics != nil {
		s.metrics.IncrementTransferred(ownedAfter)
	}
	s.logEvent(ctx, models.EventTransferred,
		"identity", identity.String(),
		"from", caller.String(),
		"to", to.String(),
	)
	s.publish(ctx, models.Transferred{From: caller, To: to, Identity: identity.Clone()})
	return nil
}
