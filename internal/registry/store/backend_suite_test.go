package store_test

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"assetd/internal/registry/models"
	"assetd/internal/registry/store"
	id "assetd/pkg/domain"
	"assetd/pkg/platform/sentinel"
)

// BackendSuite exercises the Backend contract. Each backend test embeds it
// and sets newBackend in SetupTest.
type BackendSuite struct {
	suite.Suite
	backend store.Backend
}

func (s *BackendSuite) TestGetMissingKey() {
	_, err := s.backend.Get(context.Background(), []byte("missing"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *BackendSuite) TestApplyWritesAllKeys() {
	ctx := context.Background()
	err := s.backend.Apply(ctx, &store.Batch{
		Writes: []store.Write{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
		},
	})
	s.Require().NoError(err)

	a, err := s.backend.Get(ctx, []byte("a"))
	s.Require().NoError(err)
	s.Equal([]byte("1"), a)
	b, err := s.backend.Get(ctx, []byte("b"))
	s.Require().NoError(err)
	s.Equal([]byte("2"), b)
}

func (s *BackendSuite) TestApplyRejectsStaleRead() {
	ctx := context.Background()
	s.Require().NoError(s.backend.Apply(ctx, &store.Batch{
		Writes: []store.Write{{Key: []byte("k"), Value: []byte("new")}},
	}))

	err := s.backend.Apply(ctx, &store.Batch{
		Reads:  []store.Read{{Key: []byte("k"), Value: []byte("old"), Present: true}},
		Writes: []store.Write{{Key: []byte("other"), Value: []byte("x")}},
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.backend.Get(ctx, []byte("other"))
	s.ErrorIs(err, sentinel.ErrNotFound, "rejected batch must not write")
}

func (s *BackendSuite) TestApplyRejectsReadOfAbsentKeyThatAppeared() {
	ctx := context.Background()
	s.Require().NoError(s.backend.Apply(ctx, &store.Batch{
		Writes: []store.Write{{Key: []byte("k"), Value: []byte("v")}},
	}))

	err := s.backend.Apply(ctx, &store.Batch{
		Reads:  []store.Read{{Key: []byte("k"), Present: false}},
		Writes: []store.Write{{Key: []byte("k"), Value: []byte("w")}},
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	v, err := s.backend.Get(ctx, []byte("k"))
	s.Require().NoError(err)
	s.Equal([]byte("v"), v)
}

func (s *BackendSuite) TestApplyAcceptsMatchingMultiKeyReadSet() {
	ctx := context.Background()
	s.Require().NoError(s.backend.Apply(ctx, &store.Batch{
		Writes: []store.Write{
			{Key: []byte("r1"), Value: []byte("1")},
			{Key: []byte("r2"), Value: []byte("2")},
		},
	}))

	err := s.backend.Apply(ctx, &store.Batch{
		Reads: []store.Read{
			{Key: []byte("r1"), Value: []byte("1"), Present: true},
			{Key: []byte("r2"), Value: []byte("2"), Present: true},
			{Key: []byte("r3")},
		},
		Writes: []store.Write{{Key: []byte("r3"), Value: []byte("3")}},
	})
	s.Require().NoError(err)

	v, err := s.backend.Get(ctx, []byte("r3"))
	s.Require().NoError(err)
	s.Equal([]byte("3"), v)
}

func (s *BackendSuite) TestRunInTxCommitsThroughBackend() {
	ctx := context.Background()
	tx := store.NewTx(s.backend)
	owner, _ := id.ParseAccountID("7f1c3a52-3b0e-4f7e-9d6b-2f8a5b6c7d80")
	asset := &models.Asset{
		Identity:  id.Identity{0x02, 0x03},
		Price:     0,
		Attribute: models.AttributeA,
		Owner:     owner,
		CreatedAt: 1000,
	}

	err := tx.RunInTx(ctx, func(st *store.State) error {
		if err := st.PutAsset(asset); err != nil {
			return err
		}
		set := models.NewOwnedSet()
		if err := set.TryInsert(asset.Identity, 3); err != nil {
			return err
		}
		if err := st.PutOwned(owner, set); err != nil {
			return err
		}
		return st.SetCounter(1)
	})
	s.Require().NoError(err)

	err = tx.View(ctx, func(st *store.State) error {
		got, err := st.Asset(ctx, asset.Identity)
		s.Require().NoError(err)
		s.True(asset.Equal(got))

		owned, err := st.Owned(ctx, owner)
		s.Require().NoError(err)
		s.True(owned.Contains(asset.Identity))

		n, err := st.Counter(ctx)
		s.Require().NoError(err)
		s.Equal(uint32(1), n)
		return nil
	})
	s.Require().NoError(err)
}

// TestConcurrentTransactionsSerialize increments the counter from several
// goroutines through independent Tx values over the same backend. Conflicting
// commits are retried, so every increment must land exactly once.
func (s *BackendSuite) TestConcurrentTransactionsSerialize() {
	ctx := context.Background()
	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := store.NewTx(s.backend)
			for i := 0; i < perWorker; i++ {
				for {
					err := tx.RunInTx(ctx, func(st *store.State) error {
						n, err := st.Counter(ctx)
						if err != nil {
							return err
						}
						return st.SetCounter(n + 1)
					})
					if errors.Is(err, sentinel.ErrConflict) {
						continue
					}
					s.NoError(err)
					break
				}
			}
		}()
	}
	wg.Wait()

	var n uint32
	err := store.NewTx(s.backend).View(ctx, func(st *store.State) error {
		var err error
		n, err = st.Counter(ctx)
		return err
	})
	s.Require().NoError(err)
	s.Equal(uint32(workers*perWorker), n)
}
