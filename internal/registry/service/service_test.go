package service_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"assetd/internal/registry/events"
	"assetd/internal/registry/metrics"
	"assetd/internal/registry/models"
	"assetd/internal/registry/service"
	"assetd/internal/registry/service/mocks"
	"assetd/internal/registry/store"
	id "assetd/pkg/domain"
	dErrors "assetd/pkg/domain-errors"
	"assetd/pkg/platform/sentinel"
)

//go:generate mockgen -source=../ports/host.go -destination=mocks/mocks.go -package=mocks

// stubHost hands out a fresh seed on every draw so identities never collide
// unless a test asks them to.
type stubHost struct {
	draws uint64
	block uint64
	index uint32
	now   uint64
}

func (h *stubHost) Random(subject []byte) ([32]byte, uint64) {
	h.draws++
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], h.draws)
	copy(seed[8:], subject)
	return seed, h.block
}

func (h *stubHost) BlockNumber(context.Context) uint64 { return h.block }

func (h *stubHost) ExtrinsicIndex(context.Context) (uint32, bool) { return h.index, true }

func (h *stubHost) Now(context.Context) uint64 { return h.now }

func account(s string) id.AccountID {
	return id.AccountID(uuid.MustParse(s))
}

var (
	alice = account("7f1c3a52-3b0e-4f7e-9d6b-2f8a5b6c7d80")
	bob   = account("0b7d1e8e-5a51-4c55-a3f4-5a0e44b9f1c2")
	carol = account("5e4c3b2a-1908-4a7b-8c6d-5e4f3a2b1c0d")
)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	backend  *store.MemoryBackend
	host     *stubHost
	recorder *events.Recorder
	metrics  *metrics.Metrics
	svc      *service.Service
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = store.NewMemoryBackend()
	s.host = &stubHost{block: 7, index: 1, now: 1_700_000_000_000}
	s.recorder = events.NewRecorder()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = s.newService(2, s.recorder)
}

func (s *RegistrySuite) newService(maxOwned int, publisher *events.Recorder) *service.Service {
	return service.New(store.NewTx(s.backend), s.host, s.host, s.host,
		service.WithMaxOwned(maxOwned),
		service.WithPublisher(publisher),
		service.WithMetrics(s.metrics),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *RegistrySuite) owned(account id.AccountID) []id.Identity {
	items, err := s.svc.OwnedBy(s.ctx, account)
	s.Require().NoError(err)
	return items
}

func (s *RegistrySuite) total() uint32 {
	n, err := s.svc.TotalCreated(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *RegistrySuite) create(caller id.AccountID) *models.Asset {
	asset, err := s.svc.Create(s.ctx, caller)
	s.Require().NoError(err)
	return asset
}

func containsIdentity(items []id.Identity, identity id.Identity) bool {
	for _, it := range items {
		if it.Equal(identity) {
			return true
		}
	}
	return false
}

func (s *RegistrySuite) TestCapacityScenario() {
	first := s.create(alice)
	second := s.create(alice)
	s.Len(s.owned(alice), 2)

	before := s.backend.Snapshot()
	_, err := s.svc.Create(s.ctx, alice)
	s.ErrorIs(err, models.ErrCapacityExceeded)
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	s.Equal(before, s.backend.Snapshot())

	s.Require().NoError(s.svc.Transfer(s.ctx, alice, bob, first.Identity))
	aliceOwned := s.owned(alice)
	s.Len(aliceOwned, 1)
	s.True(containsIdentity(aliceOwned, second.Identity))
	bobOwned := s.owned(bob)
	s.Len(bobOwned, 1)
	s.True(containsIdentity(bobOwned, first.Identity))

	third := s.create(alice)
	aliceOwned = s.owned(alice)
	s.Len(aliceOwned, 2)
	s.True(containsIdentity(aliceOwned, third.Identity))
	s.Equal(uint32(3), s.total())
}

func (s *RegistrySuite) TestCreateCommitsAssetIndexAndCounter() {
	asset := s.create(alice)

	s.Equal(alice, asset.Owner)
	s.Equal(uint32(0), asset.Price)
	s.Equal(s.host.now, asset.CreatedAt)
	s.Len(asset.Identity, 44)
	if asset.Identity[0]%2 == 0 {
		s.Equal(models.AttributeA, asset.Attribute)
	} else {
		s.Equal(models.AttributeB, asset.Attribute)
	}

	stored, err := s.svc.Asset(s.ctx, asset.Identity)
	s.Require().NoError(err)
	s.True(asset.Equal(stored))
	s.Equal([]id.Identity{asset.Identity}, s.owned(alice))
	s.Equal(uint32(1), s.total())

	s.Equal([]models.Event{models.Created{Identity: asset.Identity, Owner: alice}}, s.recorder.Events())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AssetsCreated))
}

func (s *RegistrySuite) TestCreateEncodesBlockAndExtrinsicIndex() {
	s.host.block = 0x0102
	s.host.index = 3
	asset := s.create(alice)

	s.Equal(uint32(3), binary.LittleEndian.Uint32(asset.Identity[32:36]))
	s.Equal(uint64(0x0102), binary.LittleEndian.Uint64(asset.Identity[36:44]))
}

func (s *RegistrySuite) TestCreateOverflow() {
	raw, err := models.EncodeCounter(math.MaxUint32)
	s.Require().NoError(err)
	s.backend.Put(store.CounterKey(), raw)
	before := s.backend.Snapshot()

	_, err = s.svc.Create(s.ctx, alice)
	s.ErrorIs(err, models.ErrOverflow)
	s.True(dErrors.HasCode(err, dErrors.CodeOverflow))
	s.Equal(before, s.backend.Snapshot())
	s.Empty(s.recorder.Events())
}

func (s *RegistrySuite) TestTransferMovesOwnership() {
	asset := s.create(alice)
	s.recorder.Reset()

	s.Require().NoError(s.svc.Transfer(s.ctx, alice, bob, asset.Identity))

	stored, err := s.svc.Asset(s.ctx, asset.Identity)
	s.Require().NoError(err)
	s.Equal(bob, stored.Owner)
	s.Equal(asset.CreatedAt, stored.CreatedAt)
	s.Equal(asset.Attribute, stored.Attribute)
	s.Empty(s.owned(alice))
	s.Equal([]id.Identity{asset.Identity}, s.owned(bob))
	s.Equal(uint32(1), s.total(), "transfer never touches the counter")

	s.Equal([]models.Event{models.Transferred{From: alice, To: bob, Identity: asset.Identity}}, s.recorder.Events())
}

func (s *RegistrySuite) TestTransferRejections() {
	asset := s.create(alice)
	s.recorder.Reset()

	tests := []struct {
		name     string
		caller   id.AccountID
		to       id.AccountID
		identity id.Identity
		want     error
		code     dErrors.Code
	}{
		{"unknown identity", alice, bob, id.Identity{0xde, 0xad}, models.ErrNotFound, dErrors.CodeNotFound},
		{"caller is not owner", bob, carol, asset.Identity, models.ErrNotOwner, dErrors.CodeForbidden},
		{"non-owner self transfer reports ownership first", bob, bob, asset.Identity, models.ErrNotOwner, dErrors.CodeForbidden},
		{"self transfer", alice, alice, asset.Identity, models.ErrSelfTransfer, dErrors.CodeBadRequest},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			before := s.backend.Snapshot()
			err := s.svc.Transfer(s.ctx, tt.caller, tt.to, tt.identity)
			s.ErrorIs(err, tt.want)
			s.True(dErrors.HasCode(err, tt.code))
			s.Equal(before, s.backend.Snapshot())
		})
	}
	s.Empty(s.recorder.Events())
}

func (s *RegistrySuite) TestTransferToFullRecipientChangesNothing() {
	asset := s.create(alice)
	s.create(bob)
	s.create(bob)
	before := s.backend.Snapshot()

	err := s.svc.Transfer(s.ctx, alice, bob, asset.Identity)
	s.ErrorIs(err, models.ErrCapacityExceeded)
	s.Equal(before, s.backend.Snapshot())

	stored, err := s.svc.Asset(s.ctx, asset.Identity)
	s.Require().NoError(err)
	s.Equal(alice, stored.Owner)
}

func (s *RegistrySuite) TestTransferDetectsIndexInconsistency() {
	asset := s.create(alice)
	empty, err := models.NewOwnedSet().MarshalBinary()
	s.Require().NoError(err)
	s.backend.Put(store.OwnedKey(alice), empty)
	before := s.backend.Snapshot()

	err = s.svc.Transfer(s.ctx, alice, bob, asset.Identity)
	s.ErrorIs(err, models.ErrNotFound)
	s.Equal(before, s.backend.Snapshot())
}

func (s *RegistrySuite) TestQueryMissingAsset() {
	_, err := s.svc.Asset(s.ctx, id.Identity{1, 2, 3})
	s.ErrorIs(err, models.ErrNotFound)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RegistrySuite) TestNilAccountsRejected() {
	_, err := s.svc.Create(s.ctx, id.AccountID{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	asset := s.create(alice)
	err = s.svc.Transfer(s.ctx, alice, id.AccountID{}, asset.Identity)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// TestRandomOperationsPreserveInvariants drives a seeded random mix of
// creates and transfers and checks the registry/index invariants after
// every step.
func (s *RegistrySuite) TestRandomOperationsPreserveInvariants() {
	const maxOwned = 3
	svc := s.newService(maxOwned, s.recorder)
	accounts := []id.AccountID{alice, bob, carol, account("9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d")}
	rng := rand.New(rand.NewPCG(42, 1024))

	var created []id.Identity
	for step := 0; step < 300; step++ {
		caller := accounts[rng.IntN(len(accounts))]
		if len(created) == 0 || rng.IntN(3) == 0 {
			asset, err := svc.Create(s.ctx, caller)
			if err == nil {
				created = append(created, asset.Identity)
			} else {
				s.Require().ErrorIs(err, models.ErrCapacityExceeded)
			}
		} else {
			identity := created[rng.IntN(len(created))]
			to := accounts[rng.IntN(len(accounts))]
			err := svc.Transfer(s.ctx, caller, to, identity)
			if err != nil {
				s.Require().True(
					errors.Is(err, models.ErrNotOwner) ||
						errors.Is(err, models.ErrSelfTransfer) ||
						errors.Is(err, models.ErrCapacityExceeded),
					"unexpected error %v", err)
			}
		}
		s.assertInvariants(svc, accounts, created, maxOwned)
	}
}

func (s *RegistrySuite) assertInvariants(svc *service.Service, accounts []id.AccountID, created []id.Identity, maxOwned int) {
	n, err := svc.TotalCreated(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(uint32(len(created)), n)

	holdings := make(map[id.AccountID][]id.Identity, len(accounts))
	for _, acct := range accounts {
		items, err := svc.OwnedBy(s.ctx, acct)
		s.Require().NoError(err)
		s.Require().LessOrEqual(len(items), maxOwned)
		holdings[acct] = items
	}

	for _, identity := range created {
		asset, err := svc.Asset(s.ctx, identity)
		s.Require().NoError(err)
		holders := 0
		for acct, items := range holdings {
			count := 0
			for _, it := range items {
				if it.Equal(identity) {
					count++
				}
			}
			if acct == asset.Owner {
				s.Require().Equal(1, count, "owner index must hold identity exactly once")
			}
			holders += count
		}
		s.Require().Equal(1, holders, "identity must appear in exactly one index")
	}
}

type GomockRegistrySuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	randomness *mocks.MockRandomness
	block      *mocks.MockBlockContext
	clock      *mocks.MockTimeSource
	publisher  *mocks.MockPublisher
	backend    *store.MemoryBackend
	metrics    *metrics.Metrics
}

func TestGomockRegistrySuite(t *testing.T) {
	suite.Run(t, new(GomockRegistrySuite))
}

func (s *GomockRegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.randomness = mocks.NewMockRandomness(s.ctrl)
	s.block = mocks.NewMockBlockContext(s.ctrl)
	s.clock = mocks.NewMockTimeSource(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.backend = store.NewMemoryBackend()
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *GomockRegistrySuite) newService(backend store.Backend) *service.Service {
	return service.New(store.NewTx(backend), s.randomness, s.block, s.clock,
		service.WithPublisher(s.publisher),
		service.WithMetrics(s.metrics),
	)
}

func (s *GomockRegistrySuite) expectDraw(seed [32]byte, index uint32, indexOK bool, block uint64) {
	s.randomness.EXPECT().Random([]byte("dna")).Return(seed, block)
	s.block.EXPECT().ExtrinsicIndex(gomock.Any()).Return(index, indexOK)
	s.block.EXPECT().BlockNumber(gomock.Any()).Return(block)
	s.clock.EXPECT().Now(gomock.Any()).Return(uint64(1000))
}

func (s *GomockRegistrySuite) TestSameDrawTwiceIsDuplicate() {
	svc := s.newService(s.backend)
	seed := [32]byte{0x11}

	s.expectDraw(seed, 1, true, 9)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(models.Created{})).Return(nil)
	first, err := svc.Create(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(models.AttributeB, first.Attribute, "0x11 is odd")

	before := s.backend.Snapshot()
	s.expectDraw(seed, 1, true, 9)
	_, err = svc.Create(s.ctx, bob)
	s.ErrorIs(err, models.ErrDuplicateIdentity)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(before, s.backend.Snapshot())
}

func (s *GomockRegistrySuite) TestMissingExtrinsicIndexEncodesZero() {
	svc := s.newService(s.backend)
	s.expectDraw([32]byte{0x02}, 77, false, 5)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	asset, err := svc.Create(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(uint32(0), binary.LittleEndian.Uint32(asset.Identity[32:36]))
	s.Equal(models.AttributeA, asset.Attribute)
}

func (s *GomockRegistrySuite) TestPublishFailureDoesNotFailCommit() {
	svc := s.newService(s.backend)
	s.expectDraw([32]byte{0x04}, 0, true, 1)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	asset, err := svc.Create(s.ctx, alice)
	s.Require().NoError(err)

	stored, err := svc.Asset(s.ctx, asset.Identity)
	s.Require().NoError(err)
	s.Equal(alice, stored.Owner)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.PublishFailures))
}

// conflictingBackend refuses every commit as if another writer got there first.
type conflictingBackend struct {
	*store.MemoryBackend
}

func (conflictingBackend) Apply(context.Context, *store.Batch) error {
	return sentinel.ErrConflict
}

func (s *GomockRegistrySuite) TestCommitConflictIsRetryable() {
	svc := s.newService(conflictingBackend{s.backend})
	s.expectDraw([32]byte{0x06}, 0, true, 1)

	_, err := svc.Create(s.ctx, alice)
	s.ErrorIs(err, sentinel.ErrConflict)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Rejections.WithLabelValues("create", "conflict")))
}

func BenchmarkCreate(b *testing.B) {
	ctx := context.Background()
	host := &stubHost{block: 1}
	svc := service.New(store.NewTx(store.NewMemoryBackend()), host, host, host)

	callers := make([]id.AccountID, b.N)
	for i := range callers {
		callers[i] = id.AccountID(uuid.New())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Create(ctx, callers[i]); err != nil {
			b.Fatal(err)
		}
	}
}

func (s *RegistrySuite) TestCreateLogsRandomnessAge() {
	var buf bytes.Buffer
	s.host.block = 12
	svc := service.New(store.NewTx(s.backend), s.host, s.host, s.host,
		service.WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)

	_, err := svc.Create(s.ctx, alice)
	s.Require().NoError(err)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "identity randomness drawn") {
			line = l
		}
	}
	s.Require().NotEmpty(line)
	s.Contains(line, "known_since=12")
	s.Contains(line, "block=12")
}
