package store_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"assetd/internal/registry/store"
)

type MemoryBackendSuite struct {
	BackendSuite
}

func TestMemoryBackendSuite(t *testing.T) {
	suite.Run(t, new(MemoryBackendSuite))
}

func (s *MemoryBackendSuite) SetupTest() {
	s.backend = store.NewMemoryBackend()
}

func (s *MemoryBackendSuite) TestSnapshotIsDeepCopy() {
	mem := store.NewMemoryBackend()
	mem.Put([]byte("k"), []byte{1, 2, 3})

	snap := mem.Snapshot()
	snap["k"][0] = 9

	s.Equal([]byte{1, 2, 3}, mem.Snapshot()["k"])
}
