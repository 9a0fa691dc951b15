package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"assetd/internal/registry/store"
)

func TestBatchReadKeysKeepsFirstTouchOrder(t *testing.T) {
	batch := &store.Batch{
		Reads: []store.Read{
			{Key: []byte("b"), Value: []byte("1"), Present: true},
			{Key: []byte("a")},
		},
		Writes: []store.Write{{Key: []byte("c"), Value: []byte("2")}},
	}
	assert.Equal(t, [][]byte{[]byte("b"), []byte("a")}, batch.ReadKeys())
	assert.Empty(t, (&store.Batch{}).ReadKeys())
}
