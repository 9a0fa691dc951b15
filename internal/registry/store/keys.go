package store

import (
	"golang.org/x/crypto/blake2b"

	id "assetd/pkg/domain"
)

// Map keys are prefix || blake2b-128(key) || key. The hash spreads keys
// evenly across ordered backends; the raw suffix keeps keys reversible.
var (
	counterKey  = []byte("registry/counter")
	chainKey    = []byte("registry/chain")
	assetPrefix = []byte("registry/asset/")
	ownedPrefix = []byte("registry/owned/")
)

const keyHashSize = 16

func hashedKey(prefix, key []byte) []byte {
	h, err := blake2b.New(keyHashSize, nil)
	if err != nil {
		// Only reachable with an invalid size or key length.
		panic("store: blake2b init: " + err.Error())
	}
	h.Write(key)

	out := make([]byte, 0, len(prefix)+keyHashSize+len(key))
	out = append(out, prefix...)
	out = h.Sum(out)
	return append(out, key...)
}

// AssetKey is the backend key of an asset record.
func AssetKey(identity id.Identity) []byte {
	return hashedKey(assetPrefix, identity)
}

// OwnedKey is the backend key of an account's owner-index entry.
func OwnedKey(account id.AccountID) []byte {
	return hashedKey(ownedPrefix, account.Bytes())
}

// CounterKey is the backend key of the lifetime creation counter.
func CounterKey() []byte {
	return append([]byte(nil), counterKey...)
}

// ChainKey is the backend key of the host's persisted chain head. It shares
// the backend with the registry so both survive a restart together.
func ChainKey() []byte {
	return append([]byte(nil), chainKey...)
}
