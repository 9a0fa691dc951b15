package models

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2) so the same record
// always produces identical bytes. Replay compares stored bytes directly.
var encMode cbor.EncMode

// decMode rejects duplicate map keys and indefinite-length items, neither of
// which the encoder ever produces.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("models: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic("models: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeCounter encodes the lifetime creation counter.
func EncodeCounter(n uint32) ([]byte, error) {
	return encMode.Marshal(n)
}

// DecodeCounter is the inverse of EncodeCounter.
func DecodeCounter(data []byte) (uint32, error) {
	var n uint32
	if err := decMode.Unmarshal(data, &n); err != nil {
		return 0, err
	}
	return n, nil
}
