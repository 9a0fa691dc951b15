package host

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	headEncMode cbor.EncMode
	headDecMode cbor.DecMode
)

func init() {
	var err error
	headEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("host: CBOR encoder initialization failed: " + err.Error())
	}
	headDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic("host: CBOR decoder initialization failed: " + err.Error())
	}
}

// head is the persisted chain state, encoded as the CBOR array
// [number, parent, timestamp, beacon_latest, [hash...]]. Number is the block
// being built when the record was written.
type head struct {
	_            struct{} `cbor:",toarray"`
	Number       uint64
	Parent       []byte
	Timestamp    uint64
	BeaconLatest uint64
	Beacon       [][]byte
}

func newHead(number uint64, parent [32]byte, timestamp, beaconLatest uint64, window [][32]byte) head {
	h := head{
		Number:       number,
		Parent:       append([]byte(nil), parent[:]...),
		Timestamp:    timestamp,
		BeaconLatest: beaconLatest,
		Beacon:       make([][]byte, len(window)),
	}
	for i := range window {
		h.Beacon[i] = append([]byte(nil), window[i][:]...)
	}
	return h
}

func (h head) encode() ([]byte, error) {
	return headEncMode.Marshal(h)
}

func decodeHead(data []byte) (head, [32]byte, [][32]byte, error) {
	var h head
	var parent [32]byte
	if err := headDecMode.Unmarshal(data, &h); err != nil {
		return head{}, parent, nil, fmt.Errorf("decode chain head: %w", err)
	}
	if len(h.Parent) != len(parent) {
		return head{}, parent, nil, fmt.Errorf("decode chain head: parent hash is %d bytes", len(h.Parent))
	}
	copy(parent[:], h.Parent)

	window := make([][32]byte, len(h.Beacon))
	for i, raw := range h.Beacon {
		if len(raw) != 32 {
			return head{}, parent, nil, fmt.Errorf("decode chain head: beacon hash %d is %d bytes", i, len(raw))
		}
		copy(window[i][:], raw)
	}
	return h, parent, window, nil
}
