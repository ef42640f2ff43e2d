// Package snapshot remembers the last value sent per category and reports
// whether a new value differs from it.
//
// Equality is structural: values are encoded with CBOR Core Deterministic
// Encoding and compared by their BLAKE3 digest, so two independently built
// values with the same content compare equal.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Digest identifies the content of a value.
type Digest [32]byte

var encMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	// nil and empty collections carry the same content.
	opts.NilContainers = cbor.NilContainerAsEmpty
	var err error
	encMode, err = opts.EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}
}

// Encode returns the deterministic encoding of v.
func Encode(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Sum returns the digest of v's deterministic encoding.
func Sum(v any) (Digest, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return Digest{}, fmt.Errorf("snapshot: encode %T: %w", v, err)
	}
	return blake3.Sum256(data), nil
}

// Equal reports whether a and b have the same content. Values that fail to
// encode are never equal.
func Equal(a, b any) bool {
	da, err := Sum(a)
	if err != nil {
		return false
	}
	db, err := Sum(b)
	if err != nil {
		return false
	}
	return da == db
}
