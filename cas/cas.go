// Package cas is a content-addressed store for serializable values. Entries
// are keyed by the farmhash of their msgpack encoding, so equal values
// collapse onto one entry and the store doubles as a duplicate counter.
package cas

import (
	"bytes"
	"fmt"
	"io"
)

type CAS interface {
	Put(item Hashable) (Hash, error)
	Has(hash Hash) bool
	Len() int

	// Hits reports how many times an item with this hash was Put.
	Hits(hash Hash) int

	getValue(h Hash) (bool, []byte, error)
}

type Serde interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

type Hashable interface {
	Serde
}

type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("0x%016x", uint64(h))
}

// Retrieve decodes the entry stored under hash into a new T.
func Retrieve[T any, PT interface {
	*T
	Hashable
}](c CAS, hash Hash) (*T, error) {
	has, data, err := c.getValue(hash)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("hash not found in CAS: %s", hash)
	}
	out := PT(new(T))
	if err := out.Deserialize(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("deserializing %s: %w", hash, err)
	}
	return (*T)(out), nil
}
