package orm

import (
	"bytes"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/iov-one/vault/errors"
)

// MultiRef is a list of sorted, de-duplicated primary keys that a single
// non-unique index entry references.
type MultiRef struct {
	Refs [][]byte
}

func (m *MultiRef) Marshal() ([]byte, error) {
	return cbor.Marshal(m)
}

func (m *MultiRef) Unmarshal(raw []byte) error {
	return cbor.Unmarshal(raw, m)
}

// GetRefs returns the list of references, nil-safe
func (m *MultiRef) GetRefs() [][]byte {
	if m == nil {
		return nil
	}
	return m.Refs
}

// Size returns the number of references held
func (m *MultiRef) Size() int {
	return len(m.Refs)
}

// Add inserts this reference in the multiref, sorted by order.
// Returns an error if it is already there
func (m *MultiRef) Add(ref []byte) error {
	i, found := m.findRef(ref)
	if found {
		return errors.Wrap(errors.ErrDuplicate, "cannot add a ref twice")
	}
	// append to end
	if i == len(m.Refs) {
		m.Refs = append(m.Refs, ref)
		return nil
	}
	// or insert in the middle
	m.Refs = append(m.Refs, nil)
	copy(m.Refs[i+1:], m.Refs[i:])
	m.Refs[i] = ref
	return nil
}

// Remove removes this reference from the multiref.
// Returns an error if it was not present
func (m *MultiRef) Remove(ref []byte) error {
	i, found := m.findRef(ref)
	if !found {
		return errors.Wrap(errors.ErrNotFound, "cannot remove missing ref")
	}
	m.Refs = append(m.Refs[:i], m.Refs[i+1:]...)
	return nil
}

// findRef returns the position of the ref in the (sorted) list and whether
// it is present
func (m *MultiRef) findRef(ref []byte) (int, bool) {
	i := sort.Search(len(m.Refs), func(i int) bool {
		return bytes.Compare(m.Refs[i], ref) >= 0
	})
	if i < len(m.Refs) && bytes.Equal(m.Refs[i], ref) {
		return i, true
	}
	return i, false
}
