package query

import "encoding/json"

// Key identifies a cached read. Two keys are equal iff their elements are
// equal pairwise.
type Key []string

// NewKey returns a Key holding its own copy of parts.
func NewKey(parts ...string) Key {
	k := make(Key, len(parts))
	copy(k, parts)
	return k
}

// Equal reports element-wise equality.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// String returns the canonical encoding the cache indexes entries by.
// JSON array encoding keeps ["a,b"] and ["a","b"] distinct.
func (k Key) String() string {
	if len(k) == 0 {
		return "[]"
	}
	b, _ := json.Marshal([]string(k))
	return string(b)
}
