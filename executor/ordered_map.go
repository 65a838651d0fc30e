package executor

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// OrderedMap is a map that remembers the order its keys were added (or assigned) in, and encodes
// to JSON in that order. Execution uses fixed-length ordered maps so that concurrently resolved
// fields can be written to their slot as soon as they're ready, without disturbing the response's
// field order.
type OrderedMap struct {
	keys   []string
	values []interface{}
}

// NewOrderedMap returns an empty, growable OrderedMap. Use Append to add entries to it.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// NewOrderedMapWithLength returns an OrderedMap with n preallocated, initially-empty slots. Use
// Set to populate a slot by index.
func NewOrderedMapWithLength(n int) *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, n),
		values: make([]interface{}, n),
	}
}

// Append adds a new key/value pair to the end of the map.
func (m *OrderedMap) Append(key string, value interface{}) {
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Set assigns the key and value for the slot at index i. i must be within the bounds established
// by NewOrderedMapWithLength.
func (m *OrderedMap) Set(i int, key string, value interface{}) {
	m.keys[i] = key
	m.values[i] = value
}

// Get returns the value associated with key, and whether it was found.
func (m *OrderedMap) Get(key string) (interface{}, bool) {
	for i, k := range m.keys {
		if k == key {
			return m.values[i], true
		}
	}
	return nil, false
}

// Len returns the number of entries in the map.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// Keys returns the map's keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	pairs := make([][]byte, len(m.keys))
	for i, key := range m.keys {
		keyJSON, err := jsoniter.Marshal(key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := jsoniter.Marshal(m.values[i])
		if err != nil {
			return nil, err
		}
		pairs[i] = bytes.Join([][]byte{keyJSON, valueJSON}, []byte{':'})
	}
	return append(append([]byte{'{'}, bytes.Join(pairs, []byte{','})...), '}'), nil
}
