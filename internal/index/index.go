// Package index provides an insertion-ordered, ID-keyed table backed by
// xxHash64 buckets.
package index

import (
	"fmt"
	"iter"

	"github.com/arloliu/seiskit/errs"
	"github.com/arloliu/seiskit/internal/hash"
)

type entry[V any] struct {
	id   string
	hash uint64
	val  V
	live bool
}

// Index maps IDs to values and remembers insertion order.
//
// IDs are bucketed by their xxHash64. Different IDs sharing a hash are
// supported; they are counted by Collisions so callers can report them.
// Index is not safe for concurrent use.
type Index[V any] struct {
	entries    []entry[V]
	buckets    map[uint64][]int // hash → positions in entries
	dead       int
	collisions int
}

// New creates an empty index.
func New[V any]() *Index[V] {
	return &Index[V]{buckets: make(map[uint64][]int)}
}

// Len returns the number of live IDs.
func (x *Index[V]) Len() int {
	return len(x.entries) - x.dead
}

// Collisions returns the number of hash collisions seen between distinct IDs.
func (x *Index[V]) Collisions() int {
	return x.collisions
}

func (x *Index[V]) find(id string, h uint64) int {
	for _, pos := range x.buckets[h] {
		e := &x.entries[pos]
		if e.live && e.id == id {
			return pos
		}
	}

	return -1
}

// Get returns the value stored under id.
func (x *Index[V]) Get(id string) (V, bool) {
	if pos := x.find(id, hash.ID(id)); pos >= 0 {
		return x.entries[pos].val, true
	}

	var zero V

	return zero, false
}

// Has reports whether id is present.
func (x *Index[V]) Has(id string) bool {
	return x.find(id, hash.ID(id)) >= 0
}

// Insert adds id at the end of the insertion order.
// Returns ErrInvalidChannelID for an empty id and ErrDuplicateID when id is present.
func (x *Index[V]) Insert(id string, v V) error {
	if id == "" {
		return errs.ErrInvalidChannelID
	}

	h := hash.ID(id)
	if x.find(id, h) >= 0 {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateID, id)
	}

	for _, pos := range x.buckets[h] {
		if x.entries[pos].live {
			x.collisions++
			break
		}
	}

	x.buckets[h] = append(x.buckets[h], len(x.entries))
	x.entries = append(x.entries, entry[V]{id: id, hash: h, val: v, live: true})

	return nil
}

// Set replaces the value of an existing id. Returns false when id is absent.
func (x *Index[V]) Set(id string, v V) bool {
	pos := x.find(id, hash.ID(id))
	if pos < 0 {
		return false
	}
	x.entries[pos].val = v

	return true
}

// Delete removes id. Returns false when id is absent.
func (x *Index[V]) Delete(id string) bool {
	pos := x.find(id, hash.ID(id))
	if pos < 0 {
		return false
	}

	var zero V
	x.entries[pos].live = false
	x.entries[pos].val = zero
	x.dead++

	if x.dead > len(x.entries)/2 {
		x.compact()
	}

	return true
}

// Rename moves the value stored under oldID to newID, keeping its position
// in the insertion order.
func (x *Index[V]) Rename(oldID, newID string) error {
	if newID == "" {
		return errs.ErrInvalidChannelID
	}

	pos := x.find(oldID, hash.ID(oldID))
	if pos < 0 {
		return fmt.Errorf("%w: %s", errs.ErrChannelNotFound, oldID)
	}
	if oldID == newID {
		return nil
	}

	newHash := hash.ID(newID)
	if x.find(newID, newHash) >= 0 {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateID, newID)
	}

	old := x.entries[pos]
	x.buckets[old.hash] = removePos(x.buckets[old.hash], pos)
	if len(x.buckets[old.hash]) == 0 {
		delete(x.buckets, old.hash)
	}

	x.entries[pos].id = newID
	x.entries[pos].hash = newHash
	x.buckets[newHash] = append(x.buckets[newHash], pos)

	return nil
}

// IDs returns the live IDs in insertion order.
func (x *Index[V]) IDs() []string {
	ids := make([]string, 0, x.Len())
	for i := range x.entries {
		if x.entries[i].live {
			ids = append(ids, x.entries[i].id)
		}
	}

	return ids
}

// All iterates over live (id, value) pairs in insertion order.
func (x *Index[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for i := range x.entries {
			e := &x.entries[i]
			if e.live && !yield(e.id, e.val) {
				return
			}
		}
	}
}

// Reset removes every entry and clears the collision count.
func (x *Index[V]) Reset() {
	x.entries = x.entries[:0]
	clear(x.buckets)
	x.dead = 0
	x.collisions = 0
}

func (x *Index[V]) compact() {
	live := make([]entry[V], 0, x.Len())
	for _, e := range x.entries {
		if e.live {
			live = append(live, e)
		}
	}

	clear(x.buckets)
	for pos, e := range live {
		x.buckets[e.hash] = append(x.buckets[e.hash], pos)
	}

	x.entries = live
	x.dead = 0
}

func removePos(positions []int, pos int) []int {
	for i, p := range positions {
		if p == pos {
			return append(positions[:i], positions[i+1:]...)
		}
	}

	return positions
}
