// Package skiplist implements a probabilistic ordered map: a generic skip
// list keyed by any comparable-by-function key type. pkg/cluster uses it as
// each shard's ordered in-memory index; Ceil answers "the entry at or after
// key X" when an exact match is not needed.
//
// © 2025 contihash authors. MIT License.
package skiplist

import (
	"errors"
	"iter"
	"math/rand/v2"
)

// MaxHeight bounds the number of forward-pointer levels a node may have.
const MaxHeight = 16

// ErrDuplicate is returned by Insert when the key already exists.
var ErrDuplicate = errors.New("skiplist: duplicate key")

// ErrNotFound is returned by Remove when the key does not exist.
var ErrNotFound = errors.New("skiplist: not found")

// Compare orders two keys: negative if a < b, zero if equal, positive if
// a > b. Matches the convention of cmp.Compare and slices.SortFunc.
type Compare[K any] func(a, b K) int

type node[K any, V any] struct {
	key     K
	val     V
	forward []*node[K, V]
}

// List is a skip list mapping keys of type K to values of type V. The zero
// value is not usable; construct with New. A List is not safe for
// concurrent use without external synchronization, matching the reference
// implementation it is ported from.
type List[K any, V any] struct {
	cmp       Compare[K]
	head      *node[K, V]
	tail      *node[K, V]
	maxHeight int
	p         float64
	curHeight int
	rng       *rand.Rand
	count     int
}

// New constructs an empty List. maxHeight caps the number of levels a node
// may span (spec default 16, see MaxHeight); p is the level-promotion
// probability (commonly 0.25 or 0.5); maxKey seeds the tail sentinel and
// must compare greater than every key ever inserted; seed makes level
// selection reproducible across runs with the same insert order.
func New[K any, V any](maxHeight int, p float64, maxKey K, cmp Compare[K], seed uint64) *List[K, V] {
	if maxHeight <= 0 {
		maxHeight = MaxHeight
	}
	if p <= 0 || p >= 1 {
		p = 0.5
	}

	var zeroKey K
	var zeroVal V
	tail := &node[K, V]{key: maxKey}
	head := &node[K, V]{key: zeroKey, val: zeroVal, forward: make([]*node[K, V], maxHeight)}
	for i := range head.forward {
		head.forward[i] = tail
	}

	return &List[K, V]{
		cmp:       cmp,
		head:      head,
		tail:      tail,
		maxHeight: maxHeight,
		p:         p,
		curHeight: 0,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Len returns the number of keys currently stored.
func (l *List[K, V]) Len() int { return l.count }

// findNearest walks down from curHeight, at each level advancing while the
// next node's key is strictly less than key, recording the last node
// visited at that level in update. The node returned is the first whose key
// is >= key (possibly the tail sentinel, meaning no such key exists).
func (l *List[K, V]) findNearest(key K) (candidate *node[K, V], update [MaxHeight]*node[K, V]) {
	x := l.head
	for i := l.curHeight; i >= 0; i-- {
		for x.forward[i] != l.tail && l.cmp(x.forward[i].key, key) < 0 {
			x = x.forward[i]
		}
		update[i] = x
	}
	return x.forward[0], update
}

// randomHeight draws a node height in [0, maxHeight-1] (0-indexed; height 0
// means the node only appears at level 0) via repeated coin flips at
// probability p, the classic skip-list level-selection rule.
func (l *List[K, V]) randomHeight() int {
	h := 0
	for l.rng.Float64() < l.p && h < l.maxHeight-1 {
		h++
	}
	return h
}

// Insert adds key/val. Returns ErrDuplicate if key already exists; the list
// never overwrites in place, matching the reference's insert semantics.
func (l *List[K, V]) Insert(key K, val V) error {
	candidate, update := l.findNearest(key)
	if candidate != l.tail && l.cmp(candidate.key, key) == 0 {
		return ErrDuplicate
	}

	h := l.randomHeight()
	if h > l.curHeight {
		for i := l.curHeight + 1; i <= h; i++ {
			update[i] = l.head
		}
		l.curHeight = h
	}

	n := &node[K, V]{key: key, val: val, forward: make([]*node[K, V], h+1)}
	for i := 0; i <= h; i++ {
		n.forward[i] = update[i].forward[i]
		update[i].forward[i] = n
	}
	l.count++
	return nil
}

// Remove deletes key. Returns ErrNotFound if key is absent.
func (l *List[K, V]) Remove(key K) error {
	candidate, update := l.findNearest(key)
	if candidate == l.tail || l.cmp(candidate.key, key) != 0 {
		return ErrNotFound
	}

	for i := 0; i < len(candidate.forward); i++ {
		if update[i].forward[i] == candidate {
			update[i].forward[i] = candidate.forward[i]
		}
	}
	for l.curHeight > 0 && l.head.forward[l.curHeight] == l.tail {
		l.curHeight--
	}
	l.count--
	return nil
}

// Find returns the value stored at key and true, or the zero value and
// false if key is absent.
func (l *List[K, V]) Find(key K) (V, bool) {
	candidate, _ := l.findNearest(key)
	if candidate == l.tail || l.cmp(candidate.key, key) != 0 {
		var zero V
		return zero, false
	}
	return candidate.val, true
}

// Ceil returns the candidate entry whose key equals key or is the least key
// strictly greater than key — the same node findNearest computes — without
// requiring an exact match. The second return is false only when every
// stored key is less than key.
func (l *List[K, V]) Ceil(key K) (K, V, bool) {
	candidate, _ := l.findNearest(key)
	if candidate == l.tail {
		var zk K
		var zv V
		return zk, zv, false
	}
	return candidate.key, candidate.val, true
}

// Bound describes one endpoint of a Range query: the key the search landed
// on, or AtTail when no such key exists (the query ran off the end of the
// list).
type Bound[K any, V any] struct {
	Key    K
	Val    V
	AtTail bool
}

// RangeBounds returns the two candidate nodes a Range(lo, hi) query would
// walk between, without materialising anything in between. This mirrors the
// cheap "boundary pair" the reference implementation's find_range exposed
// for free alongside full iteration.
func (l *List[K, V]) RangeBounds(lo, hi K) (Bound[K, V], Bound[K, V]) {
	loCand, _ := l.findNearest(lo)
	hiCand, _ := l.findNearest(hi)

	toBound := func(n *node[K, V]) Bound[K, V] {
		if n == l.tail {
			return Bound[K, V]{AtTail: true}
		}
		return Bound[K, V]{Key: n.key, Val: n.val}
	}
	return toBound(loCand), toBound(hiCand)
}

// Range iterates the half-open interval [lo, hi) in ascending key order.
// If lo >= hi the sequence yields nothing.
func (l *List[K, V]) Range(lo, hi K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if l.cmp(lo, hi) >= 0 {
			return
		}
		loCand, _ := l.findNearest(lo)
		hiCand, _ := l.findNearest(hi)
		for n := loCand; n != l.tail && n != hiCand; n = n.forward[0] {
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

// All iterates every stored key/value in ascending key order.
func (l *List[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := l.head.forward[0]; n != l.tail; n = n.forward[0] {
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}
