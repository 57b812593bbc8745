package maps

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/amp-labs/amp-valuemap/compare"
	"github.com/amp-labs/amp-valuemap/errors"
	"golang.org/x/exp/constraints"
)

// ValueOrderedMap maps keys to integer values and presents its entries in ascending
// order of value. Keys with equal values are all kept; among them the configured
// tie-break order decides, and insertion order decides whatever the tie-break leaves
// open. Two distinct keys therefore never occupy the same position.
//
// The map owns a private copy of its contents. A key index and a red-black tree share
// the same nodes and are updated together by every mutation, so the ordered view
// always describes the current contents.
//
// Views (Keys, Values, Seq, Backward) are live: each iteration walks the current
// contents. They are read-only, and the map must not be modified while one is being
// ranged over; use RemoveIf to delete entries matching a predicate.
//
// Thread-safety: ValueOrderedMap is not safe for concurrent use. Callers that share
// a map between goroutines must synchronize access themselves.
type ValueOrderedMap[K comparable, V constraints.Integer] struct {
	index   map[K]*rbtNode[K, V]
	tree    *redBlackTree[K, V]
	nextSeq uint64
	cfg     config[K]
}

// NewValueOrderedMap copies source into a new ValueOrderedMap. Keys with equal
// values are ordered by their natural order unless WithTieBreak says otherwise.
// Later changes to source are not reflected in the map.
func NewValueOrderedMap[K cmp.Ordered, V constraints.Integer](
	source map[K]V, opts ...Option[K],
) *ValueOrderedMap[K, V] {
	m := newValueOrderedMap[K, V](config[K]{tieBreak: compare.Natural[K]()}, opts, len(source))

	m.PutAll(source)

	return m
}

// NewValueOrderedMapOf copies the pairs produced by source into a new ValueOrderedMap,
// in the order they are produced. Keys with equal values keep that order unless
// WithTieBreak says otherwise. A key produced twice keeps its first position and
// takes the later value.
func NewValueOrderedMapOf[K comparable, V constraints.Integer](
	source iter.Seq2[K, V], opts ...Option[K],
) *ValueOrderedMap[K, V] {
	m := newValueOrderedMap[K, V](config[K]{}, opts, 0)

	if source != nil {
		m.PutSeq(source)
	}

	return m
}

func newValueOrderedMap[K comparable, V constraints.Integer](
	defaults config[K], opts []Option[K], capacity int,
) *ValueOrderedMap[K, V] {
	m := &ValueOrderedMap[K, V]{
		index: make(map[K]*rbtNode[K, V], capacity),
		cfg:   buildConfig(defaults, opts),
	}

	m.tree = newRedBlackTree[K, V](m.compareNodes)

	return m
}

// compareNodes is the composite order of the tree: value, then tie-break, then
// insertion sequence. Sequences are unique per key, so only a node compared with
// itself yields 0.
func (m *ValueOrderedMap[K, V]) compareNodes(a, b *rbtNode[K, V]) int {
	if c := cmp.Compare(a.value, b.value); c != 0 {
		return c
	}

	if a.key != b.key && m.cfg.tieBreak != nil {
		if c := m.cfg.tieBreak(a.key, b.key); c != 0 {
			return c
		}
	}

	return cmp.Compare(a.seq, b.seq)
}

// Size returns the number of entries in the map.
func (m *ValueOrderedMap[K, V]) Size() int {
	return len(m.index)
}

// IsEmpty reports whether the map has no entries.
func (m *ValueOrderedMap[K, V]) IsEmpty() bool {
	return len(m.index) == 0
}

// ContainsKey reports whether key is in the map.
func (m *ValueOrderedMap[K, V]) ContainsKey(key K) bool {
	_, ok := m.index[key]

	return ok
}

// ContainsValue reports whether any key maps to value. The walk stops at the first
// entry whose value is larger.
func (m *ValueOrderedMap[K, V]) ContainsValue(value V) bool {
	found := false

	m.tree.ascend(func(node *rbtNode[K, V]) bool {
		if node.value == value {
			found = true
		}

		return node.value < value
	})

	return found
}

// Get returns the value stored for key and whether the key was present.
func (m *ValueOrderedMap[K, V]) Get(key K) (V, bool) {
	node, ok := m.index[key]
	if !ok {
		var zero V

		return zero, false
	}

	return node.value, true
}

// GetOrElse returns the value stored for key, or defaultValue if key is absent.
func (m *ValueOrderedMap[K, V]) GetOrElse(key K, defaultValue V) V {
	if value, ok := m.Get(key); ok {
		return value
	}

	return defaultValue
}

// Value is Get for callers that want an error: an absent key yields ErrValueMissing.
func (m *ValueOrderedMap[K, V]) Value(key K) (V, error) {
	value, ok := m.Get(key)
	if !ok {
		return value, fmt.Errorf("%w for key %#v", errors.ErrValueMissing, key)
	}

	return value, nil
}

// Put stores value under key and moves the entry to its position for the new value.
// It returns the previous value and whether one was replaced.
func (m *ValueOrderedMap[K, V]) Put(key K, value V) (previous V, replaced bool) {
	node, ok := m.index[key]
	if !ok {
		node = &rbtNode[K, V]{key: key, value: value, seq: m.nextSeq}
		m.nextSeq++
		m.index[key] = node
		m.tree.insert(node)

		return previous, false
	}

	previous = node.value
	if previous == value {
		return previous, true
	}

	m.tree.remove(node)
	node.value = value
	m.tree.insert(node)

	return previous, true
}

// PutAll stores every entry of other. The map's own tie-break decides where entries
// with equal values land, since Go map iteration order is unspecified.
func (m *ValueOrderedMap[K, V]) PutAll(other map[K]V) {
	for key, value := range other {
		m.Put(key, value)
	}
}

// PutSeq stores every pair produced by seq, in order.
func (m *ValueOrderedMap[K, V]) PutSeq(seq iter.Seq2[K, V]) {
	for key, value := range seq {
		m.Put(key, value)
	}
}

// Remove deletes key from the map, returning the value it held and whether it was present.
func (m *ValueOrderedMap[K, V]) Remove(key K) (previous V, removed bool) {
	node, ok := m.index[key]
	if !ok {
		return previous, false
	}

	delete(m.index, key)
	m.tree.remove(node)

	return node.value, true
}

// RemoveIf deletes every entry for which predicate returns true and reports how many
// were deleted.
func (m *ValueOrderedMap[K, V]) RemoveIf(predicate func(key K, value V) bool) int {
	var doomed []*rbtNode[K, V]

	m.tree.ascend(func(node *rbtNode[K, V]) bool {
		if predicate(node.key, node.value) {
			doomed = append(doomed, node)
		}

		return true
	})

	for _, node := range doomed {
		delete(m.index, node.key)
		m.tree.remove(node)
	}

	return len(doomed)
}

// Clear removes every entry. Insertion sequence numbering carries on, so keys added
// afterwards still order after each other by insertion.
func (m *ValueOrderedMap[K, V]) Clear() {
	m.cfg.logger.Debug("clearing value-ordered map", slog.Int("entries", len(m.index)))

	clear(m.index)
	m.tree.clear()
}

// Keys returns a live view of the keys in ascending value order.
func (m *ValueOrderedMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.tree.ascend(func(node *rbtNode[K, V]) bool {
			return yield(node.key)
		})
	}
}

// Values returns a live view of the values in ascending order. Repeated values are
// produced once per key.
func (m *ValueOrderedMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.tree.ascend(func(node *rbtNode[K, V]) bool {
			return yield(node.value)
		})
	}
}

// Seq returns a live view of the entries in ascending value order:
//
//	for key, value := range m.Seq() { ... }
func (m *ValueOrderedMap[K, V]) Seq() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.tree.ascend(func(node *rbtNode[K, V]) bool {
			return yield(node.key, node.value)
		})
	}
}

// Backward returns a live view of the entries in descending value order.
func (m *ValueOrderedMap[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.tree.descend(func(node *rbtNode[K, V]) bool {
			return yield(node.key, node.value)
		})
	}
}

// Entries returns a copy of the entries in ascending value order.
func (m *ValueOrderedMap[K, V]) Entries() []KeyValuePair[K, V] {
	out := make([]KeyValuePair[K, V], 0, len(m.index))

	for key, value := range m.Seq() {
		out = append(out, KeyValuePair[K, V]{Key: key, Value: value})
	}

	return out
}

// First returns the entry with the smallest value.
func (m *ValueOrderedMap[K, V]) First() (KeyValuePair[K, V], bool) {
	return pairOf(m.tree.first())
}

// Last returns the entry with the largest value.
func (m *ValueOrderedMap[K, V]) Last() (KeyValuePair[K, V], bool) {
	return pairOf(m.tree.last())
}

func pairOf[K comparable, V constraints.Integer](node *rbtNode[K, V]) (KeyValuePair[K, V], bool) {
	if node == nil {
		return KeyValuePair[K, V]{}, false
	}

	return KeyValuePair[K, V]{Key: node.key, Value: node.value}, true
}

// Rank returns the zero-based position of key in ascending value order.
func (m *ValueOrderedMap[K, V]) Rank(key K) (int, error) {
	target, ok := m.index[key]
	if !ok {
		return -1, fmt.Errorf("%w: %#v", errors.ErrKeyNotFound, key)
	}

	rank := 0

	m.tree.ascend(func(node *rbtNode[K, V]) bool {
		if node == target {
			return false
		}

		rank++

		return true
	})

	return rank, nil
}

// ForEach calls f for every entry in ascending value order.
func (m *ValueOrderedMap[K, V]) ForEach(f func(key K, value V)) {
	for key, value := range m.Seq() {
		f(key, value)
	}
}

// ForAll returns true if predicate holds for every entry. Returns true for an empty map.
func (m *ValueOrderedMap[K, V]) ForAll(predicate func(key K, value V) bool) bool {
	for key, value := range m.Seq() {
		if !predicate(key, value) {
			return false
		}
	}

	return true
}

// Exists returns true if at least one entry satisfies predicate.
func (m *ValueOrderedMap[K, V]) Exists(predicate func(key K, value V) bool) bool {
	_, found := m.FindFirst(predicate)

	return found
}

// FindFirst returns the lowest-valued entry that satisfies predicate.
func (m *ValueOrderedMap[K, V]) FindFirst(predicate func(key K, value V) bool) (KeyValuePair[K, V], bool) {
	for key, value := range m.Seq() {
		if predicate(key, value) {
			return KeyValuePair[K, V]{Key: key, Value: value}, true
		}
	}

	return KeyValuePair[K, V]{}, false
}

// Filter returns a new map holding the entries that satisfy predicate. The new map
// uses the same tie-break and logger, and its entries keep their relative insertion
// order, so tied keys stay where they were after later updates.
func (m *ValueOrderedMap[K, V]) Filter(predicate func(key K, value V) bool) *ValueOrderedMap[K, V] {
	out := newValueOrderedMap[K, V](m.cfg, nil, 0)

	for _, node := range m.nodesBySeq() {
		if predicate(node.key, node.value) {
			out.Put(node.key, node.value)
		}
	}

	return out
}

// Clone returns an independent copy of the map with identical ordering.
func (m *ValueOrderedMap[K, V]) Clone() *ValueOrderedMap[K, V] {
	out := newValueOrderedMap[K, V](m.cfg, nil, len(m.index))

	for _, node := range m.nodesBySeq() {
		out.Put(node.key, node.value)
	}

	return out
}

// nodesBySeq returns the nodes in insertion order. Copying in this order keeps every
// tie where it was.
func (m *ValueOrderedMap[K, V]) nodesBySeq() []*rbtNode[K, V] {
	nodes := make([]*rbtNode[K, V], 0, len(m.index))
	for _, node := range m.index {
		nodes = append(nodes, node)
	}

	slices.SortFunc(nodes, func(a, b *rbtNode[K, V]) int {
		return cmp.Compare(a.seq, b.seq)
	})

	return nodes
}

// String renders the map as ValueOrderedMap[k:v k:v ...] in ascending value order.
func (m *ValueOrderedMap[K, V]) String() string {
	var sb strings.Builder

	sb.WriteString("ValueOrderedMap[")

	first := true

	for key, value := range m.Seq() {
		if !first {
			sb.WriteByte(' ')
		}

		first = false

		fmt.Fprintf(&sb, "%v:%d", key, value)
	}

	sb.WriteByte(']')

	return sb.String()
}

// Validate checks that the key index and the ordered tree describe the same entries
// in a consistent order, and that the tree is a valid red-black tree. Every problem
// is logged and returned, wrapped in ErrInvariantViolation.
func (m *ValueOrderedMap[K, V]) Validate() error {
	problems := &errors.Collection{}

	report := func(problem string) {
		m.cfg.logger.Warn("value-ordered map invariant violated", slog.String("problem", problem))
		problems.Add(fmt.Errorf("%w: %s", errors.ErrInvariantViolation, problem))
	}

	reachable := m.tree.check(report)
	if reachable != len(m.index) {
		report(fmt.Sprintf("tree holds %d nodes but index holds %d keys", reachable, len(m.index)))
	}

	var previous *rbtNode[K, V]

	m.tree.ascend(func(node *rbtNode[K, V]) bool {
		if indexed, ok := m.index[node.key]; !ok || indexed != node {
			report(fmt.Sprintf("node %v is not the indexed entry for its key", node))
		}

		if previous != nil && m.compareNodes(previous, node) >= 0 {
			report(fmt.Sprintf("node %v is not ordered after %v", node, previous))
		}

		previous = node

		return true
	})

	return problems.GetError()
}
