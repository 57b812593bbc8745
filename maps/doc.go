// Package maps provides ValueOrderedMap, a map from keys to integer values whose
// entries are presented in ascending order of value instead of key or insertion order.
//
// # Overview
//
// A ValueOrderedMap is built from an existing Go map or from any iter.Seq2 of pairs,
// and afterwards behaves like an ordinary mutable map:
//
//	m := maps.NewValueOrderedMap(map[string]int{"hello": 2, "world": 1, "prez": 3})
//	m.Put("xyz", 0)
//	m.Remove("prez")
//
//	for key, value := range m.Seq() {
//	    fmt.Println(key, value) // xyz 0, world 1, hello 2
//	}
//
// # Ties
//
// Several keys may share a value; all of them are kept. Their relative order is set by
// the tie-break order given with WithTieBreak (see package compare for ready-made
// orders), and whatever the tie-break cannot decide is decided by insertion order.
// NewValueOrderedMap defaults to the keys' natural order, NewValueOrderedMapOf to
// insertion order.
//
// # Complexity
//
// Get, ContainsKey and Size are O(1). Put and Remove are O(log n). Rank and
// ContainsValue walk the entries in order and are O(n) in the worst case.
package maps
