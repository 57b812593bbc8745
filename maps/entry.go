package maps

// KeyValuePair is a single entry of a value-ordered map, as returned by
// Entries, First, Last and FindFirst.
type KeyValuePair[K any, V any] struct {
	Key   K
	Value V
}
