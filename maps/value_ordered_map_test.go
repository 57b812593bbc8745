package maps_test

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/amp-labs/amp-valuemap/compare"
	"github.com/amp-labs/amp-valuemap/errors"
	"github.com/amp-labs/amp-valuemap/hashing"
	"github.com/amp-labs/amp-valuemap/maps"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() map[string]int {
	return map[string]int{
		"hello":   2,
		"world":   1,
		"obama":   1,
		"cricket": 1,
		"prez":    3,
	}
}

func newSample(t *testing.T) *maps.ValueOrderedMap[string, int] {
	t.Helper()

	return maps.NewValueOrderedMap(sample(), maps.WithLogger[string](slogt.New(t)))
}

func pairs[K comparable, V any](keys []K, values []V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, key := range keys {
			if !yield(key, values[i]) {
				return
			}
		}
	}
}

func TestNewValueOrderedMap(t *testing.T) {
	t.Parallel()

	t.Run("orders the sample by value then key", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		assert.Equal(t, 5, m.Size())
		assert.Equal(t, []string{"cricket", "obama", "world", "hello", "prez"}, slices.Collect(m.Keys()))
		assert.Equal(t, []int{1, 1, 1, 2, 3}, slices.Collect(m.Values()))
		require.NoError(t, m.Validate())
	})

	t.Run("every source key round-trips", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		for key, value := range sample() {
			got, ok := m.Get(key)
			assert.True(t, ok, key)
			assert.Equal(t, value, got, key)
		}
	})

	t.Run("later changes to the source are not reflected", func(t *testing.T) {
		t.Parallel()

		source := sample()
		m := maps.NewValueOrderedMap(source)

		source["hello"] = 100
		source["extra"] = 0
		delete(source, "prez")

		assert.Equal(t, 5, m.Size())
		assert.Equal(t, 2, m.GetOrElse("hello", -1))
		assert.False(t, m.ContainsKey("extra"))
		assert.True(t, m.ContainsKey("prez"))
	})

	t.Run("nil and empty sources", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMap[string, int](nil)

		assert.True(t, m.IsEmpty())
		assert.Empty(t, m.Entries())
		assert.Equal(t, "ValueOrderedMap[]", m.String())

		_, ok := m.First()
		assert.False(t, ok)
	})

	t.Run("works with any integer value type", func(t *testing.T) {
		t.Parallel()

		small := maps.NewValueOrderedMap(map[int]int8{1: -3, 2: 127, 3: -128})
		assert.Equal(t, []int{3, 1, 2}, slices.Collect(small.Keys()))

		unsigned := maps.NewValueOrderedMap(map[string]uint64{"a": 1 << 63, "b": 0})
		assert.Equal(t, []string{"b", "a"}, slices.Collect(unsigned.Keys()))
	})
}

func TestNewValueOrderedMapOf(t *testing.T) {
	t.Parallel()

	t.Run("ties keep production order", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMapOf(pairs(
			[]string{"world", "hello", "obama", "prez", "cricket"},
			[]int{1, 2, 1, 3, 1},
		))

		assert.Equal(t, []string{"world", "obama", "cricket", "hello", "prez"}, slices.Collect(m.Keys()))
	})

	t.Run("repeated key takes the later value", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMapOf(pairs([]string{"a", "b", "a"}, []int{5, 6, 7}))

		assert.Equal(t, 2, m.Size())
		assert.Equal(t, []string{"b", "a"}, slices.Collect(m.Keys()))
	})

	t.Run("keys without a natural order", func(t *testing.T) {
		t.Parallel()

		type point struct{ x, y int }

		m := maps.NewValueOrderedMapOf(pairs(
			[]point{{1, 1}, {0, 0}, {2, 2}},
			[]int{0, 0, -1},
		))

		assert.Equal(t, []point{{2, 2}, {1, 1}, {0, 0}}, slices.Collect(m.Keys()))
	})

	t.Run("nil source", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMapOf[string, int](nil)
		assert.Equal(t, 0, m.Size())
	})
}

func TestValueOrderedMap_TieBreak(t *testing.T) {
	t.Parallel()

	t.Run("natural string order", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMap(
			map[string]int{"item10": 1, "item2": 1, "item1": 1, "zero": 0},
			maps.WithTieBreak(compare.NaturalStrings()),
		)

		assert.Equal(t, []string{"zero", "item1", "item2", "item10"}, slices.Collect(m.Keys()))
	})

	t.Run("reverse key order", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMap(sample(), maps.WithTieBreak(compare.Reverse(compare.Natural[string]())))

		assert.Equal(t, []string{"world", "obama", "cricket", "hello", "prez"}, slices.Collect(m.Keys()))
	})

	t.Run("hash order is deterministic", func(t *testing.T) {
		t.Parallel()

		source := map[hashing.HashableString]int{}
		for key, value := range sample() {
			source[hashing.HashableString(key)] = value
		}

		order := compare.ByHash[hashing.HashableString](hashing.Xxh3)

		build := func() []hashing.HashableString {
			var seq iter.Seq2[hashing.HashableString, int] = func(yield func(hashing.HashableString, int) bool) {
				for key, value := range source {
					if !yield(key, value) {
						return
					}
				}
			}

			m := maps.NewValueOrderedMapOf(seq, maps.WithTieBreak(order))

			require.NoError(t, m.Validate())

			return slices.Collect(m.Keys())
		}

		first := build()
		assert.Equal(t, first, build())
		assert.Len(t, first, 5)
		assert.Equal(t, hashing.HashableString("hello"), first[3])
		assert.Equal(t, hashing.HashableString("prez"), first[4])
	})

	t.Run("a tie-break that never decides falls back to insertion order", func(t *testing.T) {
		t.Parallel()

		undecided := func(string, string) int { return 0 }

		m := maps.NewValueOrderedMapOf(
			pairs([]string{"c", "a", "b"}, []int{1, 1, 1}),
			maps.WithTieBreak[string](undecided),
		)

		assert.Equal(t, 3, m.Size())
		assert.Equal(t, []string{"c", "a", "b"}, slices.Collect(m.Keys()))
	})

	t.Run("nil tie-break uses insertion order", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMap(map[string]int{"only": 1}, maps.WithTieBreak[string](nil))
		m.Put("b", 1)
		m.Put("a", 1)

		assert.Equal(t, []string{"only", "b", "a"}, slices.Collect(m.Keys()))
	})
}

func TestValueOrderedMap_TieBreakIgnoresInsertionOrder(t *testing.T) {
	t.Parallel()

	keys := []string{"", "1", "01", "x1", "x01", "x001", "x1a", "x01a", "y", "a", "b", "item2", "item10"}
	byHash := compare.ByHash[hashing.HashableString](hashing.Xxh3)

	tests := []struct {
		name  string
		order compare.Order[string]
	}{
		{name: "natural", order: compare.Natural[string]()},
		{name: "natural strings", order: compare.NaturalStrings()},
		{name: "reverse natural strings", order: compare.Reverse(compare.NaturalStrings())},
		{name: "hash", order: func(a, b string) int {
			return byHash(hashing.HashableString(a), hashing.HashableString(b))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			build := func(order []string) []string {
				values := make([]int, len(order))
				for i, key := range order {
					values[i] = len(key) % 2
				}

				m := maps.NewValueOrderedMapOf(pairs(order, values), maps.WithTieBreak(tt.order))
				require.NoError(t, m.Validate())

				return slices.Collect(m.Keys())
			}

			want := build(keys)
			require.Len(t, want, len(keys))

			rng := rand.New(rand.NewPCG(3, 5)) //nolint:gosec // deterministic test data

			for range 50 {
				shuffled := slices.Clone(keys)
				rng.Shuffle(len(shuffled), func(i, j int) {
					shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
				})

				assert.Equal(t, want, build(shuffled), "inserted as %q", shuffled)
			}
		})
	}
}

func TestValueOrderedMap_Put(t *testing.T) {
	t.Parallel()

	t.Run("new smallest key goes first", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		previous, replaced := m.Put("xyz", 0)

		assert.False(t, replaced)
		assert.Zero(t, previous)
		assert.Equal(t, 6, m.Size())

		first, ok := m.First()
		require.True(t, ok)
		assert.Equal(t, maps.KeyValuePair[string, int]{Key: "xyz", Value: 0}, first)
		assert.Equal(t, "xyz", slices.Collect(m.Keys())[0])
		require.NoError(t, m.Validate())
	})

	t.Run("updating a value moves the entry", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		previous, replaced := m.Put("cricket", 10)

		assert.True(t, replaced)
		assert.Equal(t, 1, previous)
		assert.Equal(t, 5, m.Size())
		assert.Equal(t, []string{"obama", "world", "hello", "prez", "cricket"}, slices.Collect(m.Keys()))
		require.NoError(t, m.Validate())
	})

	t.Run("putting the same value is a no-op", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)
		before := m.Entries()

		previous, replaced := m.Put("hello", 2)

		assert.True(t, replaced)
		assert.Equal(t, 2, previous)
		assert.Equal(t, before, m.Entries())
	})

	t.Run("duplicate values never drop entries", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMap[int, int](nil)
		for i := range 100 {
			m.Put(i, 42)
		}

		assert.Equal(t, 100, m.Size())
		assert.Len(t, slices.Collect(m.Keys()), 100)
		require.NoError(t, m.Validate())
	})
}

func TestValueOrderedMap_PutAll(t *testing.T) {
	t.Parallel()

	t.Run("map", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)
		m.PutAll(map[string]int{"hello": -1, "new": 5})

		assert.Equal(t, 6, m.Size())
		assert.Equal(t, []string{"hello", "cricket", "obama", "world", "prez", "new"}, slices.Collect(m.Keys()))
	})

	t.Run("sequence", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMapOf[string, int](nil)
		m.PutSeq(pairs([]string{"b", "a"}, []int{1, 1}))
		m.PutSeq(newSample(t).Seq())

		assert.Equal(t, 7, m.Size())
		assert.Equal(t, []string{"b", "a", "cricket", "obama", "world", "hello", "prez"}, slices.Collect(m.Keys()))
	})
}

func TestValueOrderedMap_Remove(t *testing.T) {
	t.Parallel()

	t.Run("removes from every view", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		previous, removed := m.Remove("hello")

		assert.True(t, removed)
		assert.Equal(t, 2, previous)
		assert.Equal(t, 4, m.Size())
		assert.False(t, m.ContainsKey("hello"))
		assert.False(t, m.ContainsValue(2))
		assert.NotContains(t, slices.Collect(m.Keys()), "hello")
		assert.NotContains(t, slices.Collect(m.Values()), 2)

		for key := range m.Seq() {
			assert.NotEqual(t, "hello", key)
		}

		require.NoError(t, m.Validate())
	})

	t.Run("missing key is a no-op", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		_, removed := m.Remove("nobody")

		assert.False(t, removed)
		assert.Equal(t, 5, m.Size())
	})

	t.Run("removed key can come back", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)
		m.Remove("prez")
		m.Put("prez", 0)

		assert.Equal(t, []string{"prez", "cricket", "obama", "world", "hello"}, slices.Collect(m.Keys()))
	})
}

func TestValueOrderedMap_RemoveIf(t *testing.T) {
	t.Parallel()

	m := newSample(t)

	removed := m.RemoveIf(func(_ string, value int) bool { return value == 1 })

	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"hello", "prez"}, slices.Collect(m.Keys()))
	assert.Equal(t, 0, m.RemoveIf(func(string, int) bool { return false }))
	require.NoError(t, m.Validate())
}

func TestValueOrderedMap_Clear(t *testing.T) {
	t.Parallel()

	m := newSample(t)
	m.Clear()

	assert.True(t, m.IsEmpty())
	assert.Empty(t, slices.Collect(m.Keys()))
	require.NoError(t, m.Validate())

	m.Put("again", 1)
	assert.Equal(t, 1, m.Size())
}

func TestValueOrderedMap_Lookups(t *testing.T) {
	t.Parallel()

	m := newSample(t)

	t.Run("contains", func(t *testing.T) {
		t.Parallel()

		assert.True(t, m.ContainsKey("obama"))
		assert.False(t, m.ContainsKey("biden"))
		assert.True(t, m.ContainsValue(3))
		assert.True(t, m.ContainsValue(1))
		assert.False(t, m.ContainsValue(0))
		assert.False(t, m.ContainsValue(4))
	})

	t.Run("get", func(t *testing.T) {
		t.Parallel()

		value, ok := m.Get("prez")
		assert.True(t, ok)
		assert.Equal(t, 3, value)

		value, ok = m.Get("nobody")
		assert.False(t, ok)
		assert.Zero(t, value)

		assert.Equal(t, -1, m.GetOrElse("nobody", -1))
	})

	t.Run("value reports a missing key", func(t *testing.T) {
		t.Parallel()

		value, err := m.Value("hello")
		require.NoError(t, err)
		assert.Equal(t, 2, value)

		_, err = m.Value("nobody")
		require.ErrorIs(t, err, errors.ErrValueMissing)
		assert.Contains(t, err.Error(), `"nobody"`)
	})

	t.Run("rank", func(t *testing.T) {
		t.Parallel()

		for i, key := range []string{"cricket", "obama", "world", "hello", "prez"} {
			rank, err := m.Rank(key)
			require.NoError(t, err)
			assert.Equal(t, i, rank, key)
		}

		_, err := m.Rank("nobody")
		require.ErrorIs(t, err, errors.ErrKeyNotFound)
	})

	t.Run("first and last", func(t *testing.T) {
		t.Parallel()

		first, ok := m.First()
		require.True(t, ok)
		assert.Equal(t, "cricket", first.Key)

		last, ok := m.Last()
		require.True(t, ok)
		assert.Equal(t, maps.KeyValuePair[string, int]{Key: "prez", Value: 3}, last)
	})
}

func TestValueOrderedMap_Views(t *testing.T) {
	t.Parallel()

	t.Run("seq is idempotent", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		assert.Equal(t, m.Entries(), m.Entries())
		assert.Equal(t, slices.Collect(m.Keys()), slices.Collect(m.Keys()))
	})

	t.Run("views are live", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)
		keys := m.Keys()

		assert.Len(t, slices.Collect(keys), 5)

		m.Put("xyz", 0)
		m.Remove("prez")

		assert.Equal(t, []string{"xyz", "cricket", "obama", "world", "hello"}, slices.Collect(keys))
	})

	t.Run("entries are a frozen copy", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)
		entries := m.Entries()

		m.Clear()

		assert.Len(t, entries, 5)
		assert.Equal(t, "cricket", entries[0].Key)
	})

	t.Run("backward", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		var keys []string
		for key := range m.Backward() {
			keys = append(keys, key)
		}

		assert.Equal(t, []string{"prez", "hello", "world", "obama", "cricket"}, keys)
	})

	t.Run("early break", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)

		var keys []string

		for key, value := range m.Seq() {
			if value > 1 {
				break
			}

			keys = append(keys, key)
		}

		assert.Equal(t, []string{"cricket", "obama", "world"}, keys)
	})
}

func TestValueOrderedMap_Functional(t *testing.T) {
	t.Parallel()

	m := newSample(t)

	t.Run("for each", func(t *testing.T) {
		t.Parallel()

		total := 0

		m.ForEach(func(_ string, value int) { total += value })

		assert.Equal(t, 8, total)
	})

	t.Run("for all and exists", func(t *testing.T) {
		t.Parallel()

		assert.True(t, m.ForAll(func(_ string, value int) bool { return value > 0 }))
		assert.False(t, m.ForAll(func(_ string, value int) bool { return value < 3 }))
		assert.True(t, m.Exists(func(key string, _ int) bool { return key == "prez" }))
		assert.False(t, m.Exists(func(_ string, value int) bool { return value > 3 }))
	})

	t.Run("find first", func(t *testing.T) {
		t.Parallel()

		found, ok := m.FindFirst(func(_ string, value int) bool { return value >= 2 })
		require.True(t, ok)
		assert.Equal(t, "hello", found.Key)

		_, ok = m.FindFirst(func(string, int) bool { return false })
		assert.False(t, ok)
	})

	t.Run("filter", func(t *testing.T) {
		t.Parallel()

		odd := m.Filter(func(_ string, value int) bool { return value%2 == 1 })

		assert.Equal(t, []string{"cricket", "obama", "world", "prez"}, slices.Collect(odd.Keys()))
		assert.Equal(t, 5, m.Size())
	})

	t.Run("filter keeps insertion-ordered ties after updates", func(t *testing.T) {
		t.Parallel()

		source := maps.NewValueOrderedMapOf(pairs([]string{"a", "b", "c"}, []int{2, 1, 3}))
		filtered := source.Filter(func(key string, _ int) bool { return key != "c" })

		source.Put("a", 1)
		filtered.Put("a", 1)

		assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(source.Keys()))
		assert.Equal(t, []string{"a", "b"}, slices.Collect(filtered.Keys()))
	})

	t.Run("string", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "ValueOrderedMap[cricket:1 obama:1 world:1 hello:2 prez:3]", m.String())
	})
}

func TestValueOrderedMap_Clone(t *testing.T) {
	t.Parallel()

	t.Run("independent copy", func(t *testing.T) {
		t.Parallel()

		m := newSample(t)
		clone := m.Clone()

		clone.Put("xyz", 0)
		m.Remove("hello")

		assert.Equal(t, 6, clone.Size())
		assert.Equal(t, 4, m.Size())
		assert.True(t, clone.ContainsKey("hello"))
		require.NoError(t, clone.Validate())
	})

	t.Run("keeps insertion-ordered ties", func(t *testing.T) {
		t.Parallel()

		m := maps.NewValueOrderedMapOf(pairs([]string{"z", "y", "x", "w"}, []int{1, 1, 1, 0}))
		m.Put("y", 0)
		m.Put("y", 1)

		clone := m.Clone()

		assert.Equal(t, slices.Collect(m.Keys()), slices.Collect(clone.Keys()))
		assert.Equal(t, []string{"w", "z", "y", "x"}, slices.Collect(clone.Keys()))
	})
}

func TestValueOrderedMap_RandomWorkload(t *testing.T) {
	t.Parallel()

	for seed := range uint64(5) {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(seed, seed+1)) //nolint:gosec // deterministic test data
			m := maps.NewValueOrderedMap[int, int](nil, maps.WithLogger[int](slogt.New(t)))
			shadow := map[int]int{}

			for step := range 3000 {
				key := rng.IntN(200)

				switch rng.IntN(4) {
				case 0:
					m.Remove(key)
					delete(shadow, key)
				default:
					value := rng.IntN(10) - 5
					m.Put(key, value)
					shadow[key] = value
				}

				if step%500 == 0 {
					require.NoError(t, m.Validate())
				}
			}

			require.NoError(t, m.Validate())
			assert.Equal(t, len(shadow), m.Size())

			values := slices.Collect(m.Values())
			assert.IsNonDecreasing(t, values)

			for key, value := range shadow {
				got, ok := m.Get(key)
				require.True(t, ok)
				assert.Equal(t, value, got)
			}

			// Equal values are ordered by key under the default tie-break.
			entries := m.Entries()
			for i := 1; i < len(entries); i++ {
				if entries[i-1].Value == entries[i].Value {
					assert.Less(t, entries[i-1].Key, entries[i].Key)
				}
			}
		})
	}
}
