// Package compare provides ordering functions used to break ties between keys
// that carry equal values in value-ordered containers.
//
// Every Order follows the cmp.Compare convention: negative when a sorts before b,
// positive when a sorts after b and zero when the order cannot tell them apart.
// Containers treat zero as "no opinion" and fall back to their own stable criterion,
// so an Order never causes two distinct keys to be merged.
package compare

import (
	"cmp"
	"regexp"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-valuemap/hashing"
)

// Order compares two values, returning -1, 0 or +1.
type Order[T any] func(a, b T) int

// Natural orders values by their built-in ordering.
func Natural[T cmp.Ordered]() Order[T] {
	return cmp.Compare[T]
}

// NaturalStrings orders strings the way a human would, treating embedded runs of
// digits as numbers: "item2" sorts before "item10". Strings that read the same, such
// as "x1" and "x01", fall back to plain string order, so two distinct strings never
// compare equal.
func NaturalStrings() Order[string] {
	return func(a, b string) int {
		if a == b {
			return 0
		}

		// natsort parses digit runs with strconv.Atoi; longer runs would be compared as text.
		if hasLongNumber(a) || hasLongNumber(b) {
			return compareChunks(a, b)
		}

		less, greater := natsort.Compare(a, b), natsort.Compare(b, a)

		switch {
		case less && !greater:
			return -1
		case greater && !less:
			return 1
		}

		return cmp.Compare(a, b)
	}
}

const maxIntDigits = 18

var chunkPattern = regexp.MustCompile(`\d+|\D+`) //nolint:gochecknoglobals

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func hasLongNumber(s string) bool {
	run := 0

	for i := range len(s) {
		if !isDigit(s[i]) {
			run = 0

			continue
		}

		run++
		if run > maxIntDigits {
			return true
		}
	}

	return false
}

// compareChunks is the natural order without integer parsing. Digit runs of any
// length compare by numeric value. Plain string order settles full ties.
func compareChunks(a, b string) int {
	chunksA, chunksB := chunkPattern.FindAllString(a, -1), chunkPattern.FindAllString(b, -1)

	for i := range min(len(chunksA), len(chunksB)) {
		if c := compareChunk(chunksA[i], chunksB[i]); c != 0 {
			return c
		}
	}

	if c := cmp.Compare(len(chunksA), len(chunksB)); c != 0 {
		return c
	}

	return cmp.Compare(a, b)
}

func compareChunk(x, y string) int {
	if isDigit(x[0]) && isDigit(y[0]) {
		x, y = strings.TrimLeft(x, "0"), strings.TrimLeft(y, "0")

		if c := cmp.Compare(len(x), len(y)); c != 0 {
			return c
		}
	}

	return cmp.Compare(x, y)
}

// ByHash orders values by the digest that fn produces for them. It is useful for keys
// with no natural order that still need a run-to-run stable tiebreak.
//
// A hashing failure or a digest collision yields 0.
func ByHash[T hashing.Hashable](fn hashing.HashFunc) Order[T] {
	return func(a, b T) int {
		ha, err := fn(a)
		if err != nil {
			return 0
		}

		hb, err := fn(b)
		if err != nil {
			return 0
		}

		return cmp.Compare(ha, hb)
	}
}

// Reverse inverts an order.
func Reverse[T any](order Order[T]) Order[T] {
	return func(a, b T) int {
		return order(b, a)
	}
}

// Then consults second only when first reports the values as equal.
func Then[T any](first, second Order[T]) Order[T] {
	return func(a, b T) int {
		if c := first(a, b); c != 0 {
			return c
		}

		return second(a, b)
	}
}
