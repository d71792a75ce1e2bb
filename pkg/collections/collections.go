package collections

import "golang.org/x/exp/constraints"

// Number is anything Sum can add up.
type Number interface {
	constraints.Integer | constraints.Float
}

// Apply applies the applicator function to each item in the input slice.
func Apply[T, V any](items []T, applicator func(T) V) []V {
	result := make([]V, len(items))
	for i, item := range items {
		result[i] = applicator(item)
	}
	return result
}

// Filter returns the items for which keep returns true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	var result []T
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

// Count returns how many items match.
func Count[T any](items []T, match func(T) bool) int {
	n := 0
	for _, item := range items {
		if match(item) {
			n++
		}
	}
	return n
}

// MaxBy returns the item with the largest key. The first item wins ties.
// ok is false for an empty slice.
func MaxBy[T any, K constraints.Ordered](items []T, key func(T) K) (max T, ok bool) {
	for i, item := range items {
		if i == 0 || key(item) > key(max) {
			max = item
			ok = true
		}
	}
	return max, ok
}

func Sum[N Number](items []N) N {
	var total N
	for _, item := range items {
		total += item
	}
	return total
}
