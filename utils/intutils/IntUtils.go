// Package intutils provides utilities for working with ints
package intutils

// Max returns the maximum of one or more ints
func Max(first int, rest ...int) int {
	max := first
	for _, val := range rest {
		if val > max {
			max = val
		}
	}
	return max
}

// Range returns the ints 0, 1, ..., n-1
func Range(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}
