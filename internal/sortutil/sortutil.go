package sortutil

import "sort"

// Keys returns the keys of a string-keyed set in lexicographic order.
// The result is never nil.
func Keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
