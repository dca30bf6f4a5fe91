// Package collection implements the ordering rules shared by the regular
// and social link lists of a profile.
//
// The stored slice keeps insertion order. Display order is always derived
// by a stable sort on the item rank, so equal ranks keep insertion order.
package collection

import "sort"

// Item is an entry of an ordered collection.
type Item interface {
	ItemID() string
	Rank() int
	SetRank(int)
}

// Move assigns a new rank to the item with the given id.
type Move struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// NextOrder returns max(rank)+1, or 0 for an empty collection.
func NextOrder[T Item](items []T) int {
	if len(items) == 0 {
		return 0
	}
	max := items[0].Rank()
	for _, it := range items[1:] {
		if r := it.Rank(); r > max {
			max = r
		}
	}
	return max + 1
}

// Sorted returns a copy of items stably sorted by rank ascending.
func Sorted[T Item](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank() < out[j].Rank()
	})
	return out
}

// Reorder overwrites the rank of every item referenced by moves. Unknown
// ids are skipped. It returns how many moves matched an item.
func Reorder[T Item](items []T, moves []Move) int {
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[it.ItemID()] = it
	}
	matched := 0
	for _, m := range moves {
		if it, ok := byID[m.ID]; ok {
			it.SetRank(m.Order)
			matched++
		}
	}
	return matched
}

// Find returns the item with id.
func Find[T Item](items []T, id string) (T, bool) {
	for _, it := range items {
		if it.ItemID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Remove drops the item with id and returns the shortened slice together
// with the removed item.
func Remove[T Item](items []T, id string) ([]T, T, bool) {
	for i, it := range items {
		if it.ItemID() == id {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			return out, it, true
		}
	}
	var zero T
	return items, zero, false
}
