package collection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id    string
	order int
}

func (i *item) ItemID() string { return i.id }
func (i *item) Rank() int      { return i.order }
func (i *item) SetRank(o int)  { i.order = o }

func ids(items []*item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.id)
	}
	return out
}

func appendN(n int) []*item {
	var items []*item
	for i := 0; i < n; i++ {
		items = append(items, &item{id: fmt.Sprintf("i%d", i), order: NextOrder(items)})
	}
	return items
}

func TestNextOrder(t *testing.T) {
	assert.Equal(t, 0, NextOrder[*item](nil))
	assert.Equal(t, 8, NextOrder([]*item{{id: "a", order: 3}, {id: "b", order: 7}, {id: "c", order: -1}}))
}

func TestAppend_OrdersAreSequential(t *testing.T) {
	items := appendN(5)
	for i, it := range Sorted(items) {
		assert.Equal(t, i, it.order)
		assert.Equal(t, fmt.Sprintf("i%d", i), it.id)
	}
}

func TestSorted_StableForTies(t *testing.T) {
	items := []*item{{id: "a", order: 1}, {id: "b", order: 0}, {id: "c", order: 1}, {id: "d", order: 0}}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(Sorted(items)))
	// stored slice untouched
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(items))
}

func TestReorder_PartialBestEffort(t *testing.T) {
	items := appendN(3)
	matched := Reorder(items, []Move{{ID: "i2", Order: -5}, {ID: "ghost", Order: 0}})
	assert.Equal(t, 1, matched)
	assert.Equal(t, []string{"i2", "i0", "i1"}, ids(Sorted(items)))
}

func TestReorder_IdempotentAndPreservesSet(t *testing.T) {
	items := appendN(4)
	moves := []Move{{ID: "i0", Order: 3}, {ID: "i3", Order: 0}, {ID: "i1", Order: 2}, {ID: "i2", Order: 1}}

	Reorder(items, moves)
	first := ids(Sorted(items))
	Reorder(items, moves)
	second := ids(Sorted(items))

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"i3", "i2", "i1", "i0"}, second)
	assert.ElementsMatch(t, []string{"i0", "i1", "i2", "i3"}, second)
	assert.Len(t, items, 4)
}

func TestFindAndRemove(t *testing.T) {
	items := appendN(3)

	got, ok := Find(items, "i1")
	require.True(t, ok)
	assert.Equal(t, "i1", got.id)

	_, ok = Find(items, "nope")
	assert.False(t, ok)

	rest, removed, ok := Remove(items, "i1")
	require.True(t, ok)
	assert.Equal(t, "i1", removed.id)
	assert.Equal(t, []string{"i0", "i2"}, ids(rest))
	assert.Len(t, items, 3, "input slice must not be modified")

	same, _, ok := Remove(rest, "nope")
	assert.False(t, ok)
	assert.Equal(t, rest, same)
}
