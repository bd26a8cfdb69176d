package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriorityQueueOrdering(t *testing.T) {
	pq := New(func(a, b int) bool { return a < b }, []int{5, 1, 4, 2, 3})

	var got []int
	for pq.Len() > 0 {
		got = append(got, pq.PopItem())
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestPriorityQueuePushPop(t *testing.T) {
	pq := New(func(a, b string) bool { return a > b }, nil)
	pq.PushItem("b")
	pq.PushItem("c")
	pq.PushItem("a")

	assert.Equal(t, 3, pq.Len())
	assert.Equal(t, "c", pq.PopItem())
	assert.Equal(t, "b", pq.PopItem())

	pq.PushItem("z")
	assert.Equal(t, "z", pq.PopItem())
	assert.Equal(t, "a", pq.PopItem())
	assert.Equal(t, 0, pq.Len())
}
