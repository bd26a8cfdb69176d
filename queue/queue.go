// Package queue provides a small generic priority queue used for lazy
// best-first delivery of ranked results.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue[int])(nil)

// PriorityQueue is a binary heap ordered by LessFunc. The zero value is not
// usable; construct it with New.
type PriorityQueue[T any] struct {
	LessFunc func(a, b T) bool // LessFunc reports whether a has higher priority than b.
	Items    []T               // Items contains the elements of the priority queue.
}

// New builds a priority queue over items in O(len(items)).
func New[T any](less func(a, b T) bool, items []T) *PriorityQueue[T] {
	pq := &PriorityQueue[T]{LessFunc: less, Items: items}
	heap.Init(pq)
	return pq
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue[T]) Len() int { return len(pq.Items) }

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue[T]) Less(i, j int) bool {
	return pq.LessFunc(pq.Items[i], pq.Items[j])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue[T]) Swap(i, j int) {
	pq.Items[i], pq.Items[j] = pq.Items[j], pq.Items[i]
}

// Push adds x to the priority queue.
func (pq *PriorityQueue[T]) Push(x any) {
	item, _ := x.(T)
	pq.Items = append(pq.Items, item)
}

// Pop removes and returns the last element. Use PopItem for ordered removal.
func (pq *PriorityQueue[T]) Pop() any {
	old := pq.Items
	n := len(old)
	item := old[n-1]
	var zero T
	old[n-1] = zero // Avoid memory leak
	pq.Items = old[:n-1]
	return item
}

// PushItem adds an item, maintaining heap order.
func (pq *PriorityQueue[T]) PushItem(item T) {
	heap.Push(pq, item)
}

// PopItem removes and returns the highest-priority item.
func (pq *PriorityQueue[T]) PopItem() T {
	return heap.Pop(pq).(T)
}
