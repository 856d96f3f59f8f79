package voronoi

import "container/heap"

type keyHeap []uint32

func (h keyHeap) Len() int           { return len(h) }
func (h keyHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h keyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *keyHeap) Push(x any)        { *h = append(*h, x.(uint32)) }
func (h *keyHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// openList is a bucketed priority queue: squared distance -> FIFO of cell
// indices. Only a handful of distinct distances are live at any time, so
// the heap holds keys, not cells.
type openList struct {
	buckets map[uint32][]uint32
	keys    keyHeap
	size    int
}

func newOpenList() *openList {
	return &openList{buckets: make(map[uint32][]uint32)}
}

func (l *openList) push(key, index uint32) {
	b, ok := l.buckets[key]
	if !ok {
		heap.Push(&l.keys, key)
	}
	l.buckets[key] = append(b, index)
	l.size++
}

// pop returns the oldest cell of the smallest bucket.
func (l *openList) pop() (key, index uint32) {
	key = l.keys[0]
	b := l.buckets[key]
	index = b[0]
	if len(b) == 1 {
		delete(l.buckets, key)
		heap.Pop(&l.keys)
	} else {
		l.buckets[key] = b[1:]
	}
	l.size--
	return key, index
}

func (l *openList) empty() bool { return l.size == 0 }

func (l *openList) len() int { return l.size }

func (l *openList) clear() {
	clear(l.buckets)
	l.keys = l.keys[:0]
	l.size = 0
}
