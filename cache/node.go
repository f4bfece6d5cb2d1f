package cache

// entry is an intrusive doubly linked list element.
// LRU links every entry into one position list bounded by two sentinels
// (head side = MRU, tail side = LRU). LFU links every entry into the bucket
// for its current frequency (front = oldest, back = newest).
type entry[K comparable, V any] struct {
	key K
	val V

	prev *entry[K, V]
	next *entry[K, V]

	// freq is the access count (LFU only, always >= 1 while resident).
	freq int
}

// list is a sentinel-bounded intrusive list. The zero value is not usable;
// call init first. head.next == &tail iff the list is empty.
type list[K comparable, V any] struct {
	head entry[K, V]
	tail entry[K, V]
	len  int
}

func (l *list[K, V]) init() *list[K, V] {
	l.head.next = &l.tail
	l.tail.prev = &l.head
	l.head.prev, l.tail.next = nil, nil
	l.len = 0
	return l
}

// empty reports whether only the sentinels are linked.
func (l *list[K, V]) empty() bool { return l.head.next == &l.tail }

// pushFront links n right after the head sentinel.
func (l *list[K, V]) pushFront(n *entry[K, V]) {
	l.insertAfter(n, &l.head)
}

// pushBack links n right before the tail sentinel.
func (l *list[K, V]) pushBack(n *entry[K, V]) {
	l.insertAfter(n, l.tail.prev)
}

func (l *list[K, V]) insertAfter(n, at *entry[K, V]) {
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
	l.len++
}

// remove unlinks n in O(1).
func (l *list[K, V]) remove(n *entry[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	l.len--
}

// moveToFront relinks n after the head sentinel in O(1).
func (l *list[K, V]) moveToFront(n *entry[K, V]) {
	if l.head.next == n {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = &l.head
	n.next = l.head.next
	l.head.next.prev = n
	l.head.next = n
}

// front returns the first real entry, or nil if empty.
func (l *list[K, V]) front() *entry[K, V] {
	if l.empty() {
		return nil
	}
	return l.head.next
}

// back returns the last real entry, or nil if empty.
func (l *list[K, V]) back() *entry[K, V] {
	if l.empty() {
		return nil
	}
	return l.tail.prev
}

// keys walks head→tail.
func (l *list[K, V]) keys(dst []K) []K {
	for n := l.head.next; n != &l.tail; n = n.next {
		dst = append(dst, n.key)
	}
	return dst
}
