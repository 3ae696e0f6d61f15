package observable

// one (item, view) pair of a materialized view
type ViewPair[T any, V any] struct {
	Item T
	View V
}

// lazy, finite, non restartable traversal over a snapshot of a view's
// materialized structure. the snapshot is taken under the view's mutex at
// construction time with the active filter's visibility applied, so later
// mutations are not reflected. this is snapshot iteration, not a live
// cursor.
type ViewEnumerator[T any, V any] struct {
	pairs []ViewPair[T, V]
	next  int
}

func newViewEnumerator[T any, V any](pairs []ViewPair[T, V]) *ViewEnumerator[T, V] {
	return &ViewEnumerator[T, V]{
		pairs: pairs,
		next:  0,
	}
}

func (self *ViewEnumerator[T, V]) Next() (ViewPair[T, V], bool) {
	if len(self.pairs) <= self.next {
		return ViewPair[T, V]{}, false
	}
	pair := self.pairs[self.next]
	self.next += 1
	return pair, true
}

// drains the remaining pairs
func (self *ViewEnumerator[T, V]) Pairs() []ViewPair[T, V] {
	pairs := self.pairs[self.next:]
	self.next = len(self.pairs)
	return pairs
}
