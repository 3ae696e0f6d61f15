package observable

import (
	"cmp"
	"sync"

	"github.com/golang/glog"
	"github.com/google/btree"
)

const sortedViewBtreeDegree = 32

type sortedViewEntry[T any, K cmp.Ordered, V any] struct {
	key  K
	item T
	view V
}

// totally ordered synchronized view. the b-tree is keyed by
// (compare(entry), key): the configured comparator first (over the view
// value or over the item, see the constructors), then the identity key as
// tie break. both components are fixed at insertion, so no two distinct
// live entries ever compare equal and move events can never change sort
// position.
//
// `keyed` is the auxiliary key -> entry map. its key set is exactly the key
// projection of the tree at all times. remove and replace locate the tree
// node through the stored entry, never a fresh transform, since the item
// may have mutated after materialization and a recomputed view could
// address the wrong node. the synchrony of this map with the tree is the
// load bearing invariant of this type.
//
// order derives solely from values captured at insertion time. mutating an
// item's sort relevant fields without a remove+add cycle breaks the order.
// that is a caller obligation, not detected here.
type SortedView[T any, K cmp.Ordered, V any] struct {
	identity  IdentityFunction[T, K]
	transform TransformFunction[T, V]

	stateLock sync.Mutex

	entries  *btree.BTreeG[sortedViewEntry[T, K, V]]
	keyed    map[K]viewEntry[T, V]
	filter   ViewFilter[T, V]
	router   *eventRouter[T]
	unsub    func()
	disposed bool
}

// sorted by a comparator over the view values
func NewSortedView[T any, K cmp.Ordered, V any](
	source ViewSource[T],
	identity IdentityFunction[T, K],
	transform TransformFunction[T, V],
	viewCmp CompareFunction[V],
) *SortedView[T, K, V] {
	less := func(a sortedViewEntry[T, K, V], b sortedViewEntry[T, K, V]) bool {
		if c := viewCmp(a.view, b.view); c != 0 {
			return c < 0
		}
		return a.key < b.key
	}
	return newSortedView[T, K, V](source, identity, transform, less)
}

// sorted by a comparator over the source items, as captured at insertion
func NewSortedViewByItem[T any, K cmp.Ordered, V any](
	source ViewSource[T],
	identity IdentityFunction[T, K],
	transform TransformFunction[T, V],
	itemCmp CompareFunction[T],
) *SortedView[T, K, V] {
	less := func(a sortedViewEntry[T, K, V], b sortedViewEntry[T, K, V]) bool {
		if c := itemCmp(a.item, b.item); c != 0 {
			return c < 0
		}
		return a.key < b.key
	}
	return newSortedView[T, K, V](source, identity, transform, less)
}

func newSortedView[T any, K cmp.Ordered, V any](
	source ViewSource[T],
	identity IdentityFunction[T, K],
	transform TransformFunction[T, V],
	less btree.LessFunc[sortedViewEntry[T, K, V]],
) *SortedView[T, K, V] {
	view := &SortedView[T, K, V]{
		identity:  identity,
		transform: transform,
		entries:   btree.NewG[sortedViewEntry[T, K, V]](sortedViewBtreeDegree, less),
		keyed:     map[K]viewEntry[T, V]{},
		filter:    NullFilter[T, V](),
		router:    newEventRouter[T](),
	}

	// see `NewView` for the locking rationale of the initial load
	view.stateLock.Lock()
	defer view.stateLock.Unlock()

	items, unsub := source.AddChangeCallbackWithSnapshot(view.applyChange)
	view.unsub = unsub
	for _, item := range items {
		view.add(item)
	}

	return view
}

func NewSortedDictView[K cmp.Ordered, V any, W any](
	dict *ObservableDictionary[K, V],
	transform TransformFunction[DictEntry[K, V], W],
	viewCmp CompareFunction[W],
) *SortedView[DictEntry[K, V], K, W] {
	identity := func(entry DictEntry[K, V]) K {
		return entry.Key
	}
	return NewSortedView[DictEntry[K, V], K, W](dict, identity, transform, viewCmp)
}

func NewSortedSetView[T cmp.Ordered, V any](
	set *ObservableSet[T],
	transform TransformFunction[T, V],
	viewCmp CompareFunction[V],
) *SortedView[T, T, V] {
	identity := func(item T) T {
		return item
	}
	return NewSortedView[T, T, V](set, identity, transform, viewCmp)
}

// ChangeFunction. invoked synchronously while the source mutex is held.
func (self *SortedView[T, K, V]) applyChange(event ChangeEvent[T]) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.disposed {
		// an in flight dispatch that registered before unsubscription
		return
	}

	switch event.Action {
	case ChangeActionAdd:
		for _, item := range event.Items {
			self.add(item)
		}
	case ChangeActionRemove:
		for _, item := range event.OldItems {
			self.remove(item)
		}
	case ChangeActionReplace:
		// uniform remove then add, same single code path as the unordered view
		for _, item := range event.OldItems {
			self.remove(item)
		}
		for _, item := range event.Items {
			self.add(item)
		}
	case ChangeActionMove:
		// sort position derives from values fixed at insertion.
		// structurally ignored, forward only.
		if !self.filter.IsNull() {
			for _, item := range event.Items {
				key := self.identity(item)
				if entry, ok := self.keyed[key]; ok {
					self.filter.OnMove(entry.item, entry.view)
				}
			}
		}
	case ChangeActionReset:
		if !self.filter.IsNull() {
			self.entries.Ascend(func(entry sortedViewEntry[T, K, V]) bool {
				self.filter.OnRemove(entry.item, entry.view)
				return true
			})
		}
		self.entries.Clear(false)
		self.keyed = map[K]viewEntry[T, V]{}
	}

	self.router.route(event)
}

// must be called with `stateLock`
func (self *SortedView[T, K, V]) add(item T) {
	key := self.identity(item)
	if _, ok := self.keyed[key]; ok {
		// overwriting would orphan the prior entry's correlation
		panic(contractViolation("duplicate key on add: %v", key))
	}
	view := self.transform(item)
	self.keyed[key] = viewEntry[T, V]{
		item: item,
		view: view,
	}
	if _, replaced := self.entries.ReplaceOrInsert(sortedViewEntry[T, K, V]{
		key:  key,
		item: item,
		view: view,
	}); replaced {
		// the key tie break makes distinct live keys unequal, so a replace
		// here means the key/tree bijection was already broken
		panic(contractViolation("ordered structure collision for key: %v", key))
	}
	if !self.filter.IsNull() {
		self.filter.OnAdd(item, view)
	}
}

// must be called with `stateLock`
func (self *SortedView[T, K, V]) remove(item T) {
	key := self.identity(item)
	stored, ok := self.keyed[key]
	if !ok {
		panic(contractViolation("remove for unknown key: %v", key))
	}
	// probe with the entry as stored at insertion. recomputing the
	// transform here could address the wrong node if the item drifted.
	entry, ok := self.entries.Delete(sortedViewEntry[T, K, V]{
		key:  key,
		item: stored.item,
		view: stored.view,
	})
	if !ok {
		panic(contractViolation("ordered structure desynchronized for key: %v", key))
	}
	delete(self.keyed, key)
	if !self.filter.IsNull() {
		self.filter.OnRemove(entry.item, entry.view)
	}
}

func (self *SortedView[T, K, V]) Count() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.entries.Len()
}

// swaps the filter slot and replays one `OnAttach` per materialized entry,
// in sorted order, atomically with respect to event application
func (self *SortedView[T, K, V]) AttachFilter(filter ViewFilter[T, V]) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.filter = filter
	self.entries.Ascend(func(entry sortedViewEntry[T, K, V]) bool {
		filter.OnAttach(entry.item, entry.view)
		return true
	})
}

func (self *SortedView[T, K, V]) ResetFilter(cleanup func(item T, view V)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if cleanup != nil {
		self.entries.Ascend(func(entry sortedViewEntry[T, K, V]) bool {
			cleanup(entry.item, entry.view)
			return true
		})
	}
	self.filter = NullFilter[T, V]()
}

// snapshot traversal in ascending tree order, restricted to entries visible
// to the active filter
func (self *SortedView[T, K, V]) Enumerate() *ViewEnumerator[T, V] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	pairs := []ViewPair[T, V]{}
	self.entries.Ascend(func(entry sortedViewEntry[T, K, V]) bool {
		if self.filter.IsMatch(entry.item, entry.view) {
			pairs = append(pairs, ViewPair[T, V]{
				Item: entry.item,
				View: entry.view,
			})
		}
		return true
	})
	return newViewEnumerator(pairs)
}

// unsubscribes from the source. an in flight dispatch is allowed to finish,
// but no event is applied after disposal is observed.
func (self *SortedView[T, K, V]) Dispose() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.disposed {
		return
	}
	self.disposed = true
	self.unsub()
	self.entries.Clear(false)
	self.keyed = map[K]viewEntry[T, V]{}
	self.filter = NullFilter[T, V]()
	glog.V(2).Infof("[view]sorted disposed\n")
}

// ViewSource. downstream subscribers observe each applied event before this
// view's mutex is released. the snapshot is handed out in sorted order.

func (self *SortedView[T, K, V]) AddChangeCallback(changeCallback ChangeFunction[T]) func() {
	return self.router.addChangeCallback(changeCallback)
}

func (self *SortedView[T, K, V]) AddChangeCallbackWithSnapshot(changeCallback ChangeFunction[T]) ([]T, func()) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	items := make([]T, 0, self.entries.Len())
	self.entries.Ascend(func(entry sortedViewEntry[T, K, V]) bool {
		items = append(items, entry.item)
		return true
	})
	unsub := self.router.addChangeCallback(changeCallback)
	return items, unsub
}

// coarse signal fired once per applied event with only its action
func (self *SortedView[T, K, V]) AddStateChangeCallback(stateChangeCallback StateChangeFunction) func() {
	return self.router.addStateChangeCallback(stateChangeCallback)
}
