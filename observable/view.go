package observable

import (
	"sync"

	"github.com/golang/glog"
)

type viewEntry[T any, V any] struct {
	item T
	view V
}

// unordered synchronized view. maintains key -> (item, view) purely by
// replaying the source's event stream, with no re-derivation from scratch.
// the view value is computed once at insertion and correlated with the item
// by identity key until removal.
//
// the view's mutex serializes event application against readers and filter
// swaps, so a reader never observes a partially applied event. events are
// applied while the source's mutex is also held (synchronous dispatch), so
// handlers must not call back into the source.
type View[T any, K comparable, V any] struct {
	identity  IdentityFunction[T, K]
	transform TransformFunction[T, V]

	stateLock sync.Mutex

	entries  map[K]viewEntry[T, V]
	filter   ViewFilter[T, V]
	router   *eventRouter[T]
	unsub    func()
	disposed bool
}

func NewView[T any, K comparable, V any](
	source ViewSource[T],
	identity IdentityFunction[T, K],
	transform TransformFunction[T, V],
) *View[T, K, V] {
	view := &View[T, K, V]{
		identity:  identity,
		transform: transform,
		entries:   map[K]viewEntry[T, V]{},
		filter:    NullFilter[T, V](),
		router:    newEventRouter[T](),
	}

	// hold the view mutex across snapshot registration and the initial load.
	// the source registers the callback and snapshots atomically under its
	// own mutex, so an event dispatched right after registration blocks on
	// the view mutex until the initial load is materialized.
	view.stateLock.Lock()
	defer view.stateLock.Unlock()

	items, unsub := source.AddChangeCallbackWithSnapshot(view.applyChange)
	view.unsub = unsub
	for _, item := range items {
		view.add(item)
	}

	return view
}

// dictionary views use the entry key as the natural identity
func NewDictView[K comparable, V any, W any](
	dict *ObservableDictionary[K, V],
	transform TransformFunction[DictEntry[K, V], W],
) *View[DictEntry[K, V], K, W] {
	identity := func(entry DictEntry[K, V]) K {
		return entry.Key
	}
	return NewView[DictEntry[K, V], K, W](dict, identity, transform)
}

// set views use the item itself as identity
func NewSetView[T comparable, V any](
	set *ObservableSet[T],
	transform TransformFunction[T, V],
) *View[T, T, V] {
	identity := func(item T) T {
		return item
	}
	return NewView[T, T, V](set, identity, transform)
}

// ChangeFunction. invoked synchronously while the source mutex is held.
func (self *View[T, K, V]) applyChange(event ChangeEvent[T]) {
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
		// uniform remove then add. one code path keeps the invariant logic
		// in one place, even when old and new share a key.
		for _, item := range event.OldItems {
			self.remove(item)
		}
		for _, item := range event.Items {
			self.add(item)
		}
	case ChangeActionMove:
		// no structural effect without positions. forward only.
		if !self.filter.IsNull() {
			for _, item := range event.Items {
				key := self.identity(item)
				if entry, ok := self.entries[key]; ok {
					self.filter.OnMove(entry.item, entry.view)
				}
			}
		}
	case ChangeActionReset:
		if !self.filter.IsNull() {
			for _, entry := range self.entries {
				self.filter.OnRemove(entry.item, entry.view)
			}
		}
		self.entries = map[K]viewEntry[T, V]{}
	}

	self.router.route(event)
}

// must be called with `stateLock`
func (self *View[T, K, V]) add(item T) {
	key := self.identity(item)
	if _, ok := self.entries[key]; ok {
		// overwriting would orphan the prior entry's correlation
		panic(contractViolation("duplicate key on add: %v", key))
	}
	view := self.transform(item)
	self.entries[key] = viewEntry[T, V]{
		item: item,
		view: view,
	}
	if !self.filter.IsNull() {
		self.filter.OnAdd(item, view)
	}
}

// must be called with `stateLock`
func (self *View[T, K, V]) remove(item T) {
	key := self.identity(item)
	entry, ok := self.entries[key]
	if !ok {
		panic(contractViolation("remove for unknown key: %v", key))
	}
	delete(self.entries, key)
	if !self.filter.IsNull() {
		// always the stored view, never a fresh transform. the item's
		// fields may have drifted since materialization.
		self.filter.OnRemove(entry.item, entry.view)
	}
}

func (self *View[T, K, V]) Count() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.entries)
}

// swaps the filter slot and replays exactly one `OnAttach` per currently
// materialized entry. atomic with respect to event application, so a
// concurrent add produces `OnAdd` after attach returns, never a duplicate
// `OnAttach`.
func (self *View[T, K, V]) AttachFilter(filter ViewFilter[T, V]) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.filter = filter
	for _, entry := range self.entries {
		filter.OnAttach(entry.item, entry.view)
	}
}

// swaps back to the null filter. a non nil cleanup runs once per live entry
// first, so a consumer can undo side effects before losing the filter.
func (self *View[T, K, V]) ResetFilter(cleanup func(item T, view V)) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if cleanup != nil {
		for _, entry := range self.entries {
			cleanup(entry.item, entry.view)
		}
	}
	self.filter = NullFilter[T, V]()
}

// snapshot traversal of the live entries visible to the active filter
func (self *View[T, K, V]) Enumerate() *ViewEnumerator[T, V] {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	pairs := []ViewPair[T, V]{}
	for _, entry := range self.entries {
		if self.filter.IsMatch(entry.item, entry.view) {
			pairs = append(pairs, ViewPair[T, V]{
				Item: entry.item,
				View: entry.view,
			})
		}
	}
	return newViewEnumerator(pairs)
}

// unsubscribes from the source. an in flight dispatch is allowed to finish,
// but no event is applied after disposal is observed.
func (self *View[T, K, V]) Dispose() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if self.disposed {
		return
	}
	self.disposed = true
	self.unsub()
	self.entries = map[K]viewEntry[T, V]{}
	self.filter = NullFilter[T, V]()
	glog.V(2).Infof("[view]disposed\n")
}

// ViewSource. views can be chained: downstream subscribers observe each
// applied event before this view's mutex is released.

func (self *View[T, K, V]) AddChangeCallback(changeCallback ChangeFunction[T]) func() {
	return self.router.addChangeCallback(changeCallback)
}

func (self *View[T, K, V]) AddChangeCallbackWithSnapshot(changeCallback ChangeFunction[T]) ([]T, func()) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	items := make([]T, 0, len(self.entries))
	for _, entry := range self.entries {
		items = append(items, entry.item)
	}
	unsub := self.router.addChangeCallback(changeCallback)
	return items, unsub
}

// coarse signal fired once per applied event with only its action
func (self *View[T, K, V]) AddStateChangeCallback(stateChangeCallback StateChangeFunction) func() {
	return self.router.addStateChangeCallback(stateChangeCallback)
}
