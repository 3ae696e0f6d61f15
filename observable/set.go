package observable

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// key based source collection over unique items. the item is its own
// identity for views. the threadsafe variant of `mapset` is not used since
// the collection's own mutex already serializes storage with dispatch.
type ObservableSet[T comparable] struct {
	stateLock sync.Mutex

	items mapset.Set[T]

	changeCallbacks *CallbackList[ChangeFunction[T]]
}

func NewObservableSet[T comparable]() *ObservableSet[T] {
	return &ObservableSet[T]{
		items:           mapset.NewThreadUnsafeSet[T](),
		changeCallbacks: NewCallbackList[ChangeFunction[T]](),
	}
}

// ViewSource

func (self *ObservableSet[T]) AddChangeCallback(changeCallback ChangeFunction[T]) func() {
	callbackId := self.changeCallbacks.Add(changeCallback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *ObservableSet[T]) AddChangeCallbackWithSnapshot(changeCallback ChangeFunction[T]) ([]T, func()) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	items := self.items.ToSlice()
	callbackId := self.changeCallbacks.Add(changeCallback)
	return items, func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

// must be called with `stateLock`
func (self *ObservableSet[T]) dispatch(event ChangeEvent[T]) {
	for _, changeCallback := range self.changeCallbacks.Get() {
		changeCallback(event)
	}
}

// returns false if the item was already present. no event in that case,
// since nothing externally visible changed.
func (self *ObservableSet[T]) Add(item T) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if !self.items.Add(item) {
		return false
	}
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionAdd,
		Items:       []T{item},
		Position:    NoPosition,
		OldPosition: NoPosition,
	})
	return true
}

func (self *ObservableSet[T]) Remove(item T) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	if !self.items.Contains(item) {
		return false
	}
	self.items.Remove(item)
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionRemove,
		OldItems:    []T{item},
		Position:    NoPosition,
		OldPosition: NoPosition,
	})
	return true
}

func (self *ObservableSet[T]) Clear() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.items = mapset.NewThreadUnsafeSet[T]()
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionReset,
		Position:    NoPosition,
		OldPosition: NoPosition,
	})
}

func (self *ObservableSet[T]) Contains(item T) bool {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.items.Contains(item)
}

func (self *ObservableSet[T]) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.items.Cardinality()
}

// copy of the canonical items, in no particular order
func (self *ObservableSet[T]) Items() []T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.items.ToSlice()
}
