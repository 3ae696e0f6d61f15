package observable

import (
	"sync"

	"golang.org/x/exp/slices"
)

// positional source collection. a mutex guards the canonical slice, and
// every mutation dispatches exactly one event to subscribers before the
// mutex is released. views over a list require an explicit identity
// function since positions are not stable identities.
type ObservableList[T any] struct {
	stateLock sync.Mutex

	items []T

	changeCallbacks *CallbackList[ChangeFunction[T]]
}

func NewObservableList[T any]() *ObservableList[T] {
	return &ObservableList[T]{
		items:           []T{},
		changeCallbacks: NewCallbackList[ChangeFunction[T]](),
	}
}

func NewObservableListFrom[T any](items []T) *ObservableList[T] {
	return &ObservableList[T]{
		items:           slices.Clone(items),
		changeCallbacks: NewCallbackList[ChangeFunction[T]](),
	}
}

// ViewSource

func (self *ObservableList[T]) AddChangeCallback(changeCallback ChangeFunction[T]) func() {
	callbackId := self.changeCallbacks.Add(changeCallback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *ObservableList[T]) AddChangeCallbackWithSnapshot(changeCallback ChangeFunction[T]) ([]T, func()) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	items := slices.Clone(self.items)
	callbackId := self.changeCallbacks.Add(changeCallback)
	return items, func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

// must be called with `stateLock`
func (self *ObservableList[T]) dispatch(event ChangeEvent[T]) {
	for _, changeCallback := range self.changeCallbacks.Get() {
		changeCallback(event)
	}
}

func (self *ObservableList[T]) Add(item T) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	position := len(self.items)
	self.items = append(self.items, item)
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionAdd,
		Items:       []T{item},
		Position:    position,
		OldPosition: NoPosition,
	})
}

// one batched add event for all items
func (self *ObservableList[T]) AddAll(items ...T) {
	if len(items) == 0 {
		return
	}

	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	position := len(self.items)
	self.items = append(self.items, items...)
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionAdd,
		Items:       slices.Clone(items),
		Position:    position,
		OldPosition: NoPosition,
	})
}

func (self *ObservableList[T]) Insert(index int, item T) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.items = slices.Insert(self.items, index, item)
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionAdd,
		Items:       []T{item},
		Position:    index,
		OldPosition: NoPosition,
	})
}

func (self *ObservableList[T]) Set(index int, item T) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	oldItem := self.items[index]
	self.items[index] = item
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionReplace,
		Items:       []T{item},
		OldItems:    []T{oldItem},
		Position:    index,
		OldPosition: index,
	})
}

func (self *ObservableList[T]) RemoveAt(index int) T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	item := self.items[index]
	self.items = slices.Delete(self.items, index, index+1)
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionRemove,
		OldItems:    []T{item},
		Position:    NoPosition,
		OldPosition: index,
	})
	return item
}

func (self *ObservableList[T]) Move(oldIndex int, newIndex int) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	item := self.items[oldIndex]
	self.items = slices.Delete(self.items, oldIndex, oldIndex+1)
	self.items = slices.Insert(self.items, newIndex, item)
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionMove,
		Items:       []T{item},
		Position:    newIndex,
		OldPosition: oldIndex,
	})
}

func (self *ObservableList[T]) Clear() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.items = []T{}
	self.dispatch(ChangeEvent[T]{
		Action:      ChangeActionReset,
		Position:    NoPosition,
		OldPosition: NoPosition,
	})
}

func (self *ObservableList[T]) Get(index int) T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.items[index]
}

func (self *ObservableList[T]) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.items)
}

// copy of the canonical items
func (self *ObservableList[T]) Items() []T {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return slices.Clone(self.items)
}
