package observable

import (
	"sync"

	"golang.org/x/exp/maps"
)

// key value pair carried by dictionary events and views
type DictEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// key based source collection. events carry `DictEntry` payloads with
// `NoPosition` hints. the entry key is the natural identity for views.
type ObservableDictionary[K comparable, V any] struct {
	stateLock sync.Mutex

	entries map[K]V

	changeCallbacks *CallbackList[ChangeFunction[DictEntry[K, V]]]
}

func NewObservableDictionary[K comparable, V any]() *ObservableDictionary[K, V] {
	return &ObservableDictionary[K, V]{
		entries:         map[K]V{},
		changeCallbacks: NewCallbackList[ChangeFunction[DictEntry[K, V]]](),
	}
}

// ViewSource

func (self *ObservableDictionary[K, V]) AddChangeCallback(changeCallback ChangeFunction[DictEntry[K, V]]) func() {
	callbackId := self.changeCallbacks.Add(changeCallback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *ObservableDictionary[K, V]) AddChangeCallbackWithSnapshot(changeCallback ChangeFunction[DictEntry[K, V]]) ([]DictEntry[K, V], func()) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	entries := self.snapshot()
	callbackId := self.changeCallbacks.Add(changeCallback)
	return entries, func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

// must be called with `stateLock`
func (self *ObservableDictionary[K, V]) snapshot() []DictEntry[K, V] {
	entries := make([]DictEntry[K, V], 0, len(self.entries))
	for key, value := range self.entries {
		entries = append(entries, DictEntry[K, V]{
			Key:   key,
			Value: value,
		})
	}
	return entries
}

// must be called with `stateLock`
func (self *ObservableDictionary[K, V]) dispatch(event ChangeEvent[DictEntry[K, V]]) {
	for _, changeCallback := range self.changeCallbacks.Get() {
		changeCallback(event)
	}
}

// add when the key is absent, replace when present
func (self *ObservableDictionary[K, V]) Set(key K, value V) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	entry := DictEntry[K, V]{
		Key:   key,
		Value: value,
	}
	oldValue, replace := self.entries[key]
	self.entries[key] = value
	if replace {
		self.dispatch(ChangeEvent[DictEntry[K, V]]{
			Action: ChangeActionReplace,
			Items:  []DictEntry[K, V]{entry},
			OldItems: []DictEntry[K, V]{{
				Key:   key,
				Value: oldValue,
			}},
			Position:    NoPosition,
			OldPosition: NoPosition,
		})
	} else {
		self.dispatch(ChangeEvent[DictEntry[K, V]]{
			Action:      ChangeActionAdd,
			Items:       []DictEntry[K, V]{entry},
			Position:    NoPosition,
			OldPosition: NoPosition,
		})
	}
}

func (self *ObservableDictionary[K, V]) Delete(key K) (V, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	value, ok := self.entries[key]
	if !ok {
		return value, false
	}
	delete(self.entries, key)
	self.dispatch(ChangeEvent[DictEntry[K, V]]{
		Action: ChangeActionRemove,
		OldItems: []DictEntry[K, V]{{
			Key:   key,
			Value: value,
		}},
		Position:    NoPosition,
		OldPosition: NoPosition,
	})
	return value, true
}

func (self *ObservableDictionary[K, V]) Clear() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.entries = map[K]V{}
	self.dispatch(ChangeEvent[DictEntry[K, V]]{
		Action:      ChangeActionReset,
		Position:    NoPosition,
		OldPosition: NoPosition,
	})
}

func (self *ObservableDictionary[K, V]) Get(key K) (V, bool) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	value, ok := self.entries[key]
	return value, ok
}

func (self *ObservableDictionary[K, V]) Len() int {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return len(self.entries)
}

// copy of the canonical entries
func (self *ObservableDictionary[K, V]) Entries() map[K]V {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return maps.Clone(self.entries)
}
