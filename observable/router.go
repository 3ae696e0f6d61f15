package observable

// re-broadcasts applied events to a view's own subscribers, plus a coarse
// state change signal carrying only the action, for consumers that rebind a
// bulk display rather than track fine deltas. views call `route` while
// holding their own mutex, so downstream subscribers observe the same total
// event order the view applied.
type eventRouter[T any] struct {
	changeCallbacks      *CallbackList[ChangeFunction[T]]
	stateChangeCallbacks *CallbackList[StateChangeFunction]
}

func newEventRouter[T any]() *eventRouter[T] {
	return &eventRouter[T]{
		changeCallbacks:      NewCallbackList[ChangeFunction[T]](),
		stateChangeCallbacks: NewCallbackList[StateChangeFunction](),
	}
}

func (self *eventRouter[T]) addChangeCallback(changeCallback ChangeFunction[T]) func() {
	callbackId := self.changeCallbacks.Add(changeCallback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *eventRouter[T]) addStateChangeCallback(stateChangeCallback StateChangeFunction) func() {
	callbackId := self.stateChangeCallbacks.Add(stateChangeCallback)
	return func() {
		self.stateChangeCallbacks.Remove(callbackId)
	}
}

func (self *eventRouter[T]) route(event ChangeEvent[T]) {
	for _, changeCallback := range self.changeCallbacks.Get() {
		changeCallback(event)
	}
	for _, stateChangeCallback := range self.stateChangeCallbacks.Get() {
		stateChangeCallback(event.Action)
	}
}
