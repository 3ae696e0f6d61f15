package observable

// observer attached to a view. the view drives the filter while holding its
// own mutex, so implementations must not call back into the source or the
// view synchronously.
//
// `IsMatch` is the visibility predicate applied by enumeration. `IsNull`
// lets hot paths skip notification work with a single cheap branch instead
// of a nil check.
type ViewFilter[T any, V any] interface {
	OnAttach(item T, view V)
	OnAdd(item T, view V)
	OnRemove(item T, view V)
	OnMove(item T, view V)
	IsMatch(item T, view V) bool
	IsNull() bool
}

type nullViewFilter[T any, V any] struct{}

func NullFilter[T any, V any]() ViewFilter[T, V] {
	return nullViewFilter[T, V]{}
}

func (self nullViewFilter[T, V]) OnAttach(item T, view V) {
}

func (self nullViewFilter[T, V]) OnAdd(item T, view V) {
}

func (self nullViewFilter[T, V]) OnRemove(item T, view V) {
}

func (self nullViewFilter[T, V]) OnMove(item T, view V) {
}

func (self nullViewFilter[T, V]) IsMatch(item T, view V) bool {
	return true
}

func (self nullViewFilter[T, V]) IsNull() bool {
	return true
}

// function backed filter so that simple consumers do not need a full
// `ViewFilter` implementation. nil fields are no-ops; a nil `Match` means
// everything is visible.
type CallbackViewFilter[T any, V any] struct {
	Attach func(item T, view V)
	Add    func(item T, view V)
	Remove func(item T, view V)
	Move   func(item T, view V)
	Match  func(item T, view V) bool
}

func (self *CallbackViewFilter[T, V]) OnAttach(item T, view V) {
	if self.Attach != nil {
		self.Attach(item, view)
	}
}

func (self *CallbackViewFilter[T, V]) OnAdd(item T, view V) {
	if self.Add != nil {
		self.Add(item, view)
	}
}

func (self *CallbackViewFilter[T, V]) OnRemove(item T, view V) {
	if self.Remove != nil {
		self.Remove(item, view)
	}
}

func (self *CallbackViewFilter[T, V]) OnMove(item T, view V) {
	if self.Move != nil {
		self.Move(item, view)
	}
}

func (self *CallbackViewFilter[T, V]) IsMatch(item T, view V) bool {
	if self.Match != nil {
		return self.Match(item, view)
	}
	return true
}

func (self *CallbackViewFilter[T, V]) IsNull() bool {
	return false
}
