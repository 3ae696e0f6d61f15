package observable

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// a source collection emits exactly one `ChangeEvent` per externally visible
// mutation, synchronously and in subscription order, while the source's
// mutex is held. views apply the event stream against their materialized
// structure and never re-derive from the source.

type ChangeAction int

const (
	ChangeActionAdd ChangeAction = iota
	ChangeActionRemove
	ChangeActionReplace
	ChangeActionMove
	ChangeActionReset
)

func (self ChangeAction) String() string {
	switch self {
	case ChangeActionAdd:
		return "add"
	case ChangeActionRemove:
		return "remove"
	case ChangeActionReplace:
		return "replace"
	case ChangeActionMove:
		return "move"
	case ChangeActionReset:
		return "reset"
	default:
		return fmt.Sprintf("unknown(%d)", int(self))
	}
}

// positional hint for sources without positional semantics
const NoPosition = -1

// one mutation applied to a source collection.
// payload layout per action:
//
//	add: Items = inserted items, Position = index of the first (NoPosition for key-based sources)
//	remove: OldItems = removed items, OldPosition = prior index
//	replace: OldItems = [prior], Items = [next], Position = index
//	move: Items = [item], OldPosition -> Position
//	reset: no payload
type ChangeEvent[T any] struct {
	Action      ChangeAction
	Items       []T
	OldItems    []T
	Position    int
	OldPosition int
}

type ChangeFunction[T any] func(event ChangeEvent[T])

type StateChangeFunction func(action ChangeAction)

// anything views can materialize from. `AddChangeCallbackWithSnapshot` must
// snapshot the current items and register the callback atomically under the
// source's mutex, so the caller misses no event and double-sees none.
type ViewSource[T any] interface {
	AddChangeCallback(changeCallback ChangeFunction[T]) func()
	AddChangeCallbackWithSnapshot(changeCallback ChangeFunction[T]) ([]T, func())
}

type IdentityFunction[T any, K comparable] func(item T) K

type TransformFunction[T any, V any] func(item T) V

// three way compare over view values. negative, zero, positive.
type CompareFunction[V any] func(a V, b V) int

// comparable
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func (self Id) Bytes() []byte {
	return self[0:16]
}

func (self Id) String() string {
	src := self
	return fmt.Sprintf("%x-%x-%x-%x-%x", src[0:4], src[4:6], src[6:8], src[8:10], src[10:16])
}

// a mutation that would corrupt the correlation between a source item and its
// materialized view entry. fatal. continuing would break the bijection
// between the ordered structure and its auxiliary map.
type ContractViolationError struct {
	message string
}

func (self *ContractViolationError) Error() string {
	return self.message
}

func contractViolation(format string, a ...any) *ContractViolationError {
	err := &ContractViolationError{
		message: fmt.Sprintf(format, a...),
	}
	glog.Errorf("Contract violation: %s\n", err.message)
	return err
}
