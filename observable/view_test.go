package observable

import (
	"fmt"
	mathrand "math/rand"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"
)

type testItem struct {
	id    string
	value int
}

func testIdentity(item *testItem) string {
	return item.id
}

func testTransform(item *testItem) int {
	return item.value * 10
}

func viewContents[T any, V comparable](enumerator *ViewEnumerator[T, V]) []V {
	views := []V{}
	for {
		pair, ok := enumerator.Next()
		if !ok {
			break
		}
		views = append(views, pair.View)
	}
	return views
}

func TestView(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})
	list.Add(&testItem{id: "b", value: 2})

	view := NewView(list, testIdentity, testTransform)

	// the initial load snapshots the live items
	assert.Equal(t, 2, view.Count())

	item := &testItem{id: "c", value: 3}
	list.Add(item)
	assert.Equal(t, 3, view.Count())

	pairs := map[string]int{}
	enumerator := view.Enumerate()
	for {
		pair, ok := enumerator.Next()
		if !ok {
			break
		}
		pairs[pair.Item.id] = pair.View
	}
	assert.Equal(t, map[string]int{"a": 10, "b": 20, "c": 30}, pairs)

	list.RemoveAt(2)
	assert.Equal(t, 2, view.Count())

	list.Clear()
	assert.Equal(t, 0, view.Count())
}

func TestViewBatchAdd(t *testing.T) {
	list := NewObservableList[*testItem]()
	view := NewView(list, testIdentity, testTransform)

	// one batched event materializes every item
	list.AddAll(
		&testItem{id: "a", value: 1},
		&testItem{id: "b", value: 2},
		&testItem{id: "c", value: 3},
	)
	assert.Equal(t, 3, view.Count())

	pairs := map[string]int{}
	for _, pair := range view.Enumerate().Pairs() {
		pairs[pair.Item.id] = pair.View
	}
	assert.Equal(t, map[string]int{"a": 10, "b": 20, "c": 30}, pairs)
}

func TestViewReplace(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})

	view := NewView(list, testIdentity, testTransform)

	// replace with the same key
	list.Set(0, &testItem{id: "a", value: 5})
	assert.Equal(t, 1, view.Count())
	assert.Equal(t, []int{50}, viewContents(view.Enumerate()))

	// replace with a different key
	list.Set(0, &testItem{id: "b", value: 7})
	assert.Equal(t, 1, view.Count())
	assert.Equal(t, []int{70}, viewContents(view.Enumerate()))
}

func TestViewDuplicateKey(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})

	view := NewView(list, testIdentity, testTransform)
	assert.Equal(t, 1, view.Count())

	assert.PanicMatches(t, func() {
		list.Add(&testItem{id: "a", value: 2})
	}, "duplicate key on add: a")
}

func TestViewRemoveUnknownKey(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})

	view := NewView(list, testIdentity, testTransform)

	// an event for an item the view never materialized is fatal
	assert.PanicMatches(t, func() {
		view.applyChange(ChangeEvent[*testItem]{
			Action:      ChangeActionRemove,
			OldItems:    []*testItem{{id: "zz", value: 0}},
			Position:    NoPosition,
			OldPosition: NoPosition,
		})
	}, "remove for unknown key: zz")
}

func TestViewTransformFailure(t *testing.T) {
	list := NewObservableList[*testItem]()

	// three views in subscription order. the middle one's transform fails
	// on a marked item.
	first := NewView(list, testIdentity, testTransform)
	failing := NewView(list, testIdentity, func(item *testItem) int {
		if item.id == "x" {
			panic("transform failure")
		}
		return item.value
	})
	last := NewView(list, testIdentity, testTransform)

	list.Add(&testItem{id: "a", value: 1})
	assert.Equal(t, 1, first.Count())
	assert.Equal(t, 1, failing.Count())
	assert.Equal(t, 1, last.Count())

	// the failure surfaces to the mutation's caller and aborts the
	// remaining dispatch for that event. the earlier view keeps the add,
	// the later view never observes it. nothing is rolled back.
	assert.PanicMatches(t, func() {
		list.Add(&testItem{id: "x", value: 9})
	}, "transform failure")

	assert.Equal(t, 2, first.Count())
	assert.Equal(t, 1, failing.Count())
	assert.Equal(t, 1, last.Count())
	assert.Equal(t, 2, list.Len())
}

func TestViewFilterFailure(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})

	view := NewView(list, testIdentity, testTransform)
	view.AttachFilter(&CallbackViewFilter[*testItem, int]{
		Add: func(item *testItem, v int) {
			if item.id == "x" {
				panic("filter failure")
			}
		},
	})

	assert.PanicMatches(t, func() {
		list.Add(&testItem{id: "x", value: 9})
	}, "filter failure")

	// the entry was materialized before the callback failed. best effort,
	// non transactional.
	assert.Equal(t, 2, view.Count())
}

func TestViewStateChange(t *testing.T) {
	list := NewObservableList[*testItem]()
	view := NewView(list, testIdentity, testTransform)

	actions := []ChangeAction{}
	unsub := view.AddStateChangeCallback(func(action ChangeAction) {
		actions = append(actions, action)
	})

	list.Add(&testItem{id: "a", value: 1})
	list.Set(0, &testItem{id: "a", value: 2})
	list.Move(0, 0)
	list.RemoveAt(0)
	list.Clear()

	assert.Equal(t, []ChangeAction{
		ChangeActionAdd,
		ChangeActionReplace,
		ChangeActionMove,
		ChangeActionRemove,
		ChangeActionReset,
	}, actions)

	unsub()
	list.Add(&testItem{id: "b", value: 2})
	assert.Equal(t, 5, len(actions))
}

func TestViewChained(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})

	view := NewView(list, testIdentity, testTransform)

	// a view over a view. the upstream view re-broadcasts each applied
	// event, so the downstream stays in sync through the chain.
	chained := NewView(view, testIdentity, func(item *testItem) int {
		return item.value * 100
	})
	assert.Equal(t, 1, chained.Count())

	list.Add(&testItem{id: "b", value: 2})
	assert.Equal(t, 2, chained.Count())
	assert.Equal(t, 2, view.Count())

	list.RemoveAt(0)
	assert.Equal(t, 1, chained.Count())

	contents := viewContents(chained.Enumerate())
	assert.Equal(t, []int{200}, contents)
}

func TestViewDispose(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})

	view := NewView(list, testIdentity, testTransform)
	assert.Equal(t, 1, view.Count())

	view.Dispose()
	assert.Equal(t, 0, view.Count())

	// no events are applied after disposal
	list.Add(&testItem{id: "b", value: 2})
	assert.Equal(t, 0, view.Count())

	// idempotent
	view.Dispose()
}

func TestViewConcurrentMutation(t *testing.T) {
	list := NewObservableList[*testItem]()
	view := NewView(list, testIdentity, testTransform)

	g := 8
	n := 200

	var wg sync.WaitGroup
	for i := 0; i < g; i += 1 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < n; j += 1 {
				list.Add(&testItem{
					id:    fmt.Sprintf("%d-%d", i, j),
					value: i*n + j,
				})
			}
		}(i)
	}
	// concurrent readers exercise count and enumeration against event
	// application. bounds are checked after the writers settle.
	readCounts := make([]int, 4)
	for i := 0; i < 4; i += 1 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			maxCount := 0
			for j := 0; j < 100; j += 1 {
				if count := view.Count(); maxCount < count {
					maxCount = count
				}
				if count := len(view.Enumerate().Pairs()); maxCount < count {
					maxCount = count
				}
			}
			readCounts[i] = maxCount
		}(i)
	}
	wg.Wait()

	for _, maxCount := range readCounts {
		assert.Equal(t, true, maxCount <= g*n)
	}

	assert.Equal(t, g*n, view.Count())
	assert.Equal(t, g*n, list.Len())
}

func TestViewRandomizedAddRemove(t *testing.T) {
	set := NewObservableSet[int]()
	view := NewSetView(set, func(item int) int {
		return item * 2
	})

	n := 300
	items := []int{}
	for i := 0; i < n; i += 1 {
		items = append(items, i)
	}
	mathrand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	for _, item := range items {
		set.Add(item)
	}
	assert.Equal(t, n, view.Count())

	mathrand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	for _, item := range items {
		set.Remove(item)
	}
	assert.Equal(t, 0, view.Count())
	assert.Equal(t, []int{}, viewContents(view.Enumerate()))
}
