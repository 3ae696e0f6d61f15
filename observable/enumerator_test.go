package observable

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestEnumeratorSnapshot(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 1})
	list.Add(&testItem{id: "b", value: 2})

	view := NewSortedView(list, testIdentity, func(item *testItem) int {
		return item.value
	}, intCompare)

	enumerator := view.Enumerate()

	// mutations after the snapshot are not reflected
	list.Add(&testItem{id: "c", value: 0})
	list.RemoveAt(0)

	ids := []string{}
	for {
		pair, ok := enumerator.Next()
		if !ok {
			break
		}
		ids = append(ids, pair.Item.id)
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	// finite and non restartable
	_, ok := enumerator.Next()
	assert.Equal(t, false, ok)
	assert.Equal(t, 0, len(enumerator.Pairs()))

	// a fresh enumerator sees the live state
	assert.Equal(t, []string{"c", "b"}, sortedIds(view))
}

func TestEnumeratorPairs(t *testing.T) {
	list := NewObservableList[*testItem]()
	list.Add(&testItem{id: "a", value: 2})
	list.Add(&testItem{id: "b", value: 1})

	view := NewSortedView(list, testIdentity, func(item *testItem) int {
		return item.value
	}, intCompare)

	enumerator := view.Enumerate()
	pair, ok := enumerator.Next()
	assert.Equal(t, true, ok)
	assert.Equal(t, "b", pair.Item.id)

	// drains the rest
	rest := enumerator.Pairs()
	assert.Equal(t, 1, len(rest))
	assert.Equal(t, "a", rest[0].Item.id)
	assert.Equal(t, 0, len(enumerator.Pairs()))
}
