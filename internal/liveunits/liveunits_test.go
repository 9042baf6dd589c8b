package liveunits

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencodeintel/tucore/internal/nativeparser"
	"github.com/opencodeintel/tucore/internal/tu"
)

func newEmptyFor(idx *nativeparser.Index) func() tu.TranslationUnit {
	return func() tu.TranslationUnit { return tu.New(idx) }
}

func TestRequestTracking_IsIdempotent(t *testing.T) {
	idx := nativeparser.NewIndex(false, false)
	m := New()
	newEmpty := newEmptyFor(idx)

	first := m.RequestTracking("a.cpp", newEmpty)
	second := m.RequestTracking("a.cpp", newEmpty)

	assert.True(t, m.IsTracking("a.cpp"))
	assert.Equal(t, first.FileName(), second.FileName())
}

func TestCancelTracking_SoleHolderRemoves(t *testing.T) {
	idx := nativeparser.NewIndex(false, false)
	m := New()
	m.RequestTracking("a.cpp", newEmptyFor(idx))

	assert.True(t, m.CancelTracking("a.cpp"))
	assert.False(t, m.IsTracking("a.cpp"))
}

func TestCancelTracking_OtherHolderKeepsEntry(t *testing.T) {
	idx := nativeparser.NewIndex(false, false)
	m := New()
	unit := m.RequestTracking("a.cpp", newEmptyFor(idx))
	holder := unit.Retain()
	defer holder.Release()

	assert.False(t, m.CancelTracking("a.cpp"), "another consumer still holds a reference")
	assert.True(t, m.IsTracking("a.cpp"))
}

func TestFind_AbsentReturnsEmptyTU(t *testing.T) {
	m := New()
	unit := m.Find("missing.cpp")
	assert.True(t, unit.IsEmpty())
}

func TestUpdateUnit_NotifiesSubscribers(t *testing.T) {
	idx := nativeparser.NewIndex(false, false)
	m := New()
	published := tu.New(idx)
	published.SetFileName("a.cpp")

	var wg sync.WaitGroup
	wg.Add(1)
	var gotFile string
	unsubscribe := m.Subscribe("a.cpp", func(file string, unit tu.TranslationUnit) {
		gotFile = file
		wg.Done()
	})
	defer unsubscribe()

	m.UpdateUnit("a.cpp", published)
	wg.Wait()

	assert.Equal(t, "a.cpp", gotFile)
	assert.True(t, m.IsTracking("a.cpp"))
}

func TestUpdateUnit_SubscriberPanicDoesNotCorruptManager(t *testing.T) {
	idx := nativeparser.NewIndex(false, false)
	m := New()
	unit := tu.New(idx)
	unit.SetFileName("a.cpp")

	m.Subscribe("a.cpp", func(file string, u tu.TranslationUnit) {
		panic("boom")
	})

	assert.NotPanics(t, func() { m.UpdateUnit("a.cpp", unit) })
	assert.True(t, m.IsTracking("a.cpp"))
}

func TestTrackedFiles_ReflectsCurrentSet(t *testing.T) {
	idx := nativeparser.NewIndex(false, false)
	m := New()
	m.RequestTracking("a.cpp", newEmptyFor(idx))
	m.RequestTracking("b.cpp", newEmptyFor(idx))

	files := m.TrackedFiles()
	assert.ElementsMatch(t, []string{"a.cpp", "b.cpp"}, files)
}
