// Package liveunits implements the process-wide Live-Units Manager of
// spec.md §4.C: a registry sharing one TranslationUnit per file across many
// short-lived consumers, releasing it once the last consumer drops it.
package liveunits

import (
	"sync"

	"github.com/opencodeintel/tucore/internal/diag"
	"github.com/opencodeintel/tucore/internal/tu"
)

// Subscriber is notified when update_unit publishes a new TU for a file it
// cares about. Per spec.md §4.C, notifications arrive on the publisher's
// goroutine — a subscriber must not call back into the same Manager
// synchronously unless it is prepared for re-entrant locking, so
// UpdateUnit releases the lock before invoking each callback instead of
// holding it across the call (see notify).
type Subscriber func(file string, unit tu.TranslationUnit)

// Manager is the Live-Units Manager. spec.md §9 says "the LiveUnits
// singleton becomes a collaborator passed to each component that needs
// it; tests construct their own instance" — so this is an ordinary type,
// not a package-level global; main wiring constructs exactly one and
// shares the pointer.
type Manager struct {
	mu          sync.Mutex
	units       map[string]tu.TranslationUnit
	subscribers map[string][]Subscriber
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{
		units:       make(map[string]tu.TranslationUnit),
		subscribers: make(map[string][]Subscriber),
	}
}

// RequestTracking implements spec.md §4.C: "if not present, inserts an
// empty TU for file; idempotent." newEmpty constructs a fresh, unparsed TU
// bound to the caller's native index — callers pass tu.New(idx) here so
// this package stays free of a direct nativeparser dependency.
func (m *Manager) RequestTracking(file string, newEmpty func() tu.TranslationUnit) tu.TranslationUnit {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.units[file]; ok {
		return existing.Retain()
	}
	unit := newEmpty()
	unit.SetFileName(file)
	m.units[file] = unit
	return unit
}

// IsTracking implements spec.md §4.C: "file → bool".
func (m *Manager) IsTracking(file string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.units[file]
	return ok
}

// CancelTracking implements spec.md §4.C: "removes the entry iff the TU in
// the map is the sole holder (shared-ref == 1); otherwise leaves it
// (another consumer is using it)."
func (m *Manager) CancelTracking(file string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	unit, ok := m.units[file]
	if !ok {
		return false
	}
	if unit.RefCount() > 1 {
		return false
	}
	delete(m.units, file)
	delete(m.subscribers, file)
	return true
}

// UpdateUnit implements spec.md §4.C: "replaces the entry and notifies
// subscribers via a 'unit available' signal."
func (m *Manager) UpdateUnit(file string, unit tu.TranslationUnit) {
	m.mu.Lock()
	m.units[file] = unit
	subs := append([]Subscriber(nil), m.subscribers[file]...)
	m.mu.Unlock()

	for _, sub := range subs {
		notify(file, unit, sub)
	}
}

func notify(file string, unit tu.TranslationUnit, sub Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			diag.Printf("liveunits: subscriber for %s panicked: %v", file, r)
		}
	}()
	sub(file, unit)
}

// Subscribe registers sub to be called whenever UpdateUnit publishes a new
// TU for file. It returns an unsubscribe function.
func (m *Manager) Subscribe(file string, sub Subscriber) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[file] = append(m.subscribers[file], sub)
	idx := len(m.subscribers[file]) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subscribers[file]
		if idx < len(subs) {
			m.subscribers[file] = append(subs[:idx:idx], subs[idx+1:]...)
		}
	}
}

// Find implements spec.md §4.C: "file → TranslationUnit: returns an empty
// TU if absent."
func (m *Manager) Find(file string) tu.TranslationUnit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.units[file]
}

// TrackedFiles returns a snapshot of the currently-tracked file set.
func (m *Manager) TrackedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make([]string, 0, len(m.units))
	for f := range m.units {
		files = append(files, f)
	}
	return files
}
