// Package state persists and restores the durable portion of simulated
// devices. Each device exposes a pointer to its persistent-field struct;
// transient fields are re-derived after a restore.
package state

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"sync"
)

// A Holder owns a named piece of persistent state. State must return a
// pointer to a gob-encodable struct; the pointed-to value is what Save
// captures and what Restore overwrites.
type Holder interface {
	Name() string
	State() any
}

// A PostRestorer re-derives its transient state after Restore has
// overwritten its persistent fields.
type PostRestorer interface {
	AfterRestoreState()
}

// Manager coordinates saving and restoring the state of registered holders.
type Manager struct {
	mu     sync.Mutex
	order  []Holder
	byName map[string]Holder
}

// NewManager constructs a Manager with no registered holders.
func NewManager() *Manager {
	return &Manager{byName: make(map[string]Holder)}
}

// Register installs a holder. Holder names must be unique.
func (m *Manager) Register(h Holder) error {
	if h.Name() == "" {
		return fmt.Errorf("state: holder name must be non-empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[h.Name()]; exists {
		return fmt.Errorf("state: holder %q already registered", h.Name())
	}

	m.order = append(m.order, h)
	m.byName[h.Name()] = h

	return nil
}

type snapshotEntry struct {
	Name string
	Data []byte
}

// Save writes a snapshot of every registered holder's persistent state.
func (m *Manager) Save(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]snapshotEntry, 0, len(m.order))
	for _, h := range m.order {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(h.State()); err != nil {
			return fmt.Errorf("state: unable to encode %q: %w", h.Name(), err)
		}

		entries = append(entries, snapshotEntry{
			Name: h.Name(),
			Data: buf.Bytes(),
		})
	}

	if err := gob.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("state: unable to write snapshot: %w", err)
	}

	return nil
}

// Restore reads a snapshot and overwrites the persistent state of every
// registered holder with it. The snapshot must carry exactly the holders
// that are registered. After all holders are loaded, each PostRestorer
// re-derives its transient state.
func (m *Manager) Restore(r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []snapshotEntry
	if err := gob.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("state: unable to read snapshot: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		h, ok := m.byName[e.Name]
		if !ok {
			return fmt.Errorf("state: snapshot carries unknown holder %q",
				e.Name)
		}

		dec := gob.NewDecoder(bytes.NewReader(e.Data))
		if err := dec.Decode(h.State()); err != nil {
			return fmt.Errorf("state: unable to decode %q: %w", e.Name, err)
		}

		seen[e.Name] = true
	}

	for _, h := range m.order {
		if !seen[h.Name()] {
			return fmt.Errorf("state: snapshot has no entry for %q", h.Name())
		}
	}

	for _, h := range m.order {
		if pr, ok := h.(PostRestorer); ok {
			pr.AfterRestoreState()
		}
	}

	return nil
}
