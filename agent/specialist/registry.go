package specialist

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrAtCapacity        = errors.New("specialist at capacity")
	ErrUnknownSpecialist = errors.New("unknown specialist")
)

// Registry tracks specialist capacity. Reservation and release are atomic with
// respect to the load counter, so concurrent routing decisions targeting the
// same specialist can never push load past MaxConcurrent.
type Registry interface {
	// CandidatesFor returns specialists serving the label, least loaded
	// first, ties broken by ID for reproducibility.
	CandidatesFor(departmentLabel string) []Snapshot

	// TryReserve takes one slot, or fails with ErrAtCapacity /
	// ErrUnknownSpecialist. Never blocks.
	TryReserve(specialistID string) error

	// Release returns a slot after a handoff-away, close, or expiry.
	// Releasing below zero is clamped.
	Release(specialistID string)

	Get(specialistID string) (Snapshot, bool)
}

type entry struct {
	desc Descriptor
	load int
}

type memoryRegistry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var _ Registry = (*memoryRegistry)(nil)

// NewRegistry builds an isolated in-process registry. Multiple registries may
// coexist; nothing here is package-global.
func NewRegistry(descriptors []Descriptor) (Registry, error) {
	entries := make(map[string]*entry, len(descriptors))
	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := entries[d.ID]; dup {
			return nil, fmt.Errorf("duplicate specialist id %q", d.ID)
		}
		entries[d.ID] = &entry{desc: d}
	}
	return &memoryRegistry{entries: entries}, nil
}

func (r *memoryRegistry) CandidatesFor(departmentLabel string) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Snapshot
	for _, e := range r.entries {
		if e.desc.Serves(departmentLabel) {
			out = append(out, Snapshot{Descriptor: e.desc, Load: e.load})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Load != out[j].Load {
			return out[i].Load < out[j].Load
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memoryRegistry) TryReserve(specialistID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[specialistID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSpecialist, specialistID)
	}
	if !e.desc.Unlimited() && e.load >= e.desc.MaxConcurrent {
		return fmt.Errorf("%w: %s load=%d max=%d", ErrAtCapacity, specialistID, e.load, e.desc.MaxConcurrent)
	}
	e.load++
	return nil
}

func (r *memoryRegistry) Release(specialistID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[specialistID]
	if !ok {
		return
	}
	if e.load > 0 {
		e.load--
	}
}

func (r *memoryRegistry) Get(specialistID string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[specialistID]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{Descriptor: e.desc, Load: e.load}, true
}
