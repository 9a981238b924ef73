package keys

import (
	"fmt"
	"sort"
	"sync"
)

// Name identifies a slot of the key schedule.
type Name string

const (
	// Uniquely owned keys.
	KeyA  Name = "A"
	KeyB  Name = "B"
	KeyC  Name = "C"
	KeyCD Name = "CD"

	// Pairwise keys, each known to exactly the two named parties.
	KeyAB Name = "AB"
	KeyAC Name = "AC"
	KeyBC Name = "BC"

	// Global is known to all three parties.
	Global Name = "0"
)

// Names lists every slot of a complete schedule in canonical order.
var Names = []Name{KeyA, KeyB, KeyC, KeyCD, KeyAB, KeyAC, KeyBC, Global}

// Schedule holds the keys known to the local party after key distribution.
//
// A Schedule is built once and only read afterwards. Accessors return copies so
// that consumers cannot alter the shared state.
type Schedule struct {
	mtx  sync.RWMutex
	keys map[Name]Key
}

// NewSchedule creates a Schedule from the given keys, which are copied.
// It returns an error if any key is invalid or the name unknown.
func NewSchedule(keys map[Name]Key) (*Schedule, error) {
	s := &Schedule{keys: make(map[Name]Key, len(keys))}
	for name, key := range keys {
		if !name.Valid() {
			return nil, fmt.Errorf("schedule: unknown key name %q", name)
		}
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("schedule: key %s: %w", name, err)
		}
		s.keys[name] = key.Copy()
	}
	return s, nil
}

// Valid returns true if n is one of the known slots.
func (n Name) Valid() bool {
	for _, other := range Names {
		if n == other {
			return true
		}
	}
	return false
}

// Get returns a copy of the key stored under name.
func (s *Schedule) Get(name Name) (Key, bool) {
	if s == nil {
		return nil, false
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	key, ok := s.keys[name]
	if !ok {
		return nil, false
	}
	return key.Copy(), true
}

// Has returns true if the schedule holds a key for name.
func (s *Schedule) Has(name Name) bool {
	if s == nil {
		return false
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.keys[name]
	return ok
}

// Names returns the slots present in the schedule, in canonical order.
func (s *Schedule) Names() []Name {
	if s == nil {
		return nil
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	names := make([]Name, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return index(names[i]) < index(names[j]) })
	return names
}

// Len returns the number of keys held.
func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.keys)
}

// Empty returns true if no key is held.
func (s *Schedule) Empty() bool { return s.Len() == 0 }

// Fingerprint returns the fingerprint of the key stored under name.
func (s *Schedule) Fingerprint(name Name) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	key, ok := s.keys[name]
	if !ok {
		return nil, false
	}
	return key.Fingerprint(), true
}

// Wipe zeroes every key and empties the schedule. It is safe to call more than once.
func (s *Schedule) Wipe() {
	if s == nil {
		return
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for name, key := range s.keys {
		key.Wipe()
		delete(s.keys, name)
	}
}

func index(n Name) int {
	for i, other := range Names {
		if n == other {
			return i
		}
	}
	return len(Names)
}
