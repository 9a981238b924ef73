package keys

// View is the read-only surface of a Schedule.
type View interface {
	Get(name Name) (Key, bool)
	Has(name Name) bool
	Names() []Name
	Len() int
	Empty() bool
	Fingerprint(name Name) ([]byte, bool)
}

// readOnly hides the Schedule so that a View cannot be asserted back to it.
type readOnly struct {
	s *Schedule
}

// View returns a read-only view of s. It reflects a later Wipe of s.
func (s *Schedule) View() View { return readOnly{s: s} }

func (v readOnly) Get(name Name) (Key, bool)            { return v.s.Get(name) }
func (v readOnly) Has(name Name) bool                   { return v.s.Has(name) }
func (v readOnly) Names() []Name                        { return v.s.Names() }
func (v readOnly) Len() int                             { return v.s.Len() }
func (v readOnly) Empty() bool                          { return v.s.Empty() }
func (v readOnly) Fingerprint(name Name) ([]byte, bool) { return v.s.Fingerprint(name) }
