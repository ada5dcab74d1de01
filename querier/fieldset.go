package querier

// FieldSet is the set of field names a storage operation accepts as
// direct filters. Each operation declares its set statically; the
// compiler rejects plain fields outside it.
type FieldSet map[string]struct{}

// NewFieldSet builds a field set from the given names.
func NewFieldSet(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is a member of the set.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members of the set. Order is unspecified.
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}
